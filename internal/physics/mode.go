package physics

type ModeKind uint8

const (
	ModeWalking ModeKind = iota + 1
	ModeFalling
	ModeJumping
)

// Mode is one of Walking, Falling or Jumping. Skiing only exists as a flag
// on Walking.
type Mode interface {
	Kind() ModeKind
	String() string
	movementMode()
}

type Walking struct {
	Skiing bool
}

type Falling struct{}

// Jumping integrates like Falling and lands the same way.
type Jumping struct{}

func (Walking) Kind() ModeKind { return ModeWalking }
func (Falling) Kind() ModeKind { return ModeFalling }
func (Jumping) Kind() ModeKind { return ModeJumping }

func (w Walking) String() string {
	if w.Skiing {
		return "walking(skiing)"
	}
	return "walking"
}
func (Falling) String() string { return "falling" }
func (Jumping) String() string { return "jumping" }

func (Walking) movementMode() {}
func (Falling) movementMode() {}
func (Jumping) movementMode() {}

func IsAirborne(m Mode) bool {
	switch m.(type) {
	case Falling, Jumping:
		return true
	}
	return false
}

// Transition records a single mode change inside a tick.
type Transition struct {
	From Mode
	To   Mode
}
