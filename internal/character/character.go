package character

import (
	"log/slog"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/gravshift/internal/config"
	"github.com/Versifine/gravshift/internal/event"
	"github.com/Versifine/gravshift/internal/physics"
	"github.com/Versifine/gravshift/internal/weapon"
)

// pitchPullback is the lerp alpha used to ease the camera back inside the
// pitch limit.
const pitchPullback = 0.1

// Character is the player pawn. It owns the movement state and is safe for
// concurrent use; the simulation itself only advances inside Tick.
type Character struct {
	mu      sync.Mutex
	name    string
	cfg     config.CharacterConfig
	state   physics.State
	sim     *physics.Simulator
	input   mgl64.Vec3
	yaw     float64
	pitch   float64
	sliding bool
	weapon  *weapon.Weapon
	bus     *event.Bus
}

func New(name string, cfg config.CharacterConfig, sim *physics.Simulator, spawn mgl64.Vec3, bus *event.Bus) *Character {
	return &Character{
		name:  name,
		cfg:   cfg,
		state: physics.NewState(sim.Config, spawn),
		sim:   sim,
		bus:   bus,
	}
}

func (c *Character) Name() string { return c.name }

// Move adds movement input along the camera's forward (y) and right (x)
// axes. Input accumulates until the next Tick.
func (c *Character) Move(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := c.viewLocked()
	c.input = c.input.
		Add(view.Rotate(physics.Forward).Mul(y)).
		Add(view.Rotate(physics.Right).Mul(x))
}

// Look turns the camera by dx degrees of yaw and -dy degrees of pitch.
// Pitch past the limit is eased back towards it rather than clamped.
func (c *Character) Look(dx, dy float64) {
	if !isFinite(dx) || !isFinite(dy) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.yaw = normalizeYaw(c.yaw + dx)
	c.pitch -= dy
	limit := c.cfg.PitchLimit
	if math.Abs(c.pitch) > limit {
		edge := math.Copysign(limit, c.pitch)
		c.pitch = edge + (c.pitch-edge)*pitchPullback
	}
}

// Slide starts or stops skiing. Starting tilts gravity backwards so the
// body rolls onto its back; stopping restores downward gravity.
func (c *Character) Slide(on bool) {
	c.mu.Lock()
	if on == c.sliding {
		c.mu.Unlock()
		return
	}
	c.sliding = on
	g := c.cfg.SlideGravity
	var shift event.GravityShiftedEvent
	if on {
		c.state.SetIsSkiing(true)
		shift = c.gravityShiftLocked(physics.Backward.Mul(g))
	} else {
		shift = c.gravityShiftLocked(physics.Down.Mul(g))
		c.state.SetIsSkiing(false)
	}
	c.mu.Unlock()

	slog.Debug("Slide toggled", "character", c.name, "sliding", on)
	c.bus.Publish(event.EventGravityShifted, shift)
}

func (c *Character) Sliding() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sliding
}

func (c *Character) SetIsSkiing(skiing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SetIsSkiing(skiing)
}

func (c *Character) SetJetpacking(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SetIsJetpacking(active)
}

func (c *Character) Jump() bool {
	c.mu.Lock()
	from := c.state.Mode
	ok := c.sim.Jump(&c.state)
	to, pos := c.state.Mode, c.state.Position
	c.mu.Unlock()

	if ok {
		c.bus.Publish(event.EventModeChanged, event.ModeChangedEvent{
			From:     modeName(from),
			To:       modeName(to),
			Position: pos,
		})
	}
	return ok
}

func (c *Character) SetMode(m physics.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sim.SetMode(&c.state, m)
}

func (c *Character) AddForce(f mgl64.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.AddForce(f)
}

func (c *Character) SetVelocity(v mgl64.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SetVelocity(v)
}

// GravityShift replaces the gravity vector and publishes the change.
func (c *Character) GravityShift(g mgl64.Vec3) {
	c.mu.Lock()
	shift := c.gravityShiftLocked(g)
	c.mu.Unlock()
	c.bus.Publish(event.EventGravityShifted, shift)
}

func (c *Character) gravityShiftLocked(g mgl64.Vec3) event.GravityShiftedEvent {
	prev := c.state.Gravity
	c.state.GravityShift(g)
	slog.Info("Gravity shifted", "character", c.name, "from", prev, "to", g)
	return event.GravityShiftedEvent{Previous: prev, Gravity: g}
}

// Teleport moves the body to pos at rest. It falls until it finds a floor.
func (c *Character) Teleport(pos mgl64.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Position = pos
	c.state.Velocity = mgl64.Vec3{}
	c.state.DeferredTime = 0
	c.sim.SetMode(&c.state, physics.Falling{})
	slog.Info("Character teleported", "character", c.name, "position", pos)
}

func (c *Character) AttachWeapon(w *weapon.Weapon) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.weapon = w
}

func (c *Character) HasRifle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weapon != nil
}

// Fire shoots the attached weapon from the camera. It returns nil when no
// weapon is attached.
func (c *Character) Fire() []weapon.Shot {
	c.mu.Lock()
	w := c.weapon
	eye := c.eyeLocked()
	view := c.viewLocked()
	c.mu.Unlock()
	if w == nil {
		slog.Debug("Fire ignored without a weapon", "character", c.name)
		return nil
	}
	return w.Fire(eye, view)
}

// Tick consumes the accumulated input, advances the simulation by dt
// seconds and publishes what happened.
func (c *Character) Tick(dt float64) physics.StepReport {
	c.mu.Lock()
	in := physics.Input{Acceleration: clampUnit(c.input)}
	c.input = mgl64.Vec3{}
	report := c.sim.Step(&c.state, in, dt)
	pos := c.state.Position
	c.mu.Unlock()

	c.publish(report, pos)
	return report
}

func (c *Character) publish(report physics.StepReport, pos mgl64.Vec3) {
	for _, t := range report.Transitions {
		c.bus.Publish(event.EventModeChanged, event.ModeChangedEvent{
			From:     modeName(t.From),
			To:       modeName(t.To),
			Position: pos,
		})
	}
	if report.Landed {
		c.bus.Publish(event.EventLanded, event.LandedEvent{Position: pos, Normal: report.LandingHit.Normal})
	}
	if report.SteppedUp {
		c.bus.Publish(event.EventSteppedUp, event.SteppedUpEvent{Position: pos})
	}
	if report.Penetrations > 0 {
		c.bus.Publish(event.EventPenetration, event.PenetrationEvent{Count: report.Penetrations, Position: pos})
	}
}

// State returns a copy of the movement state.
func (c *Character) State() physics.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Character) Position() mgl64.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Position
}

// Eye is the camera position in world space.
func (c *Character) Eye() mgl64.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eyeLocked()
}

// View is the camera rotation in world space.
func (c *Character) View() mgl64.Quat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// YawPitch returns the camera angles relative to the body, in degrees.
func (c *Character) YawPitch() (float64, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.yaw, c.pitch
}

func (c *Character) eyeLocked() mgl64.Vec3 {
	return c.state.Position.Add(c.state.Up().Mul(c.cfg.EyeHeight))
}

// viewLocked composes body orientation, yaw about the body's up axis and
// pitch about its right axis. Positive yaw turns right.
func (c *Character) viewLocked() mgl64.Quat {
	yaw := mgl64.QuatRotate(mgl64.DegToRad(c.yaw), physics.Down)
	pitch := mgl64.QuatRotate(mgl64.DegToRad(c.pitch), physics.Right)
	return c.state.Orientation.Mul(yaw).Mul(pitch).Normalize()
}

func clampUnit(v mgl64.Vec3) mgl64.Vec3 {
	if l := v.Len(); l > 1 {
		return v.Mul(1 / l)
	}
	return v
}

// normalizeYaw wraps yaw into (-180, 180].
func normalizeYaw(yaw float64) float64 {
	yaw = math.Mod(yaw, 360)
	if yaw <= -180 {
		yaw += 360
	} else if yaw > 180 {
		yaw -= 360
	}
	return yaw
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func modeName(m physics.Mode) string {
	if m == nil {
		return "none"
	}
	return m.String()
}
