package physics

import "github.com/go-gl/mathgl/mgl64"

// State is the per-character movement record. It is only mutated by
// Simulator.Step and the methods below, all from the simulation goroutine.
type State struct {
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	Gravity         mgl64.Vec3
	PreviousGravity mgl64.Vec3
	Orientation     mgl64.Quat
	Blend           RotationBlender
	Mode            Mode
	// SkiRequested survives airborne phases and is applied on landing.
	SkiRequested bool
	Jetpack      JetpackState
	Floor        FloorResult
	PendingForce mgl64.Vec3
	// DeferredTime is simulation time left over when a tick ran out of
	// iterations. It is added to the next tick.
	DeferredTime float64
}

func NewState(cfg Config, position mgl64.Vec3) State {
	orientation := OrientationFromGravity(cfg.Gravity, mgl64.QuatIdent())
	return State{
		Position:        position,
		Gravity:         cfg.Gravity,
		PreviousGravity: cfg.Gravity,
		Orientation:     orientation,
		Blend:           NewRotationBlender(cfg.RotationRate, orientation),
		Mode:            Falling{},
		Jetpack:         JetpackState{Energy: cfg.Jetpack.MaxEnergy},
	}
}

// GravityShift replaces the gravity vector and starts blending toward the
// matching orientation. The movement mode is left alone.
func (st *State) GravityShift(gravity mgl64.Vec3) {
	st.PreviousGravity = st.Gravity
	st.Gravity = gravity
	st.Blend.Shift(st.Orientation, OrientationFromGravity(gravity, st.Orientation))
}

// SetMode switches the movement mode and reports whether it changed.
// Entering Walking drops the vertical part of the velocity and applies the
// pending ski request.
func (st *State) SetMode(m Mode) bool {
	if m == nil {
		return false
	}
	if w, ok := m.(Walking); ok {
		st.SkiRequested = w.Skiing
		up := upAxis(st)
		st.Velocity = projectOnPlane(st.Velocity, up)
	}
	changed := st.Mode != m
	st.Mode = m
	return changed
}

// SetIsSkiing records the request and, when walking, applies it at once.
// Airborne bodies pick it up when they land.
func (st *State) SetIsSkiing(skiing bool) {
	st.SkiRequested = skiing
	if w, ok := st.Mode.(Walking); ok && w.Skiing != skiing {
		st.Mode = Walking{Skiing: skiing}
	}
}

func (st *State) SetIsJetpacking(active bool) {
	st.Jetpack.Active = active
}

// AddForce queues a force applied over the next tick.
func (st *State) AddForce(f mgl64.Vec3) {
	st.PendingForce = st.PendingForce.Add(f)
}

func (st *State) SetVelocity(v mgl64.Vec3) {
	st.Velocity = v
}

func (st *State) IsSkiing() bool {
	w, ok := st.Mode.(Walking)
	return ok && w.Skiing
}

func (st *State) TargetOrientation() mgl64.Quat   { return st.Blend.Target }
func (st *State) PreviousOrientation() mgl64.Quat { return st.Blend.Previous }
func (st *State) RotationBlendProgress() float64  { return st.Blend.Progress }

// Up returns the body's current up direction.
func (st *State) Up() mgl64.Vec3 {
	return upAxis(st)
}
