package physics

import "github.com/go-gl/mathgl/mgl64"

// RotationBlender eases the body from Previous to Target after a gravity
// change. Progress runs from 0 to 1 at Rate per second and stays at 1 until
// the next Shift.
type RotationBlender struct {
	Previous mgl64.Quat
	Target   mgl64.Quat
	Progress float64
	Rate     float64
}

func NewRotationBlender(rate float64, orientation mgl64.Quat) RotationBlender {
	return RotationBlender{
		Previous: orientation,
		Target:   orientation,
		Progress: 1,
		Rate:     rate,
	}
}

func (b *RotationBlender) Shift(current, target mgl64.Quat) {
	b.Previous = current
	b.Target = target
	b.Progress = 0
}

func (b *RotationBlender) Active() bool {
	return b.Progress < 1
}

// Advance moves the blend forward by dt and returns the orientation to
// apply. The bool is false once the blend had already completed, in which
// case nothing should be written. The call that completes the blend returns
// Target exactly.
func (b *RotationBlender) Advance(dt float64) (mgl64.Quat, bool) {
	if b.Progress >= 1 {
		return b.Target, false
	}
	if b.Rate <= 0 {
		b.Progress = 1
		return b.Target, true
	}
	if dt > 0 {
		b.Progress += dt * b.Rate
	}
	if b.Progress >= 1 {
		b.Progress = 1
		return b.Target, true
	}
	return lerpQuat(b.Previous, b.Target, b.Progress), true
}

// lerpQuat interpolates component-wise and renormalizes. q and -q are the
// same rotation, so the target is flipped into the hemisphere of from.
func lerpQuat(from, to mgl64.Quat, p float64) mgl64.Quat {
	if from.Dot(to) < 0 {
		to = to.Scale(-1)
	}
	return from.Scale(1 - p).Add(to.Scale(p)).Normalize()
}
