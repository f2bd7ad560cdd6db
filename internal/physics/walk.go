package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func (s *Simulator) walk(st *State, in Input, dt float64, thrust mgl64.Vec3, report *StepReport) {
	remaining := dt
	for s.canIterate(remaining, report) {
		report.Iterations++
		tick := s.timeSlice(remaining)
		remaining -= tick

		up := upAxis(st)
		start := st.Position
		if st.IsSkiing() {
			st.Velocity = st.Velocity.Add(s.skiAcceleration(st, tick))
		} else {
			st.Velocity = s.calcVelocity(st.Velocity, s.constrainInput(in.Acceleration, up), tick)
		}
		st.Velocity = projectOnPlane(st.Velocity, up)
		if st.IsSkiing() {
			st.Velocity = clampLength(st.Velocity, s.Config.MaxSkiSpeed)
		}

		steppedUp := s.moveAlongFloor(st, st.Velocity.Mul(tick), up, report)
		if steppedUp && !s.Config.MaintainHorizontalGroundVelocity {
			st.Velocity = projectOnPlane(st.Position.Sub(start).Mul(1/tick), up)
		}

		st.Floor = s.findFloor(st, up)
		if !st.Floor.Walkable {
			s.setMode(st, Falling{}, report)
			s.fall(st, in, remaining, thrust, report)
			return
		}
		s.snapToFloor(st, st.Floor, up)
	}
	s.deferRemaining(st, remaining)
}

// constrainInput keeps input acceleration in the ground plane with length
// at most one.
func (s *Simulator) constrainInput(accel, up mgl64.Vec3) mgl64.Vec3 {
	return clampLength(projectOnPlane(accel, up), 1)
}

// calcVelocity applies friction and input acceleration, or braking when
// there is no input.
func (s *Simulator) calcVelocity(v, input mgl64.Vec3, dt float64) mgl64.Vec3 {
	cfg := s.Config
	if input.LenSqr() < smallNumber {
		return applyBraking(v, cfg.GroundFriction, cfg.BrakingDeceleration, dt)
	}
	dir, _ := safeNormal(input)
	speed := v.Len()
	v = v.Sub(v.Sub(dir.Mul(speed)).Mul(math.Min(dt*cfg.GroundFriction, 1)))
	v = v.Add(input.Mul(cfg.MaxAcceleration * dt))
	return clampLength(v, cfg.MaxWalkSpeed)
}

func applyBraking(v mgl64.Vec3, friction, decel, dt float64) mgl64.Vec3 {
	speed := v.Len()
	if speed < smallNumber {
		return mgl64.Vec3{}
	}
	drop := (friction*speed + decel) * dt
	if drop >= speed {
		return mgl64.Vec3{}
	}
	return v.Mul((speed - drop) / speed)
}
