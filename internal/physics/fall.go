package physics

import "github.com/go-gl/mathgl/mgl64"

// fall integrates ballistic motion in sub-steps, landing on the first hit
// that is steep enough against gravity.
func (s *Simulator) fall(st *State, in Input, dt float64, thrust mgl64.Vec3, report *StepReport) {
	remaining := dt
	for s.canIterate(remaining, report) {
		report.Iterations++
		tick := s.timeSlice(remaining)
		remaining -= tick

		up := upAxis(st)
		accel := st.Gravity.Add(thrust).Add(s.airControl(in, up))
		old := st.Velocity
		st.Velocity = old.Add(accel.Mul(tick))
		delta := old.Add(st.Velocity).Mul(0.5 * tick)

		hit := s.moveWithRecovery(st, delta, report)
		if !hit.Blocking {
			continue
		}
		if s.isValidLanding(hit, up) {
			remaining += tick * (1 - hit.Time)
			s.land(st, hit, report)
			s.walk(st, in, remaining, thrust, report)
			return
		}

		n, ok := safeNormal(hit.Normal)
		if ok && st.Velocity.Dot(n) < 0 {
			st.Velocity = projectOnPlane(st.Velocity, n)
		}
		s.slideAlongSurface(st, delta, 1-hit.Time, hit, false, report)
	}
	s.deferRemaining(st, remaining)
}

func (s *Simulator) isValidLanding(hit Hit, up mgl64.Vec3) bool {
	n, ok := safeNormal(hit.Normal)
	return ok && s.walkable(n, up)
}

func (s *Simulator) land(st *State, hit Hit, report *StepReport) {
	report.Landed = true
	report.LandingHit = hit
	s.setMode(st, Walking{Skiing: st.SkiRequested}, report)
	st.Floor = FloorResult{Walkable: true, Hit: hit}
}

func (s *Simulator) airControl(in Input, up mgl64.Vec3) mgl64.Vec3 {
	if s.Config.AirControl <= 0 {
		return mgl64.Vec3{}
	}
	return s.constrainInput(in.Acceleration, up).Mul(s.Config.MaxAcceleration * s.Config.AirControl)
}
