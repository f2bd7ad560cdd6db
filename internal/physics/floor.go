package physics

import "github.com/go-gl/mathgl/mgl64"

type FloorResult struct {
	Walkable bool
	Distance float64
	Hit      Hit
}

// findFloor sweeps the capsule along gravity and returns the first walkable
// blocking hit.
func (s *Simulator) findFloor(st *State, up mgl64.Vec3) FloorResult {
	probe := s.Config.FloorProbeDistance
	hits := s.Queries.Sweep(st.Position, up.Mul(-probe), s.Config.Capsule, st.Orientation)
	for _, h := range hits {
		if !h.Blocking {
			continue
		}
		if s.walkable(h.Normal, up) {
			return FloorResult{Walkable: true, Distance: h.Time * probe, Hit: h}
		}
	}
	return FloorResult{}
}

func (s *Simulator) snapToFloor(st *State, floor FloorResult, up mgl64.Vec3) {
	if !floor.Walkable || floor.Distance <= floorSnapTolerance {
		return
	}
	s.moveAndCollide(st, up.Mul(-floor.Distance), st.Orientation)
}

// groundMovementDelta bends a horizontal delta onto a walkable ramp so the
// body follows the slope instead of pushing into it.
func (s *Simulator) groundMovementDelta(delta mgl64.Vec3, floor Hit, up mgl64.Vec3) mgl64.Vec3 {
	n := floor.Normal
	nUp := n.Dot(up)
	if nUp >= 1-rampTolerance || nUp <= rampTolerance || !s.walkable(n, up) {
		return delta
	}
	ramp := delta.Sub(up.Mul(n.Dot(delta) / nUp))
	if s.Config.MaintainHorizontalGroundVelocity {
		return ramp
	}
	dir, ok := safeNormal(ramp)
	if !ok {
		return delta
	}
	return dir.Mul(delta.Len())
}

// moveAlongFloor moves a walking body by delta, following ramps, stepping
// over low obstacles and sliding along walls. It reports whether a step-up
// happened.
func (s *Simulator) moveAlongFloor(st *State, delta mgl64.Vec3, up mgl64.Vec3, report *StepReport) bool {
	if delta.LenSqr() < smallNumber {
		return false
	}
	if st.Floor.Walkable {
		delta = s.groundMovementDelta(delta, st.Floor.Hit, up)
	}

	hit := s.moveWithRecovery(st, delta, report)
	if !hit.Blocking {
		return false
	}
	remaining := 1 - hit.Time

	if hit.Time > 0 && s.walkable(hit.Normal, up) {
		// First contact is a ramp: spend the rest of the move along it.
		rampDelta := s.groundMovementDelta(delta.Mul(remaining), hit, up)
		hit = s.moveWithRecovery(st, rampDelta, report)
		if !hit.Blocking {
			return false
		}
		remaining *= 1 - hit.Time
		delta = rampDelta
	}

	if s.walkable(hit.Normal, up) {
		s.slideAlongSurface(st, delta, remaining, hit, true, report)
		return false
	}
	if s.stepUp(st, up, delta.Mul(remaining), hit, report) {
		return true
	}
	s.slideAlongSurface(st, delta, remaining, hit, true, report)
	return false
}

func (s *Simulator) canStepUp(st *State, hit Hit, up mgl64.Vec3) bool {
	if s.Config.MaxStepHeight <= 0 || hit.StartPenetrating {
		return false
	}
	feet := st.Position.Sub(up.Mul(s.Config.Capsule.HalfHeight))
	height := hit.ImpactPoint.Sub(feet).Dot(up)
	return height <= s.Config.MaxStepHeight
}

// stepUp tries rise, advance, drop. Any failure restores the start
// position and returns false.
func (s *Simulator) stepUp(st *State, up, delta mgl64.Vec3, hit Hit, report *StepReport) bool {
	if !s.canStepUp(st, hit, up) || delta.LenSqr() < smallNumber {
		return false
	}
	start := st.Position
	rot := st.Orientation
	fail := func() bool {
		st.Position = start
		return false
	}

	rise := s.moveAndCollide(st, up.Mul(s.Config.MaxStepHeight), rot)
	if rise.StartPenetrating {
		return fail()
	}
	advance := s.moveAndCollide(st, delta, rot)
	if advance.StartPenetrating || (advance.Blocking && advance.Time <= 0) {
		return fail()
	}
	drop := s.moveAndCollide(st, up.Mul(-(s.Config.MaxStepHeight + stepDownSlack)), rot)
	if drop.StartPenetrating {
		return fail()
	}
	if drop.Blocking {
		if !s.walkable(drop.Normal, up) {
			return fail()
		}
		if st.Position.Sub(start).Dot(up) > s.Config.MaxStepHeight {
			return fail()
		}
	}
	report.SteppedUp = true
	return true
}
