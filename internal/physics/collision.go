package physics

import (
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Shape is the vertical capsule swept through the world. The capsule axis
// follows the body orientation's local up.
type Shape struct {
	Radius     float64 `yaml:"radius"`
	HalfHeight float64 `yaml:"half_height"`
}

type Hit struct {
	Blocking         bool
	StartPenetrating bool
	// Time is the fraction of the sweep completed before contact, in [0, 1].
	Time             float64
	Location         mgl64.Vec3
	ImpactPoint      mgl64.Vec3
	Normal           mgl64.Vec3
	PenetrationDepth float64
	// Target is the actor that owns the surface, if any.
	Target any
}

// CollisionQueryService is the host's collision primitive. Sweep returns
// the hits along origin..origin+delta ordered by Time.
type CollisionQueryService interface {
	Sweep(origin, delta mgl64.Vec3, shape Shape, rot mgl64.Quat) []Hit
	LineTrace(origin, direction mgl64.Vec3, length float64) (Hit, bool)
}

func firstBlocking(hits []Hit) (Hit, bool) {
	for _, h := range hits {
		if h.Blocking {
			return h, true
		}
	}
	return Hit{}, false
}

// moveAndCollide applies rot and sweeps the body by delta, stopping just
// short of the first blocking hit. A zero delta is a pure pose update.
func (s *Simulator) moveAndCollide(st *State, delta mgl64.Vec3, rot mgl64.Quat) Hit {
	st.Orientation = rot
	length := delta.Len()
	if length < smallNumber {
		return Hit{Time: 1}
	}
	hit, ok := firstBlocking(s.Queries.Sweep(st.Position, delta, s.Config.Capsule, rot))
	if !ok {
		st.Position = st.Position.Add(delta)
		return Hit{Time: 1}
	}
	if hit.StartPenetrating {
		return hit
	}
	t := math.Max(0, hit.Time-hitBackoff/length)
	st.Position = st.Position.Add(delta.Mul(t))
	return hit
}

// moveWithRecovery is moveAndCollide that pushes the body out of geometry
// it started inside and retries once. A hit still penetrating after the
// retry is reported as a blocking hit at time zero.
func (s *Simulator) moveWithRecovery(st *State, delta mgl64.Vec3, report *StepReport) Hit {
	hit := s.moveAndCollide(st, delta, st.Orientation)
	if !hit.StartPenetrating {
		return hit
	}
	s.resolvePenetration(st, hit, report)
	hit = s.moveAndCollide(st, delta, st.Orientation)
	if hit.StartPenetrating {
		hit.StartPenetrating = false
		hit.Time = 0
	}
	return hit
}

func (s *Simulator) resolvePenetration(st *State, hit Hit, report *StepReport) {
	n, ok := safeNormal(hit.Normal)
	if !ok {
		n = upAxis(st)
	}
	st.Position = st.Position.Add(n.Mul(hit.PenetrationDepth + penetrationPullback))
	report.Penetrations++
	slog.Debug("resolved start-penetrating hit",
		"depth", hit.PenetrationDepth,
		"normal", n,
		"mode", st.Mode.String(),
	)
}

// slideAlongSurface spends the remaining fraction of delta sliding along
// the hit surface, with one extra attempt along the crease when a second
// surface is met. It returns the fraction of the slide that was applied.
func (s *Simulator) slideAlongSurface(st *State, delta mgl64.Vec3, remaining float64, hit Hit, walking bool, report *StepReport) float64 {
	n, ok := safeNormal(hit.Normal)
	if !ok || remaining <= 0 {
		return 0
	}
	if walking {
		up := upAxis(st)
		if nUp := n.Dot(up); (nUp > 0 && !s.walkable(n, up)) || nUp < 0 {
			// Walls and ceilings must not push a walking body up or down.
			if flat, ok := safeNormal(projectOnPlane(n, up)); ok {
				n = flat
			}
		}
	}

	slide := projectOnPlane(delta, n).Mul(remaining)
	if slide.Dot(delta) <= 0 {
		return 0
	}
	second := s.moveWithRecovery(st, slide, report)
	if !second.Blocking {
		return 1
	}

	var next mgl64.Vec3
	if crease, ok := safeNormal(n.Cross(second.Normal)); ok {
		next = crease.Mul(crease.Dot(slide) * (1 - second.Time))
	} else {
		next = projectOnPlane(slide, second.Normal).Mul(1 - second.Time)
	}
	if next.Dot(delta) > 0 {
		s.moveWithRecovery(st, next, report)
	}
	return second.Time
}

func (s *Simulator) walkable(normal, up mgl64.Vec3) bool {
	return normal.Dot(up) > s.Config.WalkableFloorZ
}
