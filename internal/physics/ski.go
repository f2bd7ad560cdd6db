package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SkiAcceleration is the velocity change over dt for a body skiing on a
// surface with the given normal. Surfaces within flatThreshold of facing
// straight against gravity add nothing.
func SkiAcceleration(gravityDir, normal mgl64.Vec3, flatThreshold, accel, dt float64) mgl64.Vec3 {
	d := gravityDir.Dot(normal)
	if math.Abs(d) > flatThreshold {
		return mgl64.Vec3{}
	}
	downslope, ok := safeNormal(gravityDir.Sub(normal.Mul(d)))
	if !ok {
		return mgl64.Vec3{}
	}
	return downslope.Mul(accel * dt)
}

func (s *Simulator) skiAcceleration(st *State, dt float64) mgl64.Vec3 {
	g, ok := safeNormal(st.Gravity)
	if !ok {
		return mgl64.Vec3{}
	}
	n, ok := s.sampleSurfaceNormal(st, g)
	if !ok {
		return mgl64.Vec3{}
	}
	return SkiAcceleration(g, n, s.Config.FlatSkiThreshold, s.Config.SkiAcceleration, dt)
}

// sampleSurfaceNormal averages the surface normals found by a center probe
// and a ring of probes around it.
func (s *Simulator) sampleSurfaceNormal(st *State, g mgl64.Vec3) (mgl64.Vec3, bool) {
	count := s.Config.SkiProbeCount
	if count < 1 {
		count = 1
	}
	capsule := s.Config.Capsule
	probe := Shape{Radius: capsule.Radius * 0.25, HalfHeight: capsule.Radius * 0.25}
	reach := g.Mul(capsule.HalfHeight + s.Config.FloorProbeDistance)
	a, b := perpendicularBasis(g)

	var sum mgl64.Vec3
	found := 0
	for i := 0; i < count; i++ {
		origin := st.Position
		if i > 0 {
			angle := 2 * math.Pi * float64(i-1) / float64(count-1)
			offset := a.Mul(math.Cos(angle)).Add(b.Mul(math.Sin(angle)))
			origin = origin.Add(offset.Mul(s.Config.SkiProbeSpread))
		}
		hit, ok := firstBlocking(s.Queries.Sweep(origin, reach, probe, st.Orientation))
		if !ok {
			continue
		}
		if n, ok := safeNormal(hit.Normal); ok {
			sum = sum.Add(n)
			found++
		}
	}
	if found == 0 {
		return mgl64.Vec3{}, false
	}
	return safeNormal(sum)
}
