package world

import (
	"math"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/gravshift/internal/config"
	"github.com/Versifine/gravshift/internal/physics"
)

// Actor is something line traces can hit, such as an enemy. Actors never
// block sweeps.
type Actor interface {
	Name() string
	Bounds() (center mgl64.Vec3, shape physics.Shape)
}

// World answers collision queries against a terrain, a set of boxes and
// the registered actors. It is safe for concurrent use.
type World struct {
	mu      sync.RWMutex
	terrain *Terrain
	boxes   []Box
	actors  []Actor
}

func New(terrain *Terrain, boxes ...Box) *World {
	return &World{terrain: terrain, boxes: boxes}
}

// FromConfig builds the terrain and boxes described by cfg.
func FromConfig(cfg *config.Config) *World {
	w := New(NewTerrain(cfg.Terrain))
	for _, b := range cfg.Boxes {
		w.AddBox(Box{Min: b.Min, Max: b.Max})
	}
	return w
}

func (w *World) Terrain() *Terrain {
	return w.terrain
}

func (w *World) AddBox(b Box) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.boxes = append(w.boxes, b)
}

func (w *World) AddActor(a Actor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.actors = append(w.actors, a)
}

func (w *World) RemoveActor(a Actor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.actors = slices.DeleteFunc(w.actors, func(x Actor) bool { return x == a })
}

func (w *World) Actors() []Actor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.actors)
}

func (w *World) colliders() []collider {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]collider, 0, len(w.boxes)+1)
	if w.terrain != nil {
		out = append(out, w.terrain)
	}
	for _, b := range w.boxes {
		out = append(out, b)
	}
	return out
}

// sphereCenters spreads spheres of the capsule radius along its axis so
// that neighbours are at most one radius apart.
func sphereCenters(origin mgl64.Vec3, shape physics.Shape, rot mgl64.Quat) []mgl64.Vec3 {
	half := shape.HalfHeight - shape.Radius
	if half <= geometryEpsilon || shape.Radius <= 0 {
		return []mgl64.Vec3{origin}
	}
	axis := rot.Rotate(physics.Up)
	n := int(math.Ceil(2*half/shape.Radius)) + 1
	centers := make([]mgl64.Vec3, n)
	for i := range centers {
		s := -half + 2*half*float64(i)/float64(n-1)
		centers[i] = origin.Add(axis.Mul(s))
	}
	return centers
}

// Sweep moves the capsule from origin by delta and reports one hit per
// collider it touches, ordered by time.
func (w *World) Sweep(origin, delta mgl64.Vec3, shape physics.Shape, rot mgl64.Quat) []physics.Hit {
	centers := sphereCenters(origin, shape, rot)
	var hits []physics.Hit
	for _, c := range w.colliders() {
		if hit, ok := sweepCollider(c, origin, centers, delta, shape.Radius); ok {
			hits = append(hits, hit)
		}
	}
	slices.SortStableFunc(hits, func(a, b physics.Hit) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	return hits
}

// gap returns the smallest clearance between the spheres at offset and c,
// with the contact of the sphere that achieves it.
func gap(c collider, centers []mgl64.Vec3, offset mgl64.Vec3, radius float64) (float64, contact, int) {
	best, bestIdx := probeReach, -1
	var bestContact contact
	for i, center := range centers {
		ct, ok := c.closest(center.Add(offset), radius+probeReach)
		if !ok {
			continue
		}
		if g := ct.dist - radius; bestIdx < 0 || g < best {
			best, bestContact, bestIdx = g, ct, i
		}
	}
	return best, bestContact, bestIdx
}

// sweepCollider uses conservative advancement: it steps by the current
// clearance, or by a fraction of the radius when the clearance is small,
// and bisects once a step ends overlapping.
func sweepCollider(c collider, origin mgl64.Vec3, centers []mgl64.Vec3, delta mgl64.Vec3, radius float64) (physics.Hit, bool) {
	g, ct, idx := gap(c, centers, mgl64.Vec3{}, radius)
	if idx >= 0 && g < -overlapTolerance {
		return physics.Hit{
			Blocking:         true,
			StartPenetrating: true,
			Location:         origin,
			ImpactPoint:      ct.point,
			Normal:           ct.normal,
			PenetrationDepth: -g,
		}, true
	}

	length := delta.Len()
	if length < geometryEpsilon {
		return physics.Hit{}, false
	}
	sample := math.Max(radius*sampleRadiusRatio, 1e-3)

	lo := 0.0
	for range maxMarchSteps {
		hi := math.Min(lo+math.Max(g, sample)/length, 1)
		next, _, idx := gap(c, centers, delta.Mul(hi), radius)
		if idx >= 0 && next < -overlapTolerance {
			a, b := lo, hi
			for range bisectIterations {
				mid := (a + b) / 2
				if m, _, i := gap(c, centers, delta.Mul(mid), radius); i >= 0 && m < -overlapTolerance {
					b = mid
				} else {
					a = mid
				}
			}
			_, ct, _ := gap(c, centers, delta.Mul(a), radius)
			loc := origin.Add(delta.Mul(a))
			return physics.Hit{
				Blocking:    true,
				Time:        a,
				Location:    loc,
				ImpactPoint: ct.point,
				Normal:      ct.normal,
			}, true
		}
		if hi >= 1 {
			return physics.Hit{}, false
		}
		lo, g = hi, next
	}
	return physics.Hit{}, false
}

// LineTrace returns the nearest hit along the ray among the terrain, the
// boxes and the actors. Solids that contain origin are ignored.
func (w *World) LineTrace(origin, direction mgl64.Vec3, length float64) (physics.Hit, bool) {
	dirLen := direction.Len()
	if dirLen < geometryEpsilon || length <= 0 {
		return physics.Hit{}, false
	}
	dir := direction.Mul(1 / dirLen)

	best := physics.Hit{Time: math.Inf(1)}
	found := false
	for _, c := range w.colliders() {
		if s, n, ok := c.trace(origin, dir, length); ok && s/length < best.Time {
			best = traceHit(origin, dir, s, length, n, nil)
			found = true
		}
	}
	for _, a := range w.Actors() {
		center, shape := a.Bounds()
		half := math.Max(shape.HalfHeight-shape.Radius, 0)
		top, bottom := center.Add(physics.Up.Mul(half)), center.Sub(physics.Up.Mul(half))
		s, ok := rayCapsule(origin, dir, bottom, top, shape.Radius)
		if !ok || s > length || s/length >= best.Time {
			continue
		}
		p := origin.Add(dir.Mul(s))
		n := p.Sub(closestOnSegment(p, bottom, top))
		if l := n.Len(); l > geometryEpsilon {
			n = n.Mul(1 / l)
		}
		best = traceHit(origin, dir, s, length, n, a)
		found = true
	}
	return best, found
}

func traceHit(origin, dir mgl64.Vec3, s, length float64, normal mgl64.Vec3, target any) physics.Hit {
	p := origin.Add(dir.Mul(s))
	return physics.Hit{
		Blocking:    true,
		Time:        s / length,
		Location:    p,
		ImpactPoint: p,
		Normal:      normal,
		Target:      target,
	}
}
