package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	geometryEpsilon = 1e-9
	// overlapTolerance is how far a sphere may sink into a surface before
	// it counts as overlapping.
	overlapTolerance  = 1e-6
	bisectIterations  = 40
	maxMarchSteps     = 4096
	probeReach        = 1.0
	sampleRadiusRatio = 0.25
)

// contact is the nearest surface point to a query point. dist is negative
// when the query point is inside the solid.
type contact struct {
	point  mgl64.Vec3
	normal mgl64.Vec3
	dist   float64
}

type collider interface {
	closest(p mgl64.Vec3, reach float64) (contact, bool)
	trace(origin, dir mgl64.Vec3, length float64) (float64, mgl64.Vec3, bool)
}

// Box is an axis-aligned solid.
type Box struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

func (b Box) Contains(p mgl64.Vec3) bool {
	for i := range 3 {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

func (b Box) closest(p mgl64.Vec3, _ float64) (contact, bool) {
	var q mgl64.Vec3
	for i := range 3 {
		q[i] = math.Max(b.Min[i], math.Min(p[i], b.Max[i]))
	}
	if d := p.Sub(q); d.LenSqr() > geometryEpsilon*geometryEpsilon {
		dist := d.Len()
		return contact{point: q, normal: d.Mul(1 / dist), dist: dist}, true
	}

	// Inside: push out through the nearest face.
	best := math.Inf(1)
	var c contact
	for i := range 3 {
		if depth := p[i] - b.Min[i]; depth < best {
			best = depth
			c.point, c.normal = p, mgl64.Vec3{}
			c.point[i], c.normal[i] = b.Min[i], -1
		}
		if depth := b.Max[i] - p[i]; depth < best {
			best = depth
			c.point, c.normal = p, mgl64.Vec3{}
			c.point[i], c.normal[i] = b.Max[i], 1
		}
	}
	c.dist = -best
	return c, true
}

func (b Box) trace(origin, dir mgl64.Vec3, length float64) (float64, mgl64.Vec3, bool) {
	if b.Contains(origin) {
		return 0, mgl64.Vec3{}, false
	}
	tMin, _, ok := raySlab(origin, dir, b.Min, b.Max)
	if !ok || tMin > length {
		return 0, mgl64.Vec3{}, false
	}
	p := origin.Add(dir.Mul(tMin))
	c, _ := b.closest(p.Sub(dir.Mul(geometryEpsilon*10)), 0)
	return tMin, c.normal, true
}

// raySlab intersects a ray with an axis-aligned box and returns the entry
// and exit distances. A ray starting inside reports an entry of zero.
func raySlab(origin, dir, lo, hi mgl64.Vec3) (float64, float64, bool) {
	tMin, tMax := 0.0, math.Inf(1)
	for i := range 3 {
		if math.Abs(dir[i]) < geometryEpsilon {
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return 0, 0, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1, t2 := (lo[i]-origin[i])*inv, (hi[i]-origin[i])*inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin, tMax = math.Max(tMin, t1), math.Min(tMax, t2)
		if tMin > tMax {
			return 0, 0, false
		}
	}
	return tMin, tMax, true
}

func faceNormal(a, b, c mgl64.Vec3) mgl64.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Len(); l > geometryEpsilon {
		return n.Mul(1 / l)
	}
	return mgl64.Vec3{0, 0, 1}
}

// closestOnTriangle returns the point of triangle abc nearest to p, after
// Ericson, Real-Time Collision Detection, 5.1.5.
func closestOnTriangle(p, a, b, c mgl64.Vec3) mgl64.Vec3 {
	ab, ac, ap := b.Sub(a), c.Sub(a), p.Sub(a)
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := p.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3)))
	}
	cp := p.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6)))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return b.Add(c.Sub(b).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}
	denom := 1 / (va + vb + vc)
	return a.Add(ab.Mul(vb * denom)).Add(ac.Mul(vc * denom))
}

// closestOnSegment returns the point of segment ab nearest to p.
func closestOnSegment(p, a, b mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	l := ab.LenSqr()
	if l < geometryEpsilon {
		return a
	}
	s := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l))
	return a.Add(ab.Mul(s))
}

// raySphere returns the first non-negative distance at which the ray
// enters the sphere.
func raySphere(origin, dir, center mgl64.Vec3, radius float64) (float64, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.LenSqr() - radius*radius
	if c <= 0 {
		return 0, false
	}
	h := b*b - c
	if h < 0 || b > 0 {
		return 0, false
	}
	return -b - math.Sqrt(h), true
}

// rayCapsule intersects a ray with the capsule around segment ab. The
// capsule is the union of its cylinder and two end spheres.
func rayCapsule(origin, dir, a, b mgl64.Vec3, radius float64) (float64, bool) {
	best, hit := math.Inf(1), false
	for _, c := range []mgl64.Vec3{a, b} {
		if s, ok := raySphere(origin, dir, c, radius); ok && s < best {
			best, hit = s, true
		}
	}

	ba := b.Sub(a)
	baba := ba.LenSqr()
	if baba < geometryEpsilon {
		return best, hit
	}
	oa := origin.Sub(a)
	bard, baoa := ba.Dot(dir), ba.Dot(oa)
	k2 := baba - bard*bard
	if k2 < geometryEpsilon {
		return best, hit
	}
	k1 := baba*oa.Dot(dir) - baoa*bard
	k0 := baba*oa.LenSqr() - baoa*baoa - radius*radius*baba
	h := k1*k1 - k2*k0
	if h < 0 {
		return best, hit
	}
	s := (-k1 - math.Sqrt(h)) / k2
	if y := baoa + s*bard; s >= 0 && y > 0 && y < baba && s < best {
		best, hit = s, true
	}
	return best, hit
}
