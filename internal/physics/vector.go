package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func safeNormal(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l < smallNumber || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / l), true
}

// projectOnPlane removes the component of v along the unit normal n.
func projectOnPlane(v, n mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(n.Mul(v.Dot(n)))
}

func clampLength(v mgl64.Vec3, max float64) mgl64.Vec3 {
	if max <= 0 {
		return v
	}
	if l := v.Len(); l > max {
		return v.Mul(max / l)
	}
	return v
}

// perpendicularBasis returns two unit vectors spanning the plane orthogonal
// to the unit vector n.
func perpendicularBasis(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	a, ok := safeNormal(n.Cross(Forward))
	if !ok {
		a, _ = safeNormal(n.Cross(Up))
	}
	return a, n.Cross(a)
}
