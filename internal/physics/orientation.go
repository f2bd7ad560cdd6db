package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// GravityAxisAngle returns the axis and angle in degrees that rotate Down
// onto the direction of gravity. ok is false for a zero vector.
//
// When gravity is parallel or anti-parallel to Down the cross product
// vanishes and Forward is used as the axis.
func GravityAxisAngle(gravity mgl64.Vec3) (axis mgl64.Vec3, degrees float64, ok bool) {
	dir, ok := safeNormal(gravity)
	if !ok {
		return mgl64.Vec3{}, 0, false
	}
	cross := Down.Cross(dir)
	sin := cross.Len()
	cos := Down.Dot(dir)
	if sin < axisTolerance {
		axis = Forward
	} else {
		axis = cross.Mul(1 / sin)
	}
	return axis, mgl64.RadToDeg(math.Atan2(sin, cos)), true
}

// OrientationFromGravity returns the absolute orientation aligning Down with
// gravity. A zero gravity vector returns current unchanged.
func OrientationFromGravity(gravity mgl64.Vec3, current mgl64.Quat) mgl64.Quat {
	axis, degrees, ok := GravityAxisAngle(gravity)
	if !ok {
		return current
	}
	return mgl64.QuatRotate(mgl64.DegToRad(degrees), axis).Normalize()
}

// upAxis is the body's up direction: opposite gravity, or the orientation's
// local up when there is no gravity.
func upAxis(st *State) mgl64.Vec3 {
	if dir, ok := safeNormal(st.Gravity); ok {
		return dir.Mul(-1)
	}
	if up, ok := safeNormal(st.Orientation.Rotate(Up)); ok {
		return up
	}
	return Up
}
