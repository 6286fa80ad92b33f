package gamemath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// QuatAngle returns the angle in degrees between two orientations. q and -q
// are the same orientation, so the result lies in [0, 180].
func QuatAngle(a, b mgl64.Quat) float64 {
	dot := math.Min(math.Abs(a.Normalize().Dot(b.Normalize())), 1)
	if dot > 1-epsilon {
		return 0
	}
	return mgl64.RadToDeg(2 * math.Acos(dot))
}

// Slerp interpolates along the shortest arc between a and b.
func Slerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	return mgl64.QuatSlerp(a, b, mgl64.Clamp(t, 0, 1))
}

// RotateTowards rotates from toward to by at most maxDegrees and never past it.
func RotateTowards(from, to mgl64.Quat, maxDegrees float64) mgl64.Quat {
	angle := QuatAngle(from, to)
	if angle == 0 || maxDegrees >= angle {
		return to
	}
	return Slerp(from, to, maxDegrees/angle)
}

// EulerToQuat builds a rotation from Euler angles in degrees, applied Z first,
// then X, then Y.
func EulerToQuat(euler mgl64.Vec3) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(euler[0]), axisX)
	qy := mgl64.QuatRotate(mgl64.DegToRad(euler[1]), axisY)
	qz := mgl64.QuatRotate(mgl64.DegToRad(euler[2]), axisZ)
	return qy.Mul(qx).Mul(qz).Normalize()
}

// QuatToEuler is the inverse of EulerToQuat. Angles are normalized to [0, 360).
func QuatToEuler(q mgl64.Quat) mgl64.Vec3 {
	m := q.Normalize().Mat4()

	sx := mgl64.Clamp(-m.At(1, 2), -1, 1)
	var x, y, z float64
	if math.Abs(sx) > 0.99999 {
		// Gimbal lock: fold the roll into the yaw.
		x = math.Copysign(math.Pi/2, sx)
		y = math.Atan2(-m.At(2, 0), m.At(0, 0))
		z = 0
	} else {
		x = math.Asin(sx)
		y = math.Atan2(m.At(0, 2), m.At(2, 2))
		z = math.Atan2(m.At(1, 0), m.At(1, 1))
	}

	return mgl64.Vec3{
		NormalizeDegrees(mgl64.RadToDeg(x)),
		NormalizeDegrees(mgl64.RadToDeg(y)),
		NormalizeDegrees(mgl64.RadToDeg(z)),
	}
}

// NormalizeDegrees wraps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}
