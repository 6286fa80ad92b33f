package netcomponents

import (
	"github.com/automoto/openworld-mp/shared/gamemath"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// NetTransformData is the coarse pose replicated through world snapshots. The
// precise stream travels as TransformUpdate messages; this copy lets new
// observers place an entity before its first update arrives.
type NetTransformData struct {
	X, Y, Z          float64
	Pitch, Yaw, Roll float64 // degrees
}

var NetTransform = donburi.NewComponentType[NetTransformData]()

// NewNetTransform captures a pose.
func NewNetTransform(pos mgl64.Vec3, rot mgl64.Quat) NetTransformData {
	e := gamemath.QuatToEuler(rot)
	return NetTransformData{
		X: pos.X(), Y: pos.Y(), Z: pos.Z(),
		Pitch: e.X(), Yaw: e.Y(), Roll: e.Z(),
	}
}

// Pose converts back to position and rotation.
func (d NetTransformData) Pose() (mgl64.Vec3, mgl64.Quat) {
	return mgl64.Vec3{d.X, d.Y, d.Z}, gamemath.EulerToQuat(mgl64.Vec3{d.Pitch, d.Yaw, d.Roll})
}

// LerpNetTransform interpolates between two poses, taking the short way
// around for each angle.
func LerpNetTransform(from, to NetTransformData, t float64) *NetTransformData {
	return &NetTransformData{
		X:     from.X + (to.X-from.X)*t,
		Y:     from.Y + (to.Y-from.Y)*t,
		Z:     from.Z + (to.Z-from.Z)*t,
		Pitch: lerpAngle(from.Pitch, to.Pitch, t),
		Yaw:   lerpAngle(from.Yaw, to.Yaw, t),
		Roll:  lerpAngle(from.Roll, to.Roll, t),
	}
}

func lerpAngle(a, b, t float64) float64 {
	d := gamemath.NormalizeDegrees(b - a)
	if d > 180 {
		d -= 360
	}
	return gamemath.NormalizeDegrees(a + d*t)
}
