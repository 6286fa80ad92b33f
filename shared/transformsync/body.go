package transformsync

import "github.com/go-gl/mathgl/mgl64"

// Body is the capability through which a synchronizer moves its entity.
type Body interface {
	MoveTo(pos mgl64.Vec3)
	MoveRotationTo(rot mgl64.Quat)
}

// DirectBody writes straight into a Transform.
type DirectBody struct {
	T *Transform
}

func (b DirectBody) MoveTo(pos mgl64.Vec3) {
	b.T.Position = pos
}

func (b DirectBody) MoveRotationTo(rot mgl64.Quat) {
	b.T.Rotation = rot
}

// Marker receives each accepted snapshot when visualization is enabled.
type Marker interface {
	Mark(d SyncData)
}
