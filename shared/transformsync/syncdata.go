// Package transformsync replicates an entity's pose from its authoritative
// owner to observers.
//
// The owner encodes its live transform into a fixed 28-byte payload at a
// nominal interval. Observers decode each payload into an immutable SyncData
// and move their local transform toward it with one of several strategies,
// tolerating loss, jitter and reordering. Only the very first snapshot is
// applied instantly.
package transformsync

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SyncData is one authoritative pose sample. Values are never modified after
// creation; newer samples replace older ones.
type SyncData struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat

	// Units and degrees per second the sender moved since its previous
	// sample. +Inf means "snap, do not interpolate".
	VelocityMagnitude        float64
	AngularVelocityMagnitude float64

	// Sender clock at capture, in seconds.
	RemoteTimestamp float64
}

func snapData(pos mgl64.Vec3, rot mgl64.Quat, ts float64) SyncData {
	return SyncData{
		Position:                 pos,
		Rotation:                 rot,
		VelocityMagnitude:        math.Inf(1),
		AngularVelocityMagnitude: math.Inf(1),
		RemoteTimestamp:          ts,
	}
}

// Snaps reports whether the sample should be applied without smoothing.
func (d SyncData) Snaps() bool {
	return math.IsInf(d.VelocityMagnitude, 1) || math.IsInf(d.AngularVelocityMagnitude, 1)
}

// Transform is the live pose of an entity.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform returns a transform at pos with identity rotation.
func NewTransform(pos mgl64.Vec3) *Transform {
	return &Transform{Position: pos, Rotation: mgl64.QuatIdent()}
}
