package components

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/yohamta/donburi"
)

// DebugMarkerData is one visualized snapshot. Alpha fades from 1 to 0 over
// the marker's lifetime.
type DebugMarkerData struct {
	Owner     uint
	Position  mgl64.Vec3
	Rotation  mgl64.Quat
	Scale     float64
	Timestamp float64
	Alpha     float64
	Fade      *gween.Tween
}

var DebugMarker = donburi.NewComponentType[DebugMarkerData]()
