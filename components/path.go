package components

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/yohamta/donburi"
)

// PathData drives an authoritative entity around a closed loop of waypoints.
// Progress yields the distance travelled along the loop in segment units:
// 1.5 is halfway between waypoint 1 and waypoint 2.
type PathData struct {
	Waypoints []mgl64.Vec3
	Progress  *gween.Sequence
	TurnRate  float64 // degrees per second
	Blocked   bool
	// BlockedFor is how long the entity has been continuously blocked.
	BlockedFor float64
}

var Path = donburi.NewComponentType[PathData]()
