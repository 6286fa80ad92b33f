// Package leveldata provides TMX zone parsing shared between client and server.
// It has no dependencies on donburi or resolv, only plain data.
//
// Zones are authored top-down: the TMX x axis is world X and the TMX y axis is
// world Z. Heights are not represented; everything sits on the ground plane.
package leveldata

// Zone holds the collision-relevant data parsed from one TMX zone file.
type Zone struct {
	Name      string
	Obstacles []Obstacle
	Spawns    []Spawn
	Width     float64 // along X
	Depth     float64 // along Z
	TileSize  int
}

// Obstacle is a solid footprint on the ground plane.
type Obstacle struct {
	X, Z, W, D float64
	Surface    string // tile "surface" property, "" for plain walls
}

// Spawn is an entity spawn location.
type Spawn struct {
	X, Z  float64
	Yaw   float64 // degrees
	Kind  string  // "ped" or "vehicle"
	Index int
}

// SpawnsOf returns the spawns of the given kind in index order.
func (z *Zone) SpawnsOf(kind string) []Spawn {
	var out []Spawn
	for _, s := range z.Spawns {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}
