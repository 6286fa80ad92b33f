// Package physics maps the ground plane of a zone onto a resolv space so that
// replicated rigid bodies take part in collision queries.
//
// resolv works in 2D. World X maps to resolv X and world Z maps to resolv Y;
// world Y (height) is carried on the transform only.
package physics

import (
	"log"
	"math"

	"github.com/automoto/openworld-mp/shared/leveldata"
	"github.com/automoto/openworld-mp/shared/transformsync"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
)

const (
	TagSolid   = "solid"
	TagWater   = "water"
	TagPed     = "ped"
	TagVehicle = "vehicle"
)

const defaultCellSize = 16

// NewZoneSpace builds a resolv space holding one static object per obstacle.
func NewZoneSpace(zone *leveldata.Zone) *resolv.Space {
	cell := zone.TileSize
	if cell <= 0 {
		cell = defaultCellSize
	}
	space := resolv.NewSpace(int(zone.Width), int(zone.Depth), cell, cell)

	for _, o := range zone.Obstacles {
		var obj *resolv.Object
		switch o.Surface {
		case TagWater:
			obj = resolv.NewObject(o.X, o.Z, o.W, o.D, TagSolid, TagWater)
		default:
			obj = resolv.NewObject(o.X, o.Z, o.W, o.D, TagSolid)
		}
		obj.SetShape(resolv.NewRectangle(0, 0, o.W, o.D))
		space.Add(obj)
	}

	log.Printf("[physics] zone %s: %d obstacles, %d spawns, %.0fx%.0f",
		zone.Name, len(zone.Obstacles), len(zone.Spawns), zone.Width, zone.Depth)
	return space
}

// Body is a transformsync.Body backed by a resolv object. The object is
// centred on the transform's X/Z position.
type Body struct {
	Object *resolv.Object
	T      *transformsync.Transform
}

var _ transformsync.Body = (*Body)(nil)

// NewBody creates a w×d footprint at the transform's position and adds it to
// space.
func NewBody(space *resolv.Space, t *transformsync.Transform, w, d float64, tags ...string) *Body {
	obj := resolv.NewObject(t.Position.X()-w/2, t.Position.Z()-d/2, w, d, tags...)
	obj.SetShape(resolv.NewRectangle(0, 0, w, d))
	space.Add(obj)
	return &Body{Object: obj, T: t}
}

// MoveTo places the body at pos without collision response. Replicated poses
// are authoritative.
func (b *Body) MoveTo(pos mgl64.Vec3) {
	b.Object.X = pos.X() - b.Object.W/2
	b.Object.Y = pos.Z() - b.Object.H/2
	b.Object.Update()
	b.T.Position = pos
}

func (b *Body) MoveRotationTo(rot mgl64.Quat) {
	b.T.Rotation = rot
}

// Slide returns how far the body can travel along (dx, dz) before touching a
// solid, resolving each axis separately.
func (b *Body) Slide(dx, dz float64) (float64, float64) {
	if dx != 0 {
		if check := b.Object.Check(dx, 0, TagSolid); check != nil {
			if solids := check.ObjectsByTags(TagSolid); len(solids) > 0 {
				// Check reports by cell, so a solid may still be out of reach.
				if c := check.ContactWithObject(solids[0]).X(); math.Abs(c) < math.Abs(dx) {
					dx = c
				}
			}
		}
	}
	if dz != 0 {
		if check := b.Object.Check(dx, dz, TagSolid); check != nil {
			if solids := check.ObjectsByTags(TagSolid); len(solids) > 0 {
				if c := check.ContactWithObject(solids[0]).Y(); math.Abs(c) < math.Abs(dz) {
					dz = c
				}
			}
		}
	}
	return dx, dz
}

// Remove takes the body out of space.
func (b *Body) Remove(space *resolv.Space) {
	space.Remove(b.Object)
}
