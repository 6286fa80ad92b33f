package systems

import (
	"github.com/automoto/openworld-mp/archetypes"
	"github.com/automoto/openworld-mp/components"
	"github.com/automoto/openworld-mp/shared/transformsync"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"
)

// Visualizer keeps the most recent received snapshots of each entity as
// marker entities. Each owner has a ring of at most max markers; the oldest is
// removed when a new one arrives. With a positive lifetime markers also fade
// out and are removed once invisible.
type Visualizer struct {
	world    donburi.World
	max      int
	scale    float64
	lifetime float32
	rings    map[uint][]donburi.Entity
}

func NewVisualizer(world donburi.World, max int, scale, lifetime float64) *Visualizer {
	if max < 1 {
		max = 1
	}
	return &Visualizer{
		world:    world,
		max:      max,
		scale:    scale,
		lifetime: float32(lifetime),
		rings:    make(map[uint][]donburi.Entity),
	}
}

// For returns the marker hook for one entity's synchronizer.
func (v *Visualizer) For(owner uint) transformsync.Marker {
	return ownerMarker{v: v, owner: owner}
}

type ownerMarker struct {
	v     *Visualizer
	owner uint
}

func (m ownerMarker) Mark(d transformsync.SyncData) {
	m.v.add(m.owner, d)
}

func (v *Visualizer) add(owner uint, d transformsync.SyncData) {
	ring := v.rings[owner]
	for len(ring) >= v.max {
		v.remove(ring[0])
		ring = ring[1:]
	}

	e := archetypes.Marker.Spawn(v.world)
	marker := components.DebugMarkerData{
		Owner:     owner,
		Position:  d.Position,
		Rotation:  d.Rotation,
		Scale:     v.scale,
		Timestamp: d.RemoteTimestamp,
		Alpha:     1,
	}
	if v.lifetime > 0 {
		marker.Fade = gween.New(1, 0, v.lifetime, ease.InQuad)
	}
	components.DebugMarker.SetValue(e, marker)
	v.rings[owner] = append(ring, e.Entity())
}

func (v *Visualizer) remove(ent donburi.Entity) {
	if v.world.Valid(ent) {
		v.world.Remove(ent)
	}
}

// LateTick fades markers and removes the ones that have disappeared.
func (v *Visualizer) LateTick(dt float64) error {
	for owner, ring := range v.rings {
		kept := ring[:0]
		for _, ent := range ring {
			if !v.world.Valid(ent) {
				continue
			}
			m := components.DebugMarker.Get(v.world.Entry(ent))
			if m.Fade != nil {
				alpha, done := m.Fade.Update(float32(dt))
				m.Alpha = float64(alpha)
				if done {
					v.world.Remove(ent)
					continue
				}
			}
			kept = append(kept, ent)
		}
		if len(kept) == 0 {
			delete(v.rings, owner)
		} else {
			v.rings[owner] = kept
		}
	}
	return nil
}

// Forget removes every marker of owner.
func (v *Visualizer) Forget(owner uint) {
	for _, ent := range v.rings[owner] {
		v.remove(ent)
	}
	delete(v.rings, owner)
}

// Markers returns owner's markers, oldest first.
func (v *Visualizer) Markers(owner uint) []components.DebugMarkerData {
	var out []components.DebugMarkerData
	for _, ent := range v.rings[owner] {
		if v.world.Valid(ent) {
			out = append(out, *components.DebugMarker.Get(v.world.Entry(ent)))
		}
	}
	return out
}
