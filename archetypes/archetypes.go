package archetypes

import (
	"github.com/automoto/openworld-mp/components"
	"github.com/automoto/openworld-mp/shared/netcomponents"
	"github.com/automoto/openworld-mp/shared/netconfig"
	"github.com/automoto/openworld-mp/tags"
	"github.com/yohamta/donburi"
)

var (
	Ped = newArchetype(
		tags.Ped,
		netcomponents.NetTransform,
		netcomponents.NetEntity,
		components.TransformSync,
	)
	Vehicle = newArchetype(
		tags.Vehicle,
		netcomponents.NetTransform,
		netcomponents.NetEntity,
		components.TransformSync,
	)
	Marker = newArchetype(
		tags.Marker,
		components.DebugMarker,
	)
)

// ForKind returns the archetype of a replicated entity kind.
func ForKind(kind netconfig.EntityKind) *archetype {
	if kind == netconfig.KindVehicle {
		return Vehicle
	}
	return Ped
}

type archetype struct {
	components []donburi.IComponentType
}

func newArchetype(cs ...donburi.IComponentType) *archetype {
	return &archetype{
		components: cs,
	}
}

func (a *archetype) Spawn(world donburi.World, cs ...donburi.IComponentType) *donburi.Entry {
	all := make([]donburi.IComponentType, 0, len(a.components)+len(cs))
	all = append(all, a.components...)
	all = append(all, cs...)
	return world.Entry(world.Create(all...))
}
