package archetypes

import (
	"testing"

	"github.com/automoto/openworld-mp/components"
	"github.com/automoto/openworld-mp/shared/netcomponents"
	"github.com/automoto/openworld-mp/shared/netconfig"
	"github.com/automoto/openworld-mp/tags"
	"github.com/stretchr/testify/assert"
	"github.com/yohamta/donburi"
)

func TestSpawnByKind(t *testing.T) {
	world := donburi.NewWorld()

	ped := ForKind(netconfig.KindPed).Spawn(world)
	assert.True(t, ped.HasComponent(tags.Ped))
	assert.True(t, ped.HasComponent(netcomponents.NetTransform))
	assert.True(t, ped.HasComponent(components.TransformSync))
	assert.False(t, ped.HasComponent(components.Path))

	car := ForKind(netconfig.KindVehicle).Spawn(world, components.Path)
	assert.True(t, car.HasComponent(tags.Vehicle))
	assert.True(t, car.HasComponent(components.Path))

	// Extra components on one spawn must not leak into the archetype.
	again := Vehicle.Spawn(world)
	assert.False(t, again.HasComponent(components.Path))
	assert.Equal(t, 3, world.Len())
}
