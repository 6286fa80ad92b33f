package components

import (
	"github.com/automoto/openworld-mp/shared/physics"
	"github.com/automoto/openworld-mp/shared/transformsync"
	"github.com/yohamta/donburi"
)

// TransformSyncData ties an entity to its synchronizer. Body is set only for
// rigid entities living in a collision space.
type TransformSyncData struct {
	Sync *transformsync.Synchronizer
	Body *physics.Body
}

var TransformSync = donburi.NewComponentType[TransformSyncData]()
