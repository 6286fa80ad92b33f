package netcomponents

import (
	"github.com/automoto/openworld-mp/shared/netconfig"
	"github.com/yohamta/donburi"
)

type NetEntityData struct {
	Kind  netconfig.EntityKind
	Rigid bool // replicate through a collision body
	Name  string
}

var NetEntity = donburi.NewComponentType[NetEntityData]()
