package tags

import "github.com/yohamta/donburi"

var (
	Ped     = donburi.NewTag().SetName("Ped")
	Vehicle = donburi.NewTag().SetName("Vehicle")
	Marker  = donburi.NewTag().SetName("Marker")
	Replica = donburi.NewTag().SetName("Replica")
)
