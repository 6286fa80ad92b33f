package core

import (
	"fmt"
	"os"

	"github.com/automoto/openworld-mp/shared/leveldata"
	"github.com/automoto/openworld-mp/shared/physics"
	"github.com/solarlune/resolv"
)

// ServerZone holds the server's collision space and spawn data for a zone.
type ServerZone struct {
	*leveldata.Zone
	Space *resolv.Space
}

// NewServerZone builds a resolv.Space from parsed zone data.
func NewServerZone(zone *leveldata.Zone) *ServerZone {
	return &ServerZone{
		Zone:  zone,
		Space: physics.NewZoneSpace(zone),
	}
}

// LoadServerZone loads zones/<name>.tmx from assetsDir, or the first zone in
// name order when name is empty.
func LoadServerZone(assetsDir, name string) (*ServerZone, error) {
	zones, names, err := leveldata.LoadAllZones(os.DirFS(assetsDir), "zones")
	if err != nil {
		return nil, fmt.Errorf("load zones: %w", err)
	}
	if name == "" {
		name = names[0]
	}
	zone, ok := zones[name]
	if !ok {
		return nil, fmt.Errorf("zone %q not found (have %v)", name, names)
	}
	return NewServerZone(zone), nil
}
