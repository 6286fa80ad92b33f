package config

import (
	"github.com/automoto/openworld-mp/shared/netconfig"
	"github.com/automoto/openworld-mp/shared/transformsync"
)

// ServerConfig contains the dedicated server settings
type ServerConfig struct {
	Name        string
	Port        uint
	TickRate    int
	ZonesDir    string // directory holding zones/*.tmx
	Zone        string // zone to host, "" for the first one
	ParamsPath  string // optional YAML synchronizer parameters
	JournalPath string // optional SQLite journal of sent updates

	PedSpeed     float64 // units per second along patrol loops
	VehicleSpeed float64
	TurnRate     float64 // degrees per second
	StuckTimeout float64 // seconds before a blocked actor respawns, 0 never
}

// ClientConfig contains the headless observer settings
type ClientConfig struct {
	Address          string
	Name             string
	FrameRate        int
	ParamsPath       string
	TimeSyncInterval float64 // seconds between clock sync requests
	ReportInterval   float64 // seconds between diagnostics lines
	MarkerLifetime   float64 // seconds a snapshot marker stays visible, 0 keeps them
}

var Sync transformsync.Parameters
var Server ServerConfig
var Client ClientConfig

func init() {
	Sync = transformsync.DefaultParameters()

	Server = ServerConfig{
		Name:         "openworld",
		Port:         netconfig.DefaultPort,
		TickRate:     netconfig.DefaultTickRate,
		ZonesDir:     "assets",
		PedSpeed:     24,
		VehicleSpeed: 64,
		TurnRate:     270,
		StuckTimeout: 3,
	}

	Client = ClientConfig{
		Address:          "localhost:7373",
		Name:             "observer",
		FrameRate:        60,
		TimeSyncInterval: 2,
		ReportInterval:   5,
		MarkerLifetime:   1,
	}
}
