package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/automoto/openworld-mp/config"
	"github.com/automoto/openworld-mp/server/core"
	"github.com/automoto/openworld-mp/server/journal"
	"github.com/automoto/openworld-mp/shared/netconfig"
	"github.com/automoto/openworld-mp/shared/protocol"
)

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}
	cfg := &config.Server

	port := flag.Uint("port", cfg.Port, "Server port")
	tickRate := flag.Int("tickrate", cfg.TickRate, "Server tick rate (updates per second)")
	name := flag.String("name", cfg.Name, "Server display name")
	version := flag.String("version", netconfig.ProtocolVersion, "Required client version (empty = accept any)")
	assets := flag.String("assets", cfg.ZonesDir, "Directory holding zones/*.tmx")
	zoneName := flag.String("zone", cfg.Zone, "Zone to host (empty = first zone)")
	params := flag.String("params", cfg.ParamsPath, "YAML synchronizer parameters")
	journalPath := flag.String("journal", cfg.JournalPath, "SQLite journal of sent updates (empty = off)")
	stuck := flag.Float64("stuck", cfg.StuckTimeout, "Seconds before a blocked actor respawns (0 = never)")
	flag.Parse()

	syncParams := config.Sync
	if *params != "" {
		p, err := config.LoadParameters(*params, syncParams)
		if err != nil {
			log.Fatalf("Failed to load parameters: %v", err)
		}
		syncParams = p
	}

	if err := protocol.RegisterComponents(); err != nil {
		log.Fatalf("Failed to register components: %v", err)
	}

	zone, err := core.LoadServerZone(*assets, *zoneName)
	if err != nil {
		log.Fatalf("Failed to load zone: %v", err)
	}

	opts := core.Options{
		Name:         *name,
		Version:      *version,
		TickRate:     *tickRate,
		Params:       syncParams,
		PedSpeed:     cfg.PedSpeed,
		VehicleSpeed: cfg.VehicleSpeed,
		TurnRate:     cfg.TurnRate,
		StuckTimeout: *stuck,
	}

	var j *journal.Journal
	if *journalPath != "" {
		j, err = journal.Open(*journalPath)
		if err != nil {
			log.Fatalf("Failed to open journal: %v", err)
		}
		opts.Recorder = j
		log.Printf("[journal] recording to %s", *journalPath)
	}

	server, err := core.NewServer(zone, opts)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down server...")
		server.Stop()
		if j != nil {
			if err := j.Close(); err != nil {
				log.Printf("[journal] close: %v", err)
			}
		}
		os.Exit(0)
	}()

	log.Printf("Starting openworld server %q on port %d (zone: %s, tick rate: %d/s, sync: %s every %.3fs)",
		*name, *port, zone.Name, *tickRate, syncParams.ClientUpdateType, syncParams.SyncInterval)
	if err := server.Start(*port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
