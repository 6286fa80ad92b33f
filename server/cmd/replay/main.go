package main

import (
	"context"
	"flag"
	"log"

	"github.com/automoto/openworld-mp/config"
	"github.com/automoto/openworld-mp/server/journal"
	"github.com/automoto/openworld-mp/shared/netconfig"
)

func main() {
	path := flag.String("journal", "", "SQLite journal written by the server")
	params := flag.String("params", "", "YAML synchronizer parameters")
	mode := flag.String("mode", "", "Override clientUpdateType (constant_velocity, lerp, slerp, snapshot_interpolation)")
	fps := flag.Int("fps", 60, "Observer frames per second")
	flag.Parse()

	if *path == "" {
		log.Fatal("-journal is required")
	}

	p := config.Sync
	if *params != "" {
		var err error
		if p, err = config.LoadParameters(*params, p); err != nil {
			log.Fatalf("Failed to load parameters: %v", err)
		}
	}
	if *mode != "" {
		kind, err := netconfig.ParseClientUpdateType(*mode)
		if err != nil {
			log.Fatalf("Invalid mode: %v", err)
		}
		p.ClientUpdateType = kind
	}

	j, err := journal.Open(*path)
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}
	defer j.Close()

	results, err := journal.Play(context.Background(), j, p, 1/float64(*fps))
	if err != nil {
		log.Fatalf("Playback failed: %v", err)
	}

	log.Printf("[journal] %s playback of %d entities", p.ClientUpdateType, len(results))
	for _, r := range results {
		log.Printf("[journal] entity %d: %d updates, %d dropped, at %.2f,%.2f,%.2f (error %.4f, %.2f deg)",
			r.NetworkID, r.Updates, r.Dropped, r.Position.X(), r.Position.Y(), r.Position.Z(), r.Distance, r.Degrees)
	}
}
