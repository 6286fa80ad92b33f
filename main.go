package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/automoto/openworld-mp/config"
	"github.com/automoto/openworld-mp/network"
	"github.com/automoto/openworld-mp/scheduler"
	"github.com/automoto/openworld-mp/shared/leveldata"
	"github.com/automoto/openworld-mp/shared/netconfig"
	"github.com/automoto/openworld-mp/shared/physics"
	"github.com/automoto/openworld-mp/shared/protocol"
	"github.com/automoto/openworld-mp/shared/transformsync"
	"github.com/automoto/openworld-mp/systems"
	"github.com/yohamta/donburi"
)

const appName = "openworld-observer"

// Observer is the headless client: it joins a server and replicates every
// entity the server owns.
type Observer struct {
	client *network.Client
	world  donburi.World
	frame  *scheduler.Frame
	clock  *transformsync.FrameClock
	params transformsync.Parameters
	assets string

	replicator *network.Replicator
	reporter   *systems.Reporter
}

func NewObserver(client *network.Client, params transformsync.Parameters, assets string) *Observer {
	return &Observer{
		client: client,
		world:  donburi.NewWorld(),
		frame: scheduler.NewFrame(scheduler.WithFrameErrorHandler(func(err error) {
			log.Printf("[client] task failed: %v", err)
		})),
		clock:  transformsync.NewFrameClock(nil),
		params: params,
		assets: assets,
	}
}

// setup wires the frame once the server has told us which zone we are in.
func (o *Observer) setup() error {
	var opts []network.ReplicatorOption
	if zone := o.loadZone(o.client.Zone()); zone != nil {
		opts = append(opts, network.WithSpace(physics.NewZoneSpace(zone)))
	}

	if o.params.Visualize {
		v := systems.NewVisualizer(o.world, o.params.MaxNumVisualizations, o.params.VisualizationScale, config.Client.MarkerLifetime)
		opts = append(opts, network.WithMarkers(v))
		if err := o.frame.Register(v, netconfig.PriorityMarkers); err != nil {
			return err
		}
	}

	o.replicator = network.NewReplicator(o.world, o.frame, o.clock, o.params, o.client, opts...)
	if err := o.frame.Register(o.replicator, netconfig.PriorityNetworkReceive); err != nil {
		return err
	}

	keeper := network.NewTimeKeeper(o.clock, o.client, o.client.SendMessage, config.Client.TimeSyncInterval)
	if err := o.frame.Register(keeper, netconfig.PriorityNetworkSend); err != nil {
		return err
	}

	o.reporter = systems.NewReporter(o.world, config.Client.ReportInterval)
	return o.frame.Register(o.reporter, netconfig.PriorityDiagnostics)
}

// loadZone returns the local copy of the server's zone, or nil when the
// observer has no such asset. Rigid replicas then skip collision bodies.
func (o *Observer) loadZone(name string) *leveldata.Zone {
	if o.assets == "" || name == "" {
		return nil
	}
	zone, err := leveldata.LoadZone(os.DirFS(o.assets), filepath.ToSlash(filepath.Join("zones", name+".tmx")))
	if err != nil {
		log.Printf("[client] no local copy of zone %s: %v", name, err)
		return nil
	}
	return zone
}

// Update runs one frame.
func (o *Observer) Update() error {
	dt := o.clock.Advance()
	if o.replicator == nil {
		if o.client.State() != network.StateJoined {
			return o.client.LastError()
		}
		if err := o.setup(); err != nil {
			return err
		}
	}
	return o.frame.Run(dt)
}

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	store, err := config.OpenProfileStore(appName)
	if err != nil {
		log.Printf("[config] profiles unavailable: %v", err)
	} else if profile, err := store.Load(); err == nil {
		profile.Apply()
	}

	cfg := &config.Client
	flag.StringVar(&cfg.Address, "addr", cfg.Address, "Server address (host:port)")
	flag.StringVar(&cfg.Name, "name", cfg.Name, "Observer name sent on join")
	flag.StringVar(&cfg.ParamsPath, "params", cfg.ParamsPath, "YAML synchronizer parameters")
	flag.IntVar(&cfg.FrameRate, "fps", cfg.FrameRate, "Frames per second")
	assets := flag.String("assets", config.Server.ZonesDir, "Directory holding zones/*.tmx")
	flag.Parse()

	params := config.Sync
	if cfg.ParamsPath != "" {
		if params, err = config.LoadParameters(cfg.ParamsPath, params); err != nil {
			log.Fatalf("Failed to load parameters: %v", err)
		}
	}

	// Register network components for client-side deserialization
	if err := protocol.RegisterComponents(); err != nil {
		log.Fatalf("Failed to register network components: %v", err)
	}

	client := network.NewClient()
	client.Connect(cfg.Address, netconfig.ProtocolVersion, cfg.Name)
	log.Printf("[client] connecting to %s as %q (%s)", cfg.Address, cfg.Name, params.ClientUpdateType)

	obs := NewObserver(client, params, *assets)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(cfg.FrameRate))
	defer ticker.Stop()

	for {
		select {
		case <-sigChan:
			log.Println("[client] shutting down")
			client.Disconnect()
			if store != nil {
				if err := store.Save(config.CurrentProfile()); err != nil {
					log.Printf("[config] could not save profile: %v", err)
				}
			}
			return
		case <-ticker.C:
			if err := obs.Update(); err != nil {
				log.Fatalf("Observer error: %v", err)
			}
		}
	}
}
