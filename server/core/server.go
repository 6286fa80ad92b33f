package core

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/automoto/openworld-mp/scheduler"
	"github.com/automoto/openworld-mp/shared/messages"
	"github.com/automoto/openworld-mp/shared/netconfig"
	"github.com/automoto/openworld-mp/shared/transformsync"
	"github.com/automoto/openworld-mp/systems"
	"github.com/leap-fish/necs/esync"
	"github.com/leap-fish/necs/esync/srvsync"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"github.com/yohamta/donburi"
)

// Peer is a connected observer. *router.NetworkClient satisfies it.
type Peer interface {
	Id() string
	SendMessage(msg any) error
}

// Recorder receives every update the server sends.
type Recorder interface {
	Record(u messages.TransformUpdate) error
}

// Options configures a Server.
type Options struct {
	Name     string
	Version  string // required client version, "" accepts any
	TickRate int
	Params   transformsync.Parameters

	PedSpeed     float64
	VehicleSpeed float64
	TurnRate     float64
	StuckTimeout float64 // seconds a blocked actor waits before respawning, 0 never

	Recorder Recorder
	Now      func() time.Time // clock source, nil for time.Now
}

// Server manages the zone's authoritative entities and the observers
// receiving them.
type Server struct {
	world  donburi.World
	frame  *scheduler.Frame
	clock  *transformsync.FrameClock
	loop   *GameLoop
	zone   *ServerZone
	opts   Options
	sender *Sender
	actors map[donburi.Entity]*actor

	transport *transports.WsServerTransport

	mu       sync.Mutex // guards peers, nextPeer and commands
	peers    map[string]Peer
	nextPeer esync.NetworkId
	commands []func()

	sendErrors   atomic.Int64
	recordFailed bool
}

// NewServer creates a server hosting zone and spawns an actor per spawn point.
func NewServer(zone *ServerZone, opts Options) (*Server, error) {
	if err := opts.Params.Validate(); err != nil {
		return nil, fmt.Errorf("server parameters: %w", err)
	}
	if opts.TickRate <= 0 {
		opts.TickRate = netconfig.DefaultTickRate
	}

	world := donburi.NewWorld()
	s := &Server{
		world:  world,
		clock:  transformsync.NewFrameClock(opts.Now),
		zone:   zone,
		opts:   opts,
		actors: make(map[donburi.Entity]*actor),
		peers:  make(map[string]Peer),
	}
	s.frame = scheduler.NewFrame(
		scheduler.WithFixedStep(1/float64(opts.TickRate), 5),
		scheduler.WithFrameErrorHandler(func(err error) {
			log.Printf("[server] task failed: %v", err)
		}),
	)
	s.loop = NewGameLoop(s, opts.TickRate)

	// Set up the world for esync
	srvsync.UseEsync(world)

	s.sender = NewSender(world, s.clock, opts.Params.SyncInterval, s.publish)
	if err := s.frame.Register(systems.NewPathDriver(world), netconfig.PriorityPathDriver); err != nil {
		return nil, err
	}
	if err := s.frame.Register(s.sender, netconfig.PriorityNetworkSend); err != nil {
		return nil, err
	}
	if opts.StuckTimeout > 0 {
		if err := s.frame.Register(&recycler{s: s}, netconfig.PriorityPhysics); err != nil {
			return nil, err
		}
	}

	for _, sp := range zone.Spawns {
		if _, err := s.SpawnActor(sp); err != nil {
			return nil, fmt.Errorf("spawn %s %d: %w", sp.Kind, sp.Index, err)
		}
	}
	log.Printf("[server] zone %s: %d actors", zone.Name, len(s.actors))

	return s, nil
}

// Start begins the server on the given port
func (s *Server) Start(port uint) error {
	s.setupRouterCallbacks()

	go s.loop.Run()

	s.transport = transports.NewWsServerTransport(port, "", nil)
	return s.transport.Start()
}

// Stop gracefully shuts down the server
func (s *Server) Stop() {
	s.loop.Stop()
}

func (s *Server) setupRouterCallbacks() {
	router.OnConnect(func(client *router.NetworkClient) {
		log.Printf("[server] client connected: %s", client.Id())
	})

	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		s.handleDisconnect(client, err)
	})

	// Handlers touching the clock run on the loop goroutine.
	router.On(func(client *router.NetworkClient, msg messages.JoinRequest) {
		s.enqueue(func() { s.handleJoin(client, msg) })
	})

	router.On(func(client *router.NetworkClient, msg messages.TimeSyncRequest) {
		s.enqueue(func() { s.handleTimeSync(client, msg) })
	})

	router.OnError(func(client *router.NetworkClient, err error) {
		log.Printf("[server] client %s error: %v", client.Id(), err)
	})
}

func (s *Server) handleJoin(p Peer, msg messages.JoinRequest) {
	if s.opts.Version != "" && msg.Version != s.opts.Version {
		log.Printf("[server] rejecting %s: version %q, want %q", p.Id(), msg.Version, s.opts.Version)
		s.send(p, messages.JoinRejected{
			Reason: fmt.Sprintf("version mismatch: server requires %s", s.opts.Version),
		})
		return
	}

	s.mu.Lock()
	s.nextPeer++
	id := s.nextPeer
	s.peers[p.Id()] = p
	s.mu.Unlock()

	log.Printf("[server] %s joined as %q (%d)", p.Id(), msg.Name, id)
	s.send(p, messages.JoinAccepted{
		ClientID:     id,
		ServerName:   s.opts.Name,
		Zone:         s.zone.Name,
		TickRate:     s.opts.TickRate,
		SyncInterval: s.opts.Params.SyncInterval,
		ServerTime:   s.clock.NetworkTime(),
	})
}

func (s *Server) handleTimeSync(p Peer, msg messages.TimeSyncRequest) {
	s.send(p, messages.TimeSync{
		ClientTime: msg.ClientTime,
		ServerTime: s.clock.NetworkTime(),
	})
}

func (s *Server) handleDisconnect(p Peer, err error) {
	if err != nil {
		log.Printf("[server] client %s disconnected with error: %v", p.Id(), err)
	} else {
		log.Printf("[server] client %s disconnected", p.Id())
	}
	s.mu.Lock()
	delete(s.peers, p.Id())
	s.mu.Unlock()
}

// enqueue defers fn to the game loop goroutine.
func (s *Server) enqueue(fn func()) {
	s.mu.Lock()
	s.commands = append(s.commands, fn)
	s.mu.Unlock()
}

func (s *Server) processCommands() {
	s.mu.Lock()
	cmds := s.commands
	s.commands = nil
	s.mu.Unlock()

	for _, fn := range cmds {
		fn()
	}
}

// Step advances the simulation by dt seconds. The game loop calls it once per
// tick; tests call it directly.
func (s *Server) Step(dt float64) {
	s.processCommands()
	if err := s.frame.Run(dt); err != nil {
		log.Printf("[server] frame %d: %v", s.frame.Frames(), err)
	}
}

// publish records and broadcasts one update.
func (s *Server) publish(u messages.TransformUpdate) {
	if s.opts.Recorder != nil {
		if err := s.opts.Recorder.Record(u); err != nil && !s.recordFailed {
			log.Printf("[journal] recording failed, further failures are silent: %v", err)
			s.recordFailed = true
		}
	}
	s.broadcast(u)
}

func (s *Server) broadcast(msg any) {
	s.mu.Lock()
	peers := make([]Peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	for _, p := range peers {
		s.send(p, msg)
	}
}

// send delivers msg to p. Failures are transient for a websocket peer about
// to disconnect, so they are only counted.
func (s *Server) send(p Peer, msg any) {
	if err := p.SendMessage(msg); err != nil {
		s.sendErrors.Add(1)
	}
}

// World returns the ECS world
func (s *Server) World() donburi.World {
	return s.world
}

// Frame returns the task frame driven by the game loop.
func (s *Server) Frame() *scheduler.Frame {
	return s.frame
}

// PeerCount returns the number of joined observers
func (s *Server) PeerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

// SendErrors counts messages that could not be delivered.
func (s *Server) SendErrors() int64 {
	return s.sendErrors.Load()
}
