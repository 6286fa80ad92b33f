package core

import (
	"fmt"
	"log"
	"math"

	"github.com/automoto/openworld-mp/archetypes"
	"github.com/automoto/openworld-mp/components"
	"github.com/automoto/openworld-mp/shared/gamemath"
	"github.com/automoto/openworld-mp/shared/leveldata"
	"github.com/automoto/openworld-mp/shared/messages"
	"github.com/automoto/openworld-mp/shared/netcomponents"
	"github.com/automoto/openworld-mp/shared/netconfig"
	"github.com/automoto/openworld-mp/shared/physics"
	"github.com/automoto/openworld-mp/shared/transformsync"
	"github.com/automoto/openworld-mp/systems"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/leap-fish/necs/esync"
	"github.com/leap-fish/necs/esync/srvsync"
	"github.com/yohamta/donburi"
)

// Patrol loop sizes, forward by sideways.
const (
	pedLoopLength     = 32.0
	pedLoopWidth      = 32.0
	vehicleLoopLength = 128.0
	vehicleLoopWidth  = 64.0
)

// actor is a server-owned entity walking a patrol loop.
type actor struct {
	entity donburi.Entity
	sync   *transformsync.Synchronizer
	body   *physics.Body
	spawn  leveldata.Spawn
}

// SpawnActor creates an authoritative entity at sp and registers it for
// replication.
func (s *Server) SpawnActor(sp leveldata.Spawn) (donburi.Entity, error) {
	kind := netconfig.ParseEntityKind(sp.Kind)
	start := mgl64.Vec3{sp.X, 0, sp.Z}
	rot := gamemath.EulerToQuat(mgl64.Vec3{0, sp.Yaw, 0})
	tr := &transformsync.Transform{Position: start, Rotation: rot}

	sync, err := transformsync.New(s.opts.Params, tr, nil, s.clock, transformsync.WithAuthority())
	if err != nil {
		return 0, err
	}

	var body *physics.Body
	rigid := kind == netconfig.KindVehicle
	if rigid {
		w, d := kind.Footprint()
		body = physics.NewBody(s.zone.Space, tr, w, d, physics.TagVehicle)
	}

	entry := archetypes.ForKind(kind).Spawn(s.world, components.Path)
	entity := entry.Entity()

	components.TransformSync.Set(entry, &components.TransformSyncData{Sync: sync, Body: body})
	netcomponents.NetEntity.Set(entry, &netcomponents.NetEntityData{
		Kind:  kind,
		Rigid: rigid,
		Name:  fmt.Sprintf("%s-%d", kind, sp.Index),
	})
	nt := netcomponents.NewNetTransform(start, rot)
	netcomponents.NetTransform.Set(entry, &nt)

	speed := s.opts.PedSpeed
	if rigid {
		speed = s.opts.VehicleSpeed
	}
	patrol := systems.NewPatrol(patrolLoop(start, sp.Yaw, kind), speed, s.opts.TurnRate)
	components.Path.Set(entry, &patrol)

	if err := s.frame.Register(sync, netconfig.PrioritySync); err != nil {
		s.discard(entity, body)
		return 0, err
	}

	// Mark entity for network sync with interpolation for the coarse pose
	err = srvsync.NetworkSync(s.world, &entity,
		srvsync.WithInterp(netcomponents.NetTransform),
		netcomponents.NetEntity,
	)
	if err != nil {
		_ = s.frame.Unregister(sync, netconfig.PrioritySync)
		s.discard(entity, body)
		return 0, fmt.Errorf("network sync: %w", err)
	}

	s.actors[entity] = &actor{entity: entity, sync: sync, body: body, spawn: sp}
	return entity, nil
}

// DespawnActor removes an actor and tells observers to drop their replica.
func (s *Server) DespawnActor(entity donburi.Entity) error {
	a, ok := s.actors[entity]
	if !ok {
		return fmt.Errorf("entity %d is not an actor", entity.Id())
	}

	var nid uint
	if s.world.Valid(entity) {
		if id := esync.GetNetworkId(s.world.Entry(entity)); id != nil {
			nid = uint(*id)
		}
	}

	if err := s.frame.Unregister(a.sync, netconfig.PrioritySync); err != nil {
		log.Printf("[server] unregister actor %d: %v", entity.Id(), err)
	}
	s.discard(entity, a.body)
	delete(s.actors, entity)

	if nid != 0 {
		s.broadcast(messages.DespawnEvent{NetworkID: nid})
	}
	return nil
}

func (s *Server) discard(entity donburi.Entity, body *physics.Body) {
	if body != nil {
		body.Remove(s.zone.Space)
	}
	if s.world.Valid(entity) {
		s.world.Remove(entity)
	}
}

// Actors returns the number of live actors.
func (s *Server) Actors() int {
	return len(s.actors)
}

// patrolLoop returns a rectangle starting at start, heading along yaw and
// turning right.
func patrolLoop(start mgl64.Vec3, yaw float64, kind netconfig.EntityKind) []mgl64.Vec3 {
	length, width := pedLoopLength, pedLoopWidth
	if kind == netconfig.KindVehicle {
		length, width = vehicleLoopLength, vehicleLoopWidth
	}
	rad := mgl64.DegToRad(yaw)
	fwd := mgl64.Vec3{math.Sin(rad), 0, math.Cos(rad)}
	right := mgl64.Vec3{math.Cos(rad), 0, -math.Sin(rad)}

	return []mgl64.Vec3{
		start,
		start.Add(fwd.Mul(length)),
		start.Add(fwd.Mul(length)).Add(right.Mul(width)),
		start.Add(right.Mul(width)),
	}
}

// recycler respawns actors that have been stuck against a wall too long.
type recycler struct {
	s *Server
}

func (r *recycler) Tick(dt float64) error {
	var stuck []*actor
	for _, a := range r.s.actors {
		if !r.s.world.Valid(a.entity) {
			continue
		}
		entry := r.s.world.Entry(a.entity)
		if components.Path.Get(entry).BlockedFor >= r.s.opts.StuckTimeout {
			stuck = append(stuck, a)
		}
	}

	for _, a := range stuck {
		log.Printf("[server] actor %d stuck, respawning at spawn %d", a.entity.Id(), a.spawn.Index)
		if err := r.s.DespawnActor(a.entity); err != nil {
			return err
		}
		if _, err := r.s.SpawnActor(a.spawn); err != nil {
			return fmt.Errorf("respawn %d: %w", a.spawn.Index, err)
		}
	}
	return nil
}
