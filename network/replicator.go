package network

import (
	"fmt"
	"log"

	"github.com/automoto/openworld-mp/archetypes"
	"github.com/automoto/openworld-mp/components"
	"github.com/automoto/openworld-mp/scheduler"
	"github.com/automoto/openworld-mp/shared/messages"
	"github.com/automoto/openworld-mp/shared/netcomponents"
	"github.com/automoto/openworld-mp/shared/netconfig"
	"github.com/automoto/openworld-mp/shared/physics"
	"github.com/automoto/openworld-mp/shared/transformsync"
	"github.com/automoto/openworld-mp/systems"
	"github.com/automoto/openworld-mp/tags"
	"github.com/leap-fish/necs/esync"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
)

// Source yields what the connection received since the previous frame.
type Source interface {
	LatestSnapshot() *esync.WorldSnapshot
	DrainTransformUpdates() []messages.TransformUpdate
	DrainDespawns() []messages.DespawnEvent
}

// EntityInfo is what a world snapshot tells about one replicated entity.
type EntityInfo struct {
	ID        esync.NetworkId
	Entity    netcomponents.NetEntityData
	Transform netcomponents.NetTransformData
}

// Replica is the local copy of a remote entity. It is a scheduler task: its
// tick drives the synchronizer and its dispose removes the entity.
type Replica struct {
	ID        esync.NetworkId
	Kind      netconfig.EntityKind
	Entity    donburi.Entity
	Sync      *transformsync.Synchronizer
	Transform *transformsync.Transform
	Body      *physics.Body

	r *Replicator
}

func (rp *Replica) Tick(dt float64) error {
	if err := rp.Sync.Tick(dt); err != nil {
		return err
	}
	if rp.r.world.Valid(rp.Entity) {
		netcomponents.NetTransform.SetValue(rp.r.world.Entry(rp.Entity),
			netcomponents.NewNetTransform(rp.Transform.Position, rp.Transform.Rotation))
	}
	return nil
}

func (rp *Replica) Dispose() error {
	if rp.Body != nil && rp.r.space != nil {
		rp.Body.Remove(rp.r.space)
	}
	if rp.r.markers != nil {
		rp.r.markers.Forget(uint(rp.ID))
	}
	if rp.r.world.Valid(rp.Entity) {
		rp.r.world.Remove(rp.Entity)
	}
	return nil
}

// Replicator owns one observer synchronizer per remote entity. Entities
// appear from world snapshots, receive their poses from TransformUpdates and
// leave on DespawnEvent or when a snapshot no longer lists them.
type Replicator struct {
	world   donburi.World
	frame   *scheduler.Frame
	clock   transformsync.Clock
	params  transformsync.Parameters
	source  Source
	space   *resolv.Space
	markers *systems.Visualizer

	replicas  map[esync.NetworkId]*Replica
	present   map[esync.NetworkId]bool
	unknown   int
	malformed int
}

type ReplicatorOption func(*Replicator)

// WithSpace gives rigid replicas a collision body in space.
func WithSpace(space *resolv.Space) ReplicatorOption {
	return func(r *Replicator) { r.space = space }
}

// WithMarkers visualizes received snapshots when params.Visualize is set.
func WithMarkers(v *systems.Visualizer) ReplicatorOption {
	return func(r *Replicator) { r.markers = v }
}

func NewReplicator(world donburi.World, frame *scheduler.Frame, clock transformsync.Clock,
	params transformsync.Parameters, source Source, opts ...ReplicatorOption) *Replicator {
	r := &Replicator{
		world:    world,
		frame:    frame,
		clock:    clock,
		params:   params,
		source:   source,
		replicas: make(map[esync.NetworkId]*Replica),
		present:  make(map[esync.NetworkId]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tick applies everything received since the previous frame.
func (r *Replicator) Tick(float64) error {
	if snap := r.source.LatestSnapshot(); snap != nil {
		r.Reconcile(decodeSnapshot(*snap))
	}
	for _, evt := range r.source.DrainDespawns() {
		r.Despawn(esync.NetworkId(evt.NetworkID))
	}
	for _, u := range r.source.DrainTransformUpdates() {
		if err := r.ApplyUpdate(u); err != nil {
			log.Printf("[client] %v", err)
		}
	}
	return nil
}

func decodeSnapshot(snapshot esync.WorldSnapshot) []EntityInfo {
	infos := make([]EntityInfo, 0, len(snapshot))
	for _, ent := range snapshot {
		info := EntityInfo{ID: ent.Id}
		for _, componentBytes := range ent.State {
			instance, err := esync.Mapper.Deserialize(componentBytes)
			if err != nil {
				continue
			}
			switch v := instance.(type) {
			case netcomponents.NetEntityData:
				info.Entity = v
			case netcomponents.NetTransformData:
				info.Transform = v
			}
		}
		infos = append(infos, info)
	}
	return infos
}

// Reconcile spawns replicas for newly listed entities and despawns the ones
// no longer listed.
func (r *Replicator) Reconcile(infos []EntityInfo) {
	clear(r.present)
	for _, info := range infos {
		r.present[info.ID] = true
		if _, ok := r.replicas[info.ID]; ok {
			continue
		}
		if err := r.spawn(info); err != nil {
			log.Printf("[client] spawn %d: %v", info.ID, err)
		}
	}
	for id := range r.replicas {
		if !r.present[id] {
			r.Despawn(id)
		}
	}
}

func (r *Replicator) spawn(info EntityInfo) error {
	pos, rot := info.Transform.Pose()
	tr := &transformsync.Transform{Position: pos, Rotation: rot}

	p := r.params
	p.UseRigidBody = p.UseRigidBody && info.Entity.Rigid && r.space != nil

	var body *physics.Body
	if p.UseRigidBody {
		w, d := info.Entity.Kind.Footprint()
		body = physics.NewBody(r.space, tr, w, d, info.Entity.Kind.String())
	}

	var opts []transformsync.Option
	if r.markers != nil {
		opts = append(opts, transformsync.WithMarker(r.markers.For(uint(info.ID))))
	}
	var bodyArg transformsync.Body
	if body != nil {
		bodyArg = body
	}
	sync, err := transformsync.New(p, tr, bodyArg, r.clock, opts...)
	if err != nil {
		if body != nil {
			body.Remove(r.space)
		}
		return err
	}

	entry := archetypes.ForKind(info.Entity.Kind).Spawn(r.world, tags.Replica)
	entry.AddComponent(esync.NetworkIdComponent)
	esync.NetworkIdComponent.SetValue(entry, info.ID)
	netcomponents.NetEntity.SetValue(entry, info.Entity)
	netcomponents.NetTransform.SetValue(entry, info.Transform)
	components.TransformSync.SetValue(entry, components.TransformSyncData{Sync: sync, Body: body})

	rp := &Replica{
		ID:        info.ID,
		Kind:      info.Entity.Kind,
		Entity:    entry.Entity(),
		Sync:      sync,
		Transform: tr,
		Body:      body,
		r:         r,
	}
	if err := r.frame.Register(rp, netconfig.PrioritySync); err != nil {
		entry.Remove()
		if body != nil {
			body.Remove(r.space)
		}
		return err
	}
	r.replicas[info.ID] = rp
	log.Printf("[client] replicating %s %d", info.Entity.Kind, info.ID)
	return nil
}

// Despawn stops replicating id. The entity is removed in the dispose phase.
func (r *Replicator) Despawn(id esync.NetworkId) {
	rp, ok := r.replicas[id]
	if !ok {
		return
	}
	delete(r.replicas, id)
	if err := r.frame.Unregister(rp, netconfig.PrioritySync); err != nil {
		log.Printf("[client] despawn %d: %v", id, err)
	}
}

// ApplyUpdate hands a pose to its replica. Updates for entities not yet
// announced by a snapshot are counted and dropped.
func (r *Replicator) ApplyUpdate(u messages.TransformUpdate) error {
	rp, ok := r.replicas[esync.NetworkId(u.NetworkID)]
	if !ok {
		r.unknown++
		return nil
	}
	if err := rp.Sync.Deserialize(u.Payload, u.ServerTime); err != nil {
		r.malformed++
		return fmt.Errorf("update for %d: %w", u.NetworkID, err)
	}
	return nil
}

// Replica returns the replica of id, if any.
func (r *Replicator) Replica(id esync.NetworkId) (*Replica, bool) {
	rp, ok := r.replicas[id]
	return rp, ok
}

func (r *Replicator) Len() int {
	return len(r.replicas)
}

// Unknown counts updates that arrived before their entity was announced.
func (r *Replicator) Unknown() int {
	return r.unknown
}

// Malformed counts updates whose payload could not be decoded.
func (r *Replicator) Malformed() int {
	return r.malformed
}
