package transformsync

import (
	"errors"
	"fmt"
	"math"

	"github.com/automoto/openworld-mp/shared/gamemath"
	"github.com/automoto/openworld-mp/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrNotAuthoritative = errors.New("synchronizer is not authoritative")
	ErrAuthoritative    = errors.New("synchronizer is authoritative")
)

// Synchronizer replicates one entity's Transform. On the authoritative side it
// produces payloads; on observers it consumes them and drives the transform.
type Synchronizer struct {
	params    Parameters
	transform *Transform
	body      Body
	clock     Clock
	marker    Marker

	authoritative bool
	dirty         bool

	initialized bool
	current     SyncData
	next        SyncData
	hasNext     bool
	buffer      *SnapshotBuffer

	lastTimestamp float64
	dropped       int
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithAuthority makes the synchronizer the owner of the transform.
func WithAuthority() Option {
	return func(s *Synchronizer) { s.authoritative = true }
}

// WithMarker receives accepted snapshots when Parameters.Visualize is set.
func WithMarker(m Marker) Option {
	return func(s *Synchronizer) { s.marker = m }
}

// New creates a synchronizer for transform. body is used only when
// params.UseRigidBody is set; otherwise, or when body is nil, poses are
// written directly to transform.
func New(params Parameters, transform *Transform, body Body, clock Clock, opts ...Option) (*Synchronizer, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("transformsync: %w", err)
	}
	if transform == nil {
		return nil, errors.New("transformsync: nil transform")
	}
	if clock == nil {
		return nil, errors.New("transformsync: nil clock")
	}

	s := &Synchronizer{
		params:    params,
		transform: transform,
		clock:     clock,
	}
	if params.UseRigidBody && body != nil {
		s.body = body
	} else {
		s.body = DirectBody{T: transform}
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.authoritative && params.ClientUpdateType == netconfig.SnapshotInterpolation {
		s.buffer = NewSnapshotBuffer(params.BufferCapacity)
	}
	return s, nil
}

func (s *Synchronizer) Parameters() Parameters { return s.params }
func (s *Synchronizer) Transform() *Transform  { return s.transform }
func (s *Synchronizer) Authoritative() bool    { return s.authoritative }
func (s *Synchronizer) Initialized() bool      { return s.initialized }

// Dirty reports whether the owner has a pose waiting to be sent.
func (s *Synchronizer) Dirty() bool { return s.dirty }

// Dropped counts snapshots refused as stale or duplicate.
func (s *Synchronizer) Dropped() int { return s.dropped }

// Current returns the snapshot the entity is moving toward.
func (s *Synchronizer) Current() SyncData { return s.current }

// Next returns the queued successor of Current, if any.
func (s *Synchronizer) Next() (SyncData, bool) { return s.next, s.hasNext }

// Buffered returns the snapshot interpolation buffer, oldest first.
func (s *Synchronizer) Buffered() []SyncData {
	if s.buffer == nil {
		return nil
	}
	return s.buffer.Snapshots()
}

// Capture samples the live transform as a snapshot stamped with the current
// network time.
func (s *Synchronizer) Capture() SyncData {
	return snapData(s.transform.Position, s.transform.Rotation, s.clock.NetworkTime())
}

// Serialize encodes the live transform and clears the dirty flag.
func (s *Synchronizer) Serialize() ([]byte, error) {
	if !s.authoritative {
		return nil, ErrNotAuthoritative
	}
	s.dirty = false
	return Encode(s.transform.Position, s.transform.Rotation), nil
}

// Deserialize applies a payload captured at remoteTimestamp on the sender.
// Only a malformed payload is an error; stale or duplicate snapshots are
// dropped silently.
func (s *Synchronizer) Deserialize(payload []byte, remoteTimestamp float64) error {
	if s.authoritative {
		return ErrAuthoritative
	}
	pos, rot, err := Decode(payload)
	if err != nil {
		return err
	}
	s.receive(pos, rot, remoteTimestamp)
	return nil
}

func (s *Synchronizer) receive(pos mgl64.Vec3, rot mgl64.Quat, ts float64) {
	if !s.initialized {
		d := snapData(pos, rot, ts)
		s.initialized = true
		s.lastTimestamp = ts
		s.current = d
		s.hasNext = false
		s.apply(pos, rot)
		if s.buffer != nil {
			s.buffer.Push(d)
		}
		return
	}

	if ts <= s.lastTimestamp {
		s.dropped++
		return
	}
	s.lastTimestamp = ts

	// Rates are measured from current, where the entity starts moving from once
	// this snapshot is promoted. A replaced next is never travelled to.
	prev := s.current
	d := SyncData{
		Position:                 pos,
		Rotation:                 rot,
		VelocityMagnitude:        pos.Sub(prev.Position).Len() / s.params.SyncInterval,
		AngularVelocityMagnitude: gamemath.QuatAngle(prev.Rotation, rot) / s.params.SyncInterval,
		RemoteTimestamp:          ts,
	}
	s.next = d
	s.hasNext = true

	if s.buffer != nil {
		s.buffer.Push(d)
	}
	if s.params.Visualize && s.marker != nil {
		s.marker.Mark(d)
	}
}

// Tick advances the synchronizer by one frame. The owner only flags its pose
// for sending; observers move toward the latest authoritative pose.
func (s *Synchronizer) Tick(dt float64) error {
	if s.authoritative {
		s.dirty = true
		return nil
	}
	if !s.initialized {
		return nil
	}
	if s.params.UseSmoothDeltaTime {
		dt = s.clock.SmoothDeltaTime()
	}

	s.promoteIfArrived()
	switch s.params.ClientUpdateType {
	case netconfig.ConstantVelocity:
		s.stepConstantVelocity(dt)
	case netconfig.Lerp:
		s.stepLerp(dt, false)
	case netconfig.Slerp:
		s.stepLerp(dt, true)
	case netconfig.SnapshotInterpolation:
		s.stepSnapshotInterpolation()
	}
	s.promoteIfArrived()
	return nil
}

func (s *Synchronizer) arrived() bool {
	if s.transform.Position.Sub(s.current.Position).Len() >= netconfig.ArrivalDistance {
		return false
	}
	return gamemath.QuatAngle(s.transform.Rotation, s.current.Rotation) < netconfig.ArrivalAngle
}

func (s *Synchronizer) promoteIfArrived() {
	if s.hasNext && s.arrived() {
		s.current = s.next
		s.next = SyncData{}
		s.hasNext = false
	}
}

func (s *Synchronizer) stepConstantVelocity(dt float64) {
	c := s.current
	if c.Snaps() {
		s.apply(c.Position, c.Rotation)
		return
	}
	m := s.params.ConstantVelocityMultiplier
	pos := gamemath.MoveTowards(s.transform.Position, c.Position, c.VelocityMagnitude*m*dt)
	rot := gamemath.RotateTowards(s.transform.Rotation, c.Rotation, c.AngularVelocityMagnitude*m*dt)
	s.apply(pos, rot)
}

func (s *Synchronizer) stepLerp(dt float64, spherical bool) {
	c := s.current
	if c.Snaps() {
		s.apply(c.Position, c.Rotation)
		return
	}
	f := gamemath.SmoothingFactor(s.params.LerpFactor, dt)
	var pos mgl64.Vec3
	if spherical {
		pos = gamemath.SlerpVec3(s.transform.Position, c.Position, f)
	} else {
		pos = gamemath.LerpVec3(s.transform.Position, c.Position, f)
	}
	s.apply(pos, gamemath.Slerp(s.transform.Rotation, c.Rotation, f))
}

func (s *Synchronizer) stepSnapshotInterpolation() {
	playback := s.clock.NetworkTime() - s.params.SnapshotLatency
	lower, higher, ok := s.buffer.Sample(playback)
	if !ok {
		return
	}
	t := gamemath.InverseLerp(lower.RemoteTimestamp, higher.RemoteTimestamp, playback)
	s.apply(
		gamemath.LerpVec3(lower.Position, higher.Position, t),
		gamemath.Slerp(lower.Rotation, higher.Rotation, t),
	)
	s.buffer.EvictBefore(lower.RemoteTimestamp)
}

func (s *Synchronizer) apply(pos mgl64.Vec3, rot mgl64.Quat) {
	s.body.MoveTo(pos)
	s.body.MoveRotationTo(rot)
}

// ResetSyncDataToTransform makes the live transform the current target and
// discards queued and buffered snapshots. Used after the synchronized object
// is re-parented.
func (s *Synchronizer) ResetSyncDataToTransform() {
	s.current = snapData(s.transform.Position, s.transform.Rotation, s.lastTimestamp)
	s.next = SyncData{}
	s.hasNext = false
	if s.buffer != nil {
		s.buffer.Clear()
	}
}

// WarpToLatestSyncData jumps to the freshest known snapshot, skipping any
// smoothing, and makes it current.
func (s *Synchronizer) WarpToLatestSyncData() {
	if !s.initialized {
		return
	}
	latest := s.current
	if s.hasNext {
		latest = s.next
		s.next = SyncData{}
		s.hasNext = false
	}
	if s.buffer != nil {
		if b, ok := s.buffer.Latest(); ok && b.RemoteTimestamp > latest.RemoteTimestamp {
			latest = b
		}
	}
	s.current = latest
	s.apply(latest.Position, latest.Rotation)
}

// Error returns the distance and angle between the live transform and the
// current target.
func (s *Synchronizer) Error() (distance, degrees float64) {
	if !s.initialized {
		return math.Inf(1), math.Inf(1)
	}
	return s.transform.Position.Sub(s.current.Position).Len(),
		gamemath.QuatAngle(s.transform.Rotation, s.current.Rotation)
}
