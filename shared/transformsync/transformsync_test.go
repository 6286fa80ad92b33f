package transformsync

import (
	"math"
	"testing"

	"github.com/automoto/openworld-mp/shared/gamemath"
	"github.com/automoto/openworld-mp/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	network float64
	delta   float64
	smooth  float64
}

func (c *fakeClock) NetworkTime() float64     { return c.network }
func (c *fakeClock) DeltaTime() float64       { return c.delta }
func (c *fakeClock) SmoothDeltaTime() float64 { return c.smooth }

type recordingBody struct {
	t     *Transform
	moves int
}

func (b *recordingBody) MoveTo(pos mgl64.Vec3) {
	b.moves++
	b.t.Position = pos
}

func (b *recordingBody) MoveRotationTo(rot mgl64.Quat) {
	b.t.Rotation = rot
}

type recordingMarker struct {
	marks []SyncData
}

func (m *recordingMarker) Mark(d SyncData) {
	m.marks = append(m.marks, d)
}

func params(kind netconfig.ClientUpdateType) Parameters {
	p := DefaultParameters()
	p.ClientUpdateType = kind
	return p
}

func newObserver(t *testing.T, p Parameters, clock Clock, opts ...Option) *Synchronizer {
	t.Helper()
	s, err := New(p, NewTransform(mgl64.Vec3{}), nil, clock, opts...)
	require.NoError(t, err)
	return s
}

func pose(x, y, z, yaw float64) []byte {
	return Encode(mgl64.Vec3{x, y, z}, gamemath.EulerToQuat(mgl64.Vec3{0, yaw, 0}))
}

var strategies = []netconfig.ClientUpdateType{
	netconfig.ConstantVelocity,
	netconfig.Lerp,
	netconfig.Slerp,
	netconfig.SnapshotInterpolation,
}

func TestInitialSnapshotSnaps(t *testing.T) {
	for _, kind := range strategies {
		t.Run(kind.String(), func(t *testing.T) {
			s := newObserver(t, params(kind), &fakeClock{})
			require.NoError(t, s.Deserialize(pose(1.5, -2, 3.25, 90), 7))

			cur := s.Current()
			assert.True(t, s.Initialized())
			assert.True(t, cur.Snaps())
			assert.Equal(t, cur.Position, s.Transform().Position)
			assert.Equal(t, cur.Rotation, s.Transform().Rotation)
			assert.Equal(t, mgl64.Vec3{1.5, -2, 3.25}, cur.Position)

			dist, deg := s.Error()
			assert.Zero(t, dist)
			assert.Zero(t, deg)
		})
	}
}

func TestStaleSnapshotsDropped(t *testing.T) {
	clock := &fakeClock{}
	s := newObserver(t, params(netconfig.SnapshotInterpolation), clock)

	for _, ts := range []float64{1, 3, 2, 3, 5, 4} {
		require.NoError(t, s.Deserialize(pose(ts, 0, 0, 0), ts))
	}

	var stamps []float64
	for _, d := range s.Buffered() {
		stamps = append(stamps, d.RemoteTimestamp)
	}
	assert.Equal(t, []float64{1, 3, 5}, stamps)
	assert.Equal(t, 3, s.Dropped())

	next, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, 5.0, next.RemoteTimestamp)
}

func TestSnapshotInterpolationSamplesMidpoint(t *testing.T) {
	clock := &fakeClock{}
	p := params(netconfig.SnapshotInterpolation)
	p.SnapshotLatency = 0
	s := newObserver(t, p, clock)

	require.NoError(t, s.Deserialize(pose(0, 0, 0, 0), 10))
	require.NoError(t, s.Deserialize(pose(10, 4, -2, 90), 20))

	clock.network = 15
	require.NoError(t, s.Tick(0.016))

	assert.True(t, s.Transform().Position.ApproxEqualThreshold(mgl64.Vec3{5, 2, -1}, 1e-9))
	assert.InDelta(t, 45, gamemath.QuatAngle(mgl64.QuatIdent(), s.Transform().Rotation), 1e-3)

	// The lower bound is still needed for the next sample, so nothing is evicted yet.
	assert.Len(t, s.Buffered(), 2)
}

func TestSnapshotInterpolationEvictsAndHolds(t *testing.T) {
	clock := &fakeClock{}
	p := params(netconfig.SnapshotInterpolation)
	p.SnapshotLatency = 0.1
	s := newObserver(t, p, clock)

	for i, ts := range []float64{1.0, 1.1, 1.2, 1.3} {
		require.NoError(t, s.Deserialize(pose(float64(i), 0, 0, 0), ts))
	}

	clock.network = 1.35 // playback 1.25
	require.NoError(t, s.Tick(0.016))
	assert.InDelta(t, 2.5, s.Transform().Position.X(), 1e-6)
	require.Len(t, s.Buffered(), 2)
	assert.Equal(t, 1.2, s.Buffered()[0].RemoteTimestamp)

	// Running ahead of the data: hold at the newest snapshot.
	clock.network = 5
	require.NoError(t, s.Tick(0.016))
	assert.InDelta(t, 3, s.Transform().Position.X(), 1e-6)
	assert.Len(t, s.Buffered(), 1)

	require.NoError(t, s.Tick(0.016))
	assert.InDelta(t, 3, s.Transform().Position.X(), 1e-6)
}

func TestStrategiesConverge(t *testing.T) {
	for _, kind := range []netconfig.ClientUpdateType{netconfig.ConstantVelocity, netconfig.Lerp, netconfig.Slerp} {
		t.Run(kind.String(), func(t *testing.T) {
			s := newObserver(t, params(kind), &fakeClock{})
			require.NoError(t, s.Deserialize(pose(10, 0, 0, 0), 0))
			require.NoError(t, s.Deserialize(pose(0, 0, 10, 90), 0.1))

			target := mgl64.Vec3{0, 0, 10}
			targetRot := gamemath.EulerToQuat(mgl64.Vec3{0, 90, 0})
			prevDist := s.Transform().Position.Sub(target).Len()
			prevDeg := gamemath.QuatAngle(s.Transform().Rotation, targetRot)

			for i := 0; i < 300; i++ {
				require.NoError(t, s.Tick(1.0/60))
				dist := s.Transform().Position.Sub(target).Len()
				deg := gamemath.QuatAngle(s.Transform().Rotation, targetRot)
				require.LessOrEqual(t, dist, prevDist+1e-9, "frame %d", i)
				require.LessOrEqual(t, deg, prevDeg+1e-4, "frame %d", i)
				prevDist, prevDeg = dist, deg
			}

			assert.Less(t, prevDist, netconfig.ArrivalDistance)
			assert.Less(t, prevDeg, netconfig.ArrivalAngle)
			_, queued := s.Next()
			assert.False(t, queued)
			assert.Equal(t, 0.1, s.Current().RemoteTimestamp)
		})
	}
}

func TestConstantVelocityNeverOvershoots(t *testing.T) {
	s := newObserver(t, params(netconfig.ConstantVelocity), &fakeClock{})
	require.NoError(t, s.Deserialize(pose(0, 0, 0, 0), 0))
	require.NoError(t, s.Deserialize(pose(1, 0, 0, 0), 0.1))

	// 10 units/s: first promotes, then covers half the distance.
	require.NoError(t, s.Tick(0.05))
	assert.InDelta(t, 0.5, s.Transform().Position.X(), 1e-6)

	// A huge step still stops exactly on the target.
	require.NoError(t, s.Tick(10))
	assert.InDelta(t, 1, s.Transform().Position.X(), 1e-6)
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Tick(1))
		assert.LessOrEqual(t, s.Transform().Position.X(), 1.0+1e-6)
	}
}

func TestConstantVelocityMultiplier(t *testing.T) {
	p := params(netconfig.ConstantVelocity)
	p.ConstantVelocityMultiplier = 2
	s := newObserver(t, p, &fakeClock{})
	require.NoError(t, s.Deserialize(pose(0, 0, 0, 0), 0))
	require.NoError(t, s.Deserialize(pose(1, 0, 0, 0), 0.1))

	require.NoError(t, s.Tick(0.025))
	assert.InDelta(t, 0.5, s.Transform().Position.X(), 1e-6)
}

func TestSmoothDeltaTime(t *testing.T) {
	clock := &fakeClock{smooth: 0.05}
	p := params(netconfig.ConstantVelocity)
	p.UseSmoothDeltaTime = true
	s := newObserver(t, p, clock)
	require.NoError(t, s.Deserialize(pose(0, 0, 0, 0), 0))
	require.NoError(t, s.Deserialize(pose(1, 0, 0, 0), 0.1))

	require.NoError(t, s.Tick(0.001))
	assert.InDelta(t, 0.5, s.Transform().Position.X(), 1e-6)
}

func TestNewerSnapshotSupersedesQueued(t *testing.T) {
	s := newObserver(t, params(netconfig.ConstantVelocity), &fakeClock{})
	require.NoError(t, s.Deserialize(pose(0, 0, 0, 0), 0))
	require.NoError(t, s.Deserialize(pose(1, 0, 0, 0), 0.1))
	require.NoError(t, s.Deserialize(pose(3, 0, 0, 0), 0.2))

	next, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, 0.2, next.RemoteTimestamp)
	// The replaced snapshot is never travelled to, so speed covers the whole
	// trip from current.
	assert.InDelta(t, 30, next.VelocityMagnitude, 1e-6)
}

func TestBunchedStopSnapshotsStillConverge(t *testing.T) {
	s := newObserver(t, params(netconfig.ConstantVelocity), &fakeClock{})
	require.NoError(t, s.Deserialize(pose(0, 0, 0, 0), 0))
	// The entity stops: the last two packets land in the same frame.
	require.NoError(t, s.Deserialize(pose(1, 0, 0, 0), 0.1))
	require.NoError(t, s.Deserialize(pose(1, 0, 0, 0), 0.2))

	next, ok := s.Next()
	require.True(t, ok)
	assert.InDelta(t, 10, next.VelocityMagnitude, 1e-6)

	for i := 0; i < 30; i++ {
		require.NoError(t, s.Tick(1.0/60))
	}
	require.NoError(t, s.Deserialize(pose(1, 0, 0, 0), 0.3))
	for i := 0; i < 30; i++ {
		require.NoError(t, s.Tick(1.0/60))
	}

	assert.InDelta(t, 1, s.Transform().Position.X(), 1e-6)
	dist, _ := s.Error()
	assert.Less(t, dist, netconfig.ArrivalDistance)
}

func TestWarpToLatestSyncData(t *testing.T) {
	s := newObserver(t, params(netconfig.Lerp), &fakeClock{})
	require.NoError(t, s.Deserialize(pose(0, 0, 0, 0), 0))
	require.NoError(t, s.Deserialize(pose(5, 0, 0, 45), 0.1))

	s.WarpToLatestSyncData()
	assert.Equal(t, mgl64.Vec3{5, 0, 0}, s.Transform().Position)
	assert.Equal(t, 0.1, s.Current().RemoteTimestamp)
	_, ok := s.Next()
	assert.False(t, ok)

	// Ticking afterwards does not pull the entity back.
	require.NoError(t, s.Tick(0.1))
	assert.Equal(t, mgl64.Vec3{5, 0, 0}, s.Transform().Position)
}

func TestResetSyncDataToTransform(t *testing.T) {
	s := newObserver(t, params(netconfig.SnapshotInterpolation), &fakeClock{})
	require.NoError(t, s.Deserialize(pose(0, 0, 0, 0), 1))
	require.NoError(t, s.Deserialize(pose(5, 0, 0, 0), 2))

	s.Transform().Position = mgl64.Vec3{100, 0, 0}
	s.ResetSyncDataToTransform()

	assert.Empty(t, s.Buffered())
	_, ok := s.Next()
	assert.False(t, ok)
	assert.True(t, s.Current().Snaps())
	assert.Equal(t, mgl64.Vec3{100, 0, 0}, s.Current().Position)

	// Stale data is still refused after a reset.
	require.NoError(t, s.Deserialize(pose(1, 0, 0, 0), 1.5))
	assert.Empty(t, s.Buffered())
	assert.Equal(t, 1, s.Dropped())
}

func TestAuthoritativeSide(t *testing.T) {
	clock := &fakeClock{network: 3}
	tr := NewTransform(mgl64.Vec3{1, 2, 3})
	s, err := New(DefaultParameters(), tr, nil, clock, WithAuthority())
	require.NoError(t, err)

	assert.False(t, s.Dirty())
	require.NoError(t, s.Tick(0.016))
	assert.True(t, s.Dirty())

	payload, err := s.Serialize()
	require.NoError(t, err)
	assert.Len(t, payload, netconfig.PayloadSize)
	assert.False(t, s.Dirty())

	snap := s.Capture()
	assert.Equal(t, 3.0, snap.RemoteTimestamp)
	assert.Equal(t, tr.Position, snap.Position)

	assert.ErrorIs(t, s.Deserialize(payload, 1), ErrAuthoritative)

	observer := newObserver(t, DefaultParameters(), clock)
	_, err = observer.Serialize()
	assert.ErrorIs(t, err, ErrNotAuthoritative)
	require.NoError(t, observer.Deserialize(payload, 1))
	assert.Equal(t, tr.Position, observer.Transform().Position)
}

func TestMalformedPayloadRejected(t *testing.T) {
	s := newObserver(t, DefaultParameters(), &fakeClock{})
	assert.ErrorIs(t, s.Deserialize(make([]byte, 27), 1), ErrMalformedPayload)
	assert.False(t, s.Initialized())
}

func TestRigidBodyOnlyWhenEnabled(t *testing.T) {
	tr := NewTransform(mgl64.Vec3{})
	body := &recordingBody{t: tr}

	s, err := New(DefaultParameters(), tr, body, &fakeClock{})
	require.NoError(t, err)
	require.NoError(t, s.Deserialize(pose(1, 0, 0, 0), 1))
	assert.Zero(t, body.moves)

	p := DefaultParameters()
	p.UseRigidBody = true
	s, err = New(p, tr, body, &fakeClock{})
	require.NoError(t, err)
	require.NoError(t, s.Deserialize(pose(2, 0, 0, 0), 1))
	assert.Equal(t, 1, body.moves)
	assert.Equal(t, mgl64.Vec3{2, 0, 0}, tr.Position)
}

func TestVisualizationMarks(t *testing.T) {
	marker := &recordingMarker{}
	p := DefaultParameters()
	p.Visualize = true
	s := newObserver(t, p, &fakeClock{}, WithMarker(marker))

	require.NoError(t, s.Deserialize(pose(0, 0, 0, 0), 1))
	require.NoError(t, s.Deserialize(pose(1, 0, 0, 0), 2))
	require.NoError(t, s.Deserialize(pose(1, 0, 0, 0), 2))
	require.Len(t, marker.marks, 1)
	assert.Equal(t, 2.0, marker.marks[0].RemoteTimestamp)

	p.Visualize = false
	quiet := newObserver(t, p, &fakeClock{}, WithMarker(marker))
	require.NoError(t, quiet.Deserialize(pose(0, 0, 0, 0), 1))
	require.NoError(t, quiet.Deserialize(pose(1, 0, 0, 0), 2))
	assert.Len(t, marker.marks, 1)
}

func TestNewValidates(t *testing.T) {
	p := DefaultParameters()
	p.SyncInterval = 0
	_, err := New(p, NewTransform(mgl64.Vec3{}), nil, &fakeClock{})
	assert.Error(t, err)

	_, err = New(DefaultParameters(), nil, nil, &fakeClock{})
	assert.Error(t, err)

	_, err = New(DefaultParameters(), NewTransform(mgl64.Vec3{}), nil, nil)
	assert.Error(t, err)
}

func TestUninitializedErrorIsInfinite(t *testing.T) {
	s := newObserver(t, DefaultParameters(), &fakeClock{})
	dist, deg := s.Error()
	assert.True(t, math.IsInf(dist, 1))
	assert.True(t, math.IsInf(deg, 1))
	require.NoError(t, s.Tick(1))
	assert.Equal(t, mgl64.Vec3{}, s.Transform().Position)
}
