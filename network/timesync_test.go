package network

import (
	"testing"

	"github.com/automoto/openworld-mp/shared/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetEstimatorPrefersShortestRoundTrip(t *testing.T) {
	var e OffsetEstimator
	assert.Zero(t, e.Offset())

	require.True(t, e.Observe(0, 10.05, 0.1))
	assert.InDelta(t, 10.0, e.Offset(), 1e-9)

	require.True(t, e.Observe(1, 11.5, 1.6))
	assert.InDelta(t, 10.0, e.Offset(), 1e-9)
	assert.InDelta(t, 0.1, e.RTT(), 1e-9)

	assert.False(t, e.Observe(5, 20, 4))
	assert.Equal(t, 2, e.Samples())
}

func TestOffsetEstimatorWindowForgets(t *testing.T) {
	var e OffsetEstimator
	e.Observe(0, 10.05, 0.1)
	for i := 0; i < timeSampleWindow; i++ {
		base := float64(i + 1)
		e.Observe(base, base+5+0.15, base+0.3)
	}
	assert.Equal(t, timeSampleWindow, e.Samples())
	assert.InDelta(t, 5.0, e.Offset(), 1e-9)
}

type fakeOffsetClock struct {
	local  float64
	offset float64
}

func (c *fakeOffsetClock) LocalTime() float64    { return c.local }
func (c *fakeOffsetClock) SetOffset(off float64) { c.offset = off }

type fakeTimeSource struct {
	pending []messages.TimeSync
}

func (s *fakeTimeSource) DrainTimeSyncs() []messages.TimeSync {
	out := s.pending
	s.pending = nil
	return out
}

func TestTimeKeeper(t *testing.T) {
	clock := &fakeOffsetClock{}
	src := &fakeTimeSource{}
	var sent []any
	k := NewTimeKeeper(clock, src, func(msg any) error {
		sent = append(sent, msg)
		return nil
	}, 1)

	require.NoError(t, k.Tick(0.1))
	require.Len(t, sent, 1)
	assert.Equal(t, messages.TimeSyncRequest{ClientTime: 0}, sent[0])

	clock.local = 0.2
	src.pending = []messages.TimeSync{{ClientTime: 0, ServerTime: 50.1}}
	require.NoError(t, k.Tick(0.1))
	assert.InDelta(t, 50.0, clock.offset, 1e-9)
	assert.Len(t, sent, 1)

	for i := 0; i < 10; i++ {
		require.NoError(t, k.Tick(0.1))
	}
	assert.Len(t, sent, 2)
}
