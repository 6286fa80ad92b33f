package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/automoto/openworld-mp/shared/messages"
	"github.com/automoto/openworld-mp/shared/transformsync"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func upd(id uint, ts, x float64) messages.TransformUpdate {
	return messages.TransformUpdate{
		NetworkID:  id,
		ServerTime: ts,
		Payload:    transformsync.Encode(mgl64.Vec3{x, 0, 0}, mgl64.QuatIdent()),
	}
}

func TestRecordAndReplay(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	in := []messages.TransformUpdate{upd(1, 0.1, 1), upd(2, 0.1, 5), upd(1, 0.2, 2)}
	for _, u := range in {
		require.NoError(t, j.Record(u))
	}

	n, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var out []messages.TransformUpdate
	require.NoError(t, j.Replay(ctx, func(u messages.TransformUpdate) error {
		out = append(out, u)
		return nil
	}))
	assert.Equal(t, in, out)

	var xs []float64
	require.NoError(t, j.ReplayEntity(ctx, 1, func(u messages.TransformUpdate) error {
		pos, _, err := transformsync.Decode(u.Payload)
		require.NoError(t, err)
		xs = append(xs, pos.X())
		return nil
	}))
	assert.Equal(t, []float64{1, 2}, xs)
}

func TestReplayFeedsObserver(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, j.Record(upd(7, float64(i)/10, float64(i))))
	}

	tr := transformsync.NewTransform(mgl64.Vec3{})
	s, err := transformsync.New(transformsync.DefaultParameters(), tr, nil, transformsync.NewFrameClock(nil))
	require.NoError(t, err)

	require.NoError(t, j.ReplayEntity(ctx, 7, func(u messages.TransformUpdate) error {
		if err := s.Deserialize(u.Payload, u.ServerTime); err != nil {
			return err
		}
		return s.Tick(0.1)
	}))
	assert.InDelta(t, 5, tr.Position.X(), 1e-6)
	assert.Zero(t, s.Dropped())
}

func TestReplayStopsOnError(t *testing.T) {
	j := openTemp(t)
	require.NoError(t, j.Record(upd(1, 1, 1)))
	require.NoError(t, j.Record(upd(1, 2, 2)))

	stop := errors.New("stop")
	calls := 0
	err := j.Replay(context.Background(), func(messages.TransformUpdate) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestClosed(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	assert.ErrorIs(t, j.Record(upd(1, 1, 1)), ErrClosed)
	assert.ErrorIs(t, j.Replay(context.Background(), func(messages.TransformUpdate) error { return nil }), ErrClosed)

	_, err = Open("")
	assert.Error(t, err)
}
