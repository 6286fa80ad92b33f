package scheduler

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
}

type stubTask struct {
	name string
	rec  *recorder
	fn   func() error
}

func (p *stubTask) Tick(float64) error {
	p.rec.calls = append(p.rec.calls, p.name)
	if p.fn != nil {
		return p.fn()
	}
	return nil
}

func newTickScheduler(opts ...Option) *Scheduler[Ticker] {
	return New(PhaseTick, func(t Ticker) error { return t.Tick(0) }, opts...)
}

func quiet() Option {
	return WithErrorHandler(func(error) {})
}

func TestPriorityOrderIsStable(t *testing.T) {
	rec := &recorder{}
	s := newTickScheduler()

	tasks := []struct {
		name     string
		priority int
	}{
		{"five", 5},
		{"minus-three-first", -3},
		{"zero", 0},
		{"minus-three-second", -3},
	}
	for _, tc := range tasks {
		require.NoError(t, s.AddTask(&stubTask{name: tc.name, rec: rec}, tc.priority))
	}

	s.OnFrameStart()
	require.NoError(t, s.UpdateAll())

	assert.Equal(t, []string{"minus-three-first", "minus-three-second", "zero", "five"}, rec.calls)
}

func TestNewcomerRunsAfterEqualPriorityPeers(t *testing.T) {
	rec := &recorder{}
	s := newTickScheduler()
	require.NoError(t, s.AddTask(&stubTask{name: "a", rec: rec}, 1))
	require.NoError(t, s.AddTask(&stubTask{name: "b", rec: rec}, 2))
	s.OnFrameStart()

	require.NoError(t, s.AddTask(&stubTask{name: "c", rec: rec}, 1))
	s.OnFrameStart()
	require.NoError(t, s.UpdateAll())

	assert.Equal(t, []string{"a", "c", "b"}, rec.calls)
}

func TestAddedDuringPassWaitsForNextFrame(t *testing.T) {
	rec := &recorder{}
	s := newTickScheduler()

	late := &stubTask{name: "late", rec: rec}
	adder := &stubTask{name: "adder", rec: rec}
	adder.fn = func() error {
		if !s.Contains(late) {
			return s.AddTask(late, -100)
		}
		return nil
	}
	require.NoError(t, s.AddTask(adder, 0))
	require.NoError(t, s.AddTask(&stubTask{name: "after", rec: rec}, 10))

	s.OnFrameStart()
	require.NoError(t, s.UpdateAll())
	assert.Equal(t, []string{"adder", "after"}, rec.calls)

	// Without a frame boundary the newcomer still does not run.
	rec.calls = nil
	require.NoError(t, s.UpdateAll())
	assert.Equal(t, []string{"adder", "after"}, rec.calls)

	rec.calls = nil
	s.OnFrameStart()
	require.NoError(t, s.UpdateAll())
	assert.Equal(t, []string{"late", "adder", "after"}, rec.calls)
}

func TestRemoveDuringPass(t *testing.T) {
	rec := &recorder{}
	s := newTickScheduler()

	b := &stubTask{name: "b", rec: rec}
	a := &stubTask{name: "a", rec: rec, fn: func() error { return s.RemoveTask(b) }}
	c := &stubTask{name: "c", rec: rec}
	require.NoError(t, s.AddTask(a, 0))
	require.NoError(t, s.AddTask(b, 1))
	require.NoError(t, s.AddTask(c, 2))
	s.OnFrameStart()

	require.NoError(t, s.UpdateAll())
	assert.Equal(t, []string{"a", "c"}, rec.calls)
	assert.False(t, s.Contains(b))

	// a now fails to remove b again, but the pass still completes.
	rec.calls = nil
	err := s.UpdateRange(math.MinInt, math.MaxInt)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Equal(t, []string{"a", "c"}, rec.calls)
}

func TestRemoveAfterOwnInvocation(t *testing.T) {
	rec := &recorder{}
	s := newTickScheduler()

	a := &stubTask{name: "a", rec: rec}
	b := &stubTask{name: "b", rec: rec}
	c := &stubTask{name: "c", rec: rec, fn: func() error { return s.RemoveTask(a) }}
	require.NoError(t, s.AddTask(a, 0))
	require.NoError(t, s.AddTask(b, 1))
	require.NoError(t, s.AddTask(c, 2))
	s.OnFrameStart()

	require.NoError(t, s.UpdateAll())
	assert.Equal(t, []string{"a", "b", "c"}, rec.calls)
	assert.Equal(t, []Ticker{b, c}, s.Tasks())
}

func TestDuplicateRejected(t *testing.T) {
	s := newTickScheduler()
	p := &stubTask{name: "p", rec: &recorder{}}

	require.NoError(t, s.AddTask(p, 0))
	assert.ErrorIs(t, s.AddTask(p, 1), ErrTaskExists, "queued duplicate")

	s.OnFrameStart()
	assert.ErrorIs(t, s.AddTask(p, 1), ErrTaskExists, "active duplicate")
	assert.Equal(t, 1, s.Len())
}

func TestRemoveContractViolations(t *testing.T) {
	s := newTickScheduler()
	p := &stubTask{name: "p", rec: &recorder{}}

	assert.ErrorIs(t, s.RemoveTask(p), ErrTaskNotFound)

	require.NoError(t, s.AddTask(p, 0))
	s.OnFrameStart()
	require.NoError(t, s.RemoveTask(p))
	assert.ErrorIs(t, s.RemoveTask(p), ErrTaskRemoved)

	// Compaction forgets the entry entirely.
	require.NoError(t, s.UpdateAll())
	assert.ErrorIs(t, s.RemoveTask(p), ErrTaskNotFound)
}

func TestRemoveQueuedTaskTwice(t *testing.T) {
	s := newTickScheduler()
	p := &stubTask{name: "p", rec: &recorder{}}

	require.NoError(t, s.AddTask(p, 0))
	require.NoError(t, s.RemoveTask(p))
	assert.ErrorIs(t, s.RemoveTask(p), ErrTaskRemoved)

	// The frame boundary drops the queued entry.
	s.OnFrameStart()
	assert.ErrorIs(t, s.RemoveTask(p), ErrTaskNotFound)
}

func TestRemoveQueuedTask(t *testing.T) {
	rec := &recorder{}
	s := newTickScheduler()
	p := &stubTask{name: "p", rec: rec}

	require.NoError(t, s.AddTask(p, 0))
	require.NoError(t, s.RemoveTask(p))
	assert.Equal(t, 0, s.Queued())

	s.OnFrameStart()
	require.NoError(t, s.UpdateAll())
	assert.Empty(t, rec.calls)
}

func TestUpdateRange(t *testing.T) {
	rec := &recorder{}
	s := newTickScheduler()
	require.NoError(t, s.AddTask(&stubTask{name: "low", rec: rec}, -10))
	require.NoError(t, s.AddTask(&stubTask{name: "mid", rec: rec}, 0))
	require.NoError(t, s.AddTask(&stubTask{name: "high", rec: rec}, 10))
	require.NoError(t, s.AddTask(&stubTask{name: "max", rec: rec}, math.MaxInt))
	s.OnFrameStart()

	require.NoError(t, s.UpdateRange(-10, 10))
	assert.Equal(t, []string{"low", "mid"}, rec.calls)

	rec.calls = nil
	require.NoError(t, s.UpdateRange(0, math.MaxInt))
	assert.Equal(t, []string{"mid", "high", "max"}, rec.calls)

	rec.calls = nil
	require.NoError(t, s.UpdateRange(0, math.MaxInt-1))
	assert.Equal(t, []string{"mid", "high"}, rec.calls)
}

func TestFailingTaskDoesNotStopPass(t *testing.T) {
	rec := &recorder{}
	var reported []error
	s := newTickScheduler(WithErrorHandler(func(err error) { reported = append(reported, err) }))

	boom := errors.New("boom")
	require.NoError(t, s.AddTask(&stubTask{name: "a", rec: rec, fn: func() error { return boom }}, 0))
	require.NoError(t, s.AddTask(&stubTask{name: "b", rec: rec, fn: func() error { panic("kaboom") }}, 1))
	require.NoError(t, s.AddTask(&stubTask{name: "c", rec: rec}, 2))
	s.OnFrameStart()

	err := s.UpdateAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b", "c"}, rec.calls)
	require.Len(t, reported, 2)

	var taskErr *TaskError
	require.ErrorAs(t, reported[1], &taskErr)
	assert.Equal(t, PhaseTick, taskErr.Phase)
	assert.Contains(t, taskErr.Error(), "*scheduler.stubTask")
	assert.Contains(t, taskErr.Error(), "kaboom")
}

func TestOneShot(t *testing.T) {
	rec := &recorder{}
	s := newTickScheduler(OneShot(), quiet())
	require.NoError(t, s.AddTask(&stubTask{name: "once", rec: rec}, 0))
	s.OnFrameStart()

	require.NoError(t, s.UpdateAll())
	require.NoError(t, s.UpdateAll())
	assert.Equal(t, []string{"once"}, rec.calls)
	assert.Equal(t, 0, s.Len())
}
