// Package scheduler runs per-frame callbacks in a deterministic order.
//
// A Scheduler holds the tasks of a single phase (tick, fixed tick, late tick,
// initialize, dispose, draw) ordered by integer priority, lower first, ties in
// registration order. Tasks added during a frame only become eligible at the
// next OnFrameStart, and removal is lazy so that tasks may add or remove
// siblings while a pass is running.
package scheduler

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
)

var (
	ErrTaskExists   = errors.New("task already registered")
	ErrTaskNotFound = errors.New("task not registered")
	ErrTaskRemoved  = errors.New("task already removed")
)

// TaskError reports a failure of a single task during a pass.
type TaskError struct {
	Phase Phase
	Task  any
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s task %T: %v", e.Phase, e.Task, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

type taskInfo[T comparable] struct {
	task     T
	priority int
	removed  bool
}

// Scheduler is an ordered task list for one phase. T must have comparable
// dynamic values; pointer receivers are the usual choice.
type Scheduler[T comparable] struct {
	phase   Phase
	invoke  func(T) error
	oneShot bool
	onError func(error)

	active []*taskInfo[T]
	queued []*taskInfo[T]
	index  map[T]*taskInfo[T] // live (not removed) entries, active or queued

	updating bool
}

// Option configures a Scheduler.
type Option func(*options)

type options struct {
	oneShot bool
	onError func(error)
}

// OneShot removes each task right after its first invocation.
func OneShot() Option {
	return func(o *options) { o.oneShot = true }
}

// WithErrorHandler replaces the default handler, which logs task failures.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

func logTaskError(err error) {
	log.Printf("[scheduler] fatal: %v", err)
}

// New creates a scheduler for phase that calls invoke once per task per pass.
func New[T comparable](phase Phase, invoke func(T) error, opts ...Option) *Scheduler[T] {
	o := options{onError: logTaskError}
	for _, opt := range opts {
		opt(&o)
	}
	if o.onError == nil {
		o.onError = logTaskError
	}
	return &Scheduler[T]{
		phase:   phase,
		invoke:  invoke,
		oneShot: o.oneShot,
		onError: o.onError,
		index:   make(map[T]*taskInfo[T]),
	}
}

// Phase returns the phase this scheduler runs.
func (s *Scheduler[T]) Phase() Phase {
	return s.phase
}

// AddTask queues task for activation at the next OnFrameStart.
func (s *Scheduler[T]) AddTask(task T, priority int) error {
	if _, ok := s.index[task]; ok {
		return fmt.Errorf("%s add %T: %w", s.phase, task, ErrTaskExists)
	}
	info := &taskInfo[T]{task: task, priority: priority}
	s.index[task] = info
	s.queued = append(s.queued, info)
	return nil
}

// RemoveTask marks task removed. It is skipped from then on and physically
// dropped at the end of the next pass.
func (s *Scheduler[T]) RemoveTask(task T) error {
	info, ok := s.index[task]
	if !ok {
		for _, list := range [][]*taskInfo[T]{s.active, s.queued} {
			for _, a := range list {
				if a.removed && a.task == task {
					return fmt.Errorf("%s remove %T: %w", s.phase, task, ErrTaskRemoved)
				}
			}
		}
		return fmt.Errorf("%s remove %T: %w", s.phase, task, ErrTaskNotFound)
	}
	info.removed = true
	delete(s.index, task)
	return nil
}

// Contains reports whether task is active or queued and not removed.
func (s *Scheduler[T]) Contains(task T) bool {
	_, ok := s.index[task]
	return ok
}

// Len returns the number of live tasks, active or queued.
func (s *Scheduler[T]) Len() int {
	return len(s.index)
}

// Queued returns the number of tasks waiting for the next frame boundary.
func (s *Scheduler[T]) Queued() int {
	n := 0
	for _, info := range s.queued {
		if !info.removed {
			n++
		}
	}
	return n
}

// Tasks returns the live active tasks in execution order.
func (s *Scheduler[T]) Tasks() []T {
	out := make([]T, 0, len(s.active))
	for _, info := range s.active {
		if !info.removed {
			out = append(out, info.task)
		}
	}
	return out
}

// OnFrameStart promotes queued tasks into the active list. Equal priorities
// keep registration order: a newcomer goes after every existing peer.
func (s *Scheduler[T]) OnFrameStart() {
	if s.updating || len(s.queued) == 0 {
		return
	}
	for _, info := range s.queued {
		if info.removed {
			continue
		}
		i := sort.Search(len(s.active), func(i int) bool {
			return s.active[i].priority > info.priority
		})
		s.active = append(s.active, nil)
		copy(s.active[i+1:], s.active[i:])
		s.active[i] = info
	}
	clear(s.queued)
	s.queued = s.queued[:0]
}

// UpdateAll invokes every active task once.
func (s *Scheduler[T]) UpdateAll() error {
	return s.UpdateRange(math.MinInt, math.MaxInt)
}

// UpdateRange invokes active tasks whose priority lies in
// [minPriority, maxPriority). A maxPriority of math.MaxInt also includes tasks
// registered at math.MaxInt.
//
// A failing task does not stop the pass; every failure goes to the error
// handler and the joined failures are returned.
func (s *Scheduler[T]) UpdateRange(minPriority, maxPriority int) error {
	if s.updating {
		return fmt.Errorf("%s: nested update", s.phase)
	}
	s.updating = true

	var errs []error
	for i := 0; i < len(s.active); i++ {
		info := s.active[i]
		if info.removed || info.priority < minPriority {
			continue
		}
		if info.priority >= maxPriority && !(maxPriority == math.MaxInt && info.priority == math.MaxInt) {
			break
		}
		if err := s.call(info.task); err != nil {
			s.onError(err)
			errs = append(errs, err)
		}
		if s.oneShot && !info.removed {
			info.removed = true
			delete(s.index, info.task)
		}
	}

	s.updating = false
	s.compact()
	return errors.Join(errs...)
}

func (s *Scheduler[T]) call(task T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TaskError{Phase: s.phase, Task: task, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := s.invoke(task); err != nil {
		return &TaskError{Phase: s.phase, Task: task, Err: err}
	}
	return nil
}

func (s *Scheduler[T]) compact() {
	kept := s.active[:0]
	for _, info := range s.active {
		if !info.removed {
			kept = append(kept, info)
		}
	}
	clear(s.active[len(kept):])
	s.active = kept
}
