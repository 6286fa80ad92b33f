package scheduler

import (
	"errors"
	"fmt"
)

const (
	DefaultFixedStep     = 1.0 / 50.0
	DefaultMaxFixedSteps = 5
)

// Frame owns one scheduler per phase and runs them in phase order.
type Frame struct {
	Init    *Scheduler[Initializer]
	Fixed   *Scheduler[FixedTicker]
	Tick    *Scheduler[Ticker]
	Late    *Scheduler[LateTicker]
	Draw    *Scheduler[Drawer]
	Dispose *Scheduler[Disposer]

	fixedStep     float64
	maxFixedSteps int

	dt          float64
	accumulator float64
	frames      uint64
}

// FrameOption configures a Frame.
type FrameOption func(*frameConfig)

type frameConfig struct {
	fixedStep     float64
	maxFixedSteps int
	opts          []Option
}

// WithFixedStep sets the fixed tick interval in seconds and the cap on fixed
// ticks per frame. Time beyond the cap is dropped.
func WithFixedStep(step float64, maxSteps int) FrameOption {
	return func(c *frameConfig) {
		c.fixedStep = step
		c.maxFixedSteps = maxSteps
	}
}

// WithFrameErrorHandler installs fn on every phase scheduler.
func WithFrameErrorHandler(fn func(error)) FrameOption {
	return func(c *frameConfig) {
		c.opts = append(c.opts, WithErrorHandler(fn))
	}
}

func NewFrame(opts ...FrameOption) *Frame {
	cfg := frameConfig{
		fixedStep:     DefaultFixedStep,
		maxFixedSteps: DefaultMaxFixedSteps,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.fixedStep <= 0 {
		cfg.fixedStep = DefaultFixedStep
	}
	if cfg.maxFixedSteps < 1 {
		cfg.maxFixedSteps = 1
	}

	f := &Frame{
		fixedStep:     cfg.fixedStep,
		maxFixedSteps: cfg.maxFixedSteps,
	}
	oneShot := append([]Option{OneShot()}, cfg.opts...)

	f.Init = New(PhaseInitialize, func(t Initializer) error { return t.Initialize() }, oneShot...)
	f.Fixed = New(PhaseFixedTick, func(t FixedTicker) error { return t.FixedTick(f.fixedStep) }, cfg.opts...)
	f.Tick = New(PhaseTick, func(t Ticker) error { return t.Tick(f.dt) }, cfg.opts...)
	f.Late = New(PhaseLateTick, func(t LateTicker) error { return t.LateTick(f.dt) }, cfg.opts...)
	f.Draw = New(PhaseDraw, func(t Drawer) error { return t.Draw() }, cfg.opts...)
	f.Dispose = New(PhaseDispose, func(t Disposer) error { return t.Dispose() }, oneShot...)
	return f
}

// Register adds task to every per-frame phase it implements. Disposer is not
// registered here; Unregister queues it.
func (f *Frame) Register(task any, priority int) error {
	ini, isInit := task.(Initializer)
	fixed, isFixed := task.(FixedTicker)
	tick, isTick := task.(Ticker)
	late, isLate := task.(LateTicker)
	draw, isDraw := task.(Drawer)

	if !isInit && !isFixed && !isTick && !isLate && !isDraw {
		return fmt.Errorf("register %T: implements no frame phase", task)
	}
	if (isInit && f.Init.Contains(ini)) ||
		(isFixed && f.Fixed.Contains(fixed)) ||
		(isTick && f.Tick.Contains(tick)) ||
		(isLate && f.Late.Contains(late)) ||
		(isDraw && f.Draw.Contains(draw)) {
		return fmt.Errorf("register %T: %w", task, ErrTaskExists)
	}

	var errs []error
	if isInit {
		errs = append(errs, f.Init.AddTask(ini, priority))
	}
	if isFixed {
		errs = append(errs, f.Fixed.AddTask(fixed, priority))
	}
	if isTick {
		errs = append(errs, f.Tick.AddTask(tick, priority))
	}
	if isLate {
		errs = append(errs, f.Late.AddTask(late, priority))
	}
	if isDraw {
		errs = append(errs, f.Draw.AddTask(draw, priority))
	}
	return errors.Join(errs...)
}

// Unregister removes task from the per-frame phases and, when it is a
// Disposer, queues its Dispose for the next frame.
func (f *Frame) Unregister(task any, priority int) error {
	found := false
	var errs []error
	remove := func(contains bool, fn func() error) {
		if contains {
			found = true
			errs = append(errs, fn())
		}
	}

	if t, ok := task.(Initializer); ok {
		remove(f.Init.Contains(t), func() error { return f.Init.RemoveTask(t) })
	}
	if t, ok := task.(FixedTicker); ok {
		remove(f.Fixed.Contains(t), func() error { return f.Fixed.RemoveTask(t) })
	}
	if t, ok := task.(Ticker); ok {
		remove(f.Tick.Contains(t), func() error { return f.Tick.RemoveTask(t) })
	}
	if t, ok := task.(LateTicker); ok {
		remove(f.Late.Contains(t), func() error { return f.Late.RemoveTask(t) })
	}
	if t, ok := task.(Drawer); ok {
		remove(f.Draw.Contains(t), func() error { return f.Draw.RemoveTask(t) })
	}
	if !found {
		return fmt.Errorf("unregister %T: %w", task, ErrTaskNotFound)
	}

	if d, ok := task.(Disposer); ok {
		errs = append(errs, f.Dispose.AddTask(d, priority))
	}
	return errors.Join(errs...)
}

// Run executes one frame of dt seconds: queued tasks are promoted, then the
// phases run as initialize, fixed ticks, tick, late tick, draw, dispose.
func (f *Frame) Run(dt float64) error {
	f.dt = dt
	f.frames++

	f.Init.OnFrameStart()
	f.Fixed.OnFrameStart()
	f.Tick.OnFrameStart()
	f.Late.OnFrameStart()
	f.Draw.OnFrameStart()
	f.Dispose.OnFrameStart()

	var errs []error
	errs = append(errs, f.Init.UpdateAll())

	f.accumulator += dt
	steps := 0
	for f.accumulator >= f.fixedStep && steps < f.maxFixedSteps {
		errs = append(errs, f.Fixed.UpdateAll())
		f.accumulator -= f.fixedStep
		steps++
	}
	if steps == f.maxFixedSteps && f.accumulator >= f.fixedStep {
		f.accumulator = 0
	}

	errs = append(errs,
		f.Tick.UpdateAll(),
		f.Late.UpdateAll(),
		f.Draw.UpdateAll(),
		f.Dispose.UpdateAll(),
	)
	return errors.Join(errs...)
}

// Frames returns how many frames have run.
func (f *Frame) Frames() uint64 {
	return f.frames
}
