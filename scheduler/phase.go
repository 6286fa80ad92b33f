package scheduler

// Phase names a category of per-frame callback.
type Phase int

const (
	PhaseInitialize Phase = iota
	PhaseFixedTick
	PhaseTick
	PhaseLateTick
	PhaseDraw
	PhaseDispose
)

func (p Phase) String() string {
	switch p {
	case PhaseInitialize:
		return "initialize"
	case PhaseFixedTick:
		return "fixed-tick"
	case PhaseTick:
		return "tick"
	case PhaseLateTick:
		return "late-tick"
	case PhaseDraw:
		return "draw"
	case PhaseDispose:
		return "dispose"
	}
	return "unknown"
}

// Initializer runs once, on the first frame after registration.
type Initializer interface {
	Initialize() error
}

// FixedTicker runs zero or more times per frame at a fixed step.
type FixedTicker interface {
	FixedTick(dt float64) error
}

// Ticker runs once per frame.
type Ticker interface {
	Tick(dt float64) error
}

// LateTicker runs once per frame after every Ticker.
type LateTicker interface {
	LateTick(dt float64) error
}

// Drawer runs once per frame after the late ticks.
type Drawer interface {
	Draw() error
}

// Disposer runs once, on the first frame after the task is unregistered.
type Disposer interface {
	Dispose() error
}
