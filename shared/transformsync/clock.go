package transformsync

import "time"

// Clock supplies frame timing and the local estimate of the sender's clock.
type Clock interface {
	NetworkTime() float64
	DeltaTime() float64
	SmoothDeltaTime() float64
}

const smoothDeltaWeight = 0.2

// FrameClock is a Clock advanced once per frame.
type FrameClock struct {
	now    func() time.Time
	start  time.Time
	last   time.Time
	offset float64

	delta  float64
	smooth float64
	frames uint64
}

// NewFrameClock starts a clock at now(). A nil now uses time.Now.
func NewFrameClock(now func() time.Time) *FrameClock {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &FrameClock{now: now, start: t, last: t}
}

// Advance samples the frame delta and returns it in seconds.
func (c *FrameClock) Advance() float64 {
	t := c.now()
	c.delta = t.Sub(c.last).Seconds()
	c.last = t
	if c.frames == 0 {
		c.smooth = c.delta
	} else {
		c.smooth += (c.delta - c.smooth) * smoothDeltaWeight
	}
	c.frames++
	return c.delta
}

// LocalTime returns seconds since the clock started.
func (c *FrameClock) LocalTime() float64 {
	return c.now().Sub(c.start).Seconds()
}

// NetworkTime is LocalTime shifted by the estimated offset to the sender.
func (c *FrameClock) NetworkTime() float64 {
	return c.LocalTime() + c.offset
}

// SetOffset sets the sender clock minus the local clock, in seconds.
func (c *FrameClock) SetOffset(offset float64) {
	c.offset = offset
}

func (c *FrameClock) Offset() float64 {
	return c.offset
}

func (c *FrameClock) DeltaTime() float64 {
	return c.delta
}

func (c *FrameClock) SmoothDeltaTime() float64 {
	return c.smooth
}
