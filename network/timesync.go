package network

import (
	"math"

	"github.com/automoto/openworld-mp/shared/messages"
)

const timeSampleWindow = 8

type timeSample struct {
	rtt    float64
	offset float64
}

// OffsetEstimator tracks the server clock relative to the local clock from
// request/response round trips. Of the most recent samples it trusts the one
// with the shortest round trip, whose midpoint assumption is least wrong.
type OffsetEstimator struct {
	history [timeSampleWindow]timeSample
	count   int
	next    int
}

// Observe records a round trip: sent and received are local times, server is
// the server clock when it answered. Negative round trips are ignored.
func (e *OffsetEstimator) Observe(sent, server, received float64) bool {
	rtt := received - sent
	if rtt < 0 || math.IsNaN(rtt) {
		return false
	}
	e.history[e.next] = timeSample{
		rtt:    rtt,
		offset: server + rtt/2 - received,
	}
	e.next = (e.next + 1) % timeSampleWindow
	if e.count < timeSampleWindow {
		e.count++
	}
	return true
}

func (e *OffsetEstimator) best() (timeSample, bool) {
	if e.count == 0 {
		return timeSample{}, false
	}
	best := e.history[0]
	for i := 1; i < e.count; i++ {
		if e.history[i].rtt < best.rtt {
			best = e.history[i]
		}
	}
	return best, true
}

// Offset returns server minus local time, or 0 before the first sample.
func (e *OffsetEstimator) Offset() float64 {
	s, _ := e.best()
	return s.offset
}

// RTT returns the round trip of the sample Offset is based on.
func (e *OffsetEstimator) RTT() float64 {
	s, _ := e.best()
	return s.rtt
}

func (e *OffsetEstimator) Samples() int {
	return e.count
}

// OffsetClock is the part of transformsync.FrameClock the time keeper drives.
type OffsetClock interface {
	LocalTime() float64
	SetOffset(offset float64)
}

// TimeSource yields time sync answers received from the server.
type TimeSource interface {
	DrainTimeSyncs() []messages.TimeSync
}

// TimeKeeper periodically asks the server for its clock and keeps the local
// clock's offset at the current best estimate.
type TimeKeeper struct {
	clock    OffsetClock
	source   TimeSource
	send     func(msg any) error
	interval float64
	elapsed  float64
	est      OffsetEstimator
}

func NewTimeKeeper(clock OffsetClock, source TimeSource, send func(msg any) error, interval float64) *TimeKeeper {
	return &TimeKeeper{
		clock:    clock,
		source:   source,
		send:     send,
		interval: interval,
		elapsed:  interval, // ask on the first tick
	}
}

func (k *TimeKeeper) Tick(dt float64) error {
	for _, ts := range k.source.DrainTimeSyncs() {
		if k.est.Observe(ts.ClientTime, ts.ServerTime, k.clock.LocalTime()) {
			k.clock.SetOffset(k.est.Offset())
		}
	}

	k.elapsed += dt
	if k.elapsed < k.interval {
		return nil
	}
	k.elapsed = 0
	return k.send(messages.TimeSyncRequest{ClientTime: k.clock.LocalTime()})
}

func (k *TimeKeeper) Estimator() *OffsetEstimator {
	return &k.est
}
