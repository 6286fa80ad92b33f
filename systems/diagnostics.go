package systems

import (
	"log"
	"math"

	"github.com/automoto/openworld-mp/components"
	"github.com/yohamta/donburi"
)

// SyncStats summarizes how far observers lag behind their targets.
type SyncStats struct {
	Entities    int
	Initialized int
	MeanError   float64 // world units
	MaxError    float64
	MeanDegrees float64
	Dropped     int
}

// Summarize gathers SyncStats over every observer synchronizer in world.
func Summarize(world donburi.World) SyncStats {
	var st SyncStats
	components.TransformSync.Each(world, func(e *donburi.Entry) {
		ts := components.TransformSync.Get(e)
		if ts.Sync == nil || ts.Sync.Authoritative() {
			return
		}
		st.Entities++
		st.Dropped += ts.Sync.Dropped()
		if !ts.Sync.Initialized() {
			return
		}
		st.Initialized++
		dist, deg := ts.Sync.Error()
		st.MeanError += dist
		st.MeanDegrees += deg
		st.MaxError = math.Max(st.MaxError, dist)
	})
	if st.Initialized > 0 {
		st.MeanError /= float64(st.Initialized)
		st.MeanDegrees /= float64(st.Initialized)
	}
	return st
}

// Reporter logs SyncStats at a fixed interval.
type Reporter struct {
	world    donburi.World
	interval float64
	elapsed  float64
	last     SyncStats
}

func NewReporter(world donburi.World, interval float64) *Reporter {
	return &Reporter{world: world, interval: interval}
}

func (r *Reporter) LateTick(dt float64) error {
	r.elapsed += dt
	if r.elapsed < r.interval {
		return nil
	}
	r.elapsed = 0
	r.last = Summarize(r.world)
	log.Printf("[client] %d entities (%d live), error mean %.3f max %.3f, %.2f deg, %d dropped",
		r.last.Entities, r.last.Initialized, r.last.MeanError, r.last.MaxError, r.last.MeanDegrees, r.last.Dropped)
	return nil
}

// Last returns the most recently reported stats.
func (r *Reporter) Last() SyncStats {
	return r.last
}
