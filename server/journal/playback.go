package journal

import (
	"context"
	"fmt"
	"sort"

	"github.com/automoto/openworld-mp/shared/messages"
	"github.com/automoto/openworld-mp/shared/transformsync"
	"github.com/go-gl/mathgl/mgl64"
)

// settleTime is how long playback keeps ticking after the last update.
const settleTime = 1.0

// Result is one entity's state after playback.
type Result struct {
	NetworkID uint
	Updates   int
	Dropped   int
	Position  mgl64.Vec3
	Distance  float64 // remaining position error
	Degrees   float64 // remaining rotation error
}

// playbackClock runs on recorded server time.
type playbackClock struct {
	now, delta float64
}

func (c *playbackClock) NetworkTime() float64     { return c.now }
func (c *playbackClock) DeltaTime() float64       { return c.delta }
func (c *playbackClock) SmoothDeltaTime() float64 { return c.delta }

type playbackEntity struct {
	sync    *transformsync.Synchronizer
	updates int
}

// Play feeds the journal through one observer synchronizer per entity, ticking
// them every step seconds of recorded server time, and reports where each
// entity ended up.
func Play(ctx context.Context, j *Journal, params transformsync.Parameters, step float64) ([]Result, error) {
	if step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %v", step)
	}

	clock := &playbackClock{delta: step}
	entities := make(map[uint]*playbackEntity)
	started := false

	tickAll := func() error {
		for id, e := range entities {
			if err := e.sync.Tick(step); err != nil {
				return fmt.Errorf("entity %d: %w", id, err)
			}
		}
		return nil
	}
	advanceTo := func(t float64) error {
		for clock.now+step <= t {
			clock.now += step
			if err := tickAll(); err != nil {
				return err
			}
		}
		return nil
	}

	err := j.Replay(ctx, func(u messages.TransformUpdate) error {
		if !started {
			clock.now = u.ServerTime
			started = true
		}
		if err := advanceTo(u.ServerTime); err != nil {
			return err
		}

		e, ok := entities[u.NetworkID]
		if !ok {
			s, err := transformsync.New(params, transformsync.NewTransform(mgl64.Vec3{}), nil, clock)
			if err != nil {
				return err
			}
			e = &playbackEntity{sync: s}
			entities[u.NetworkID] = e
		}
		e.updates++
		return e.sync.Deserialize(u.Payload, u.ServerTime)
	})
	if err != nil {
		return nil, err
	}

	if err := advanceTo(clock.now + settleTime); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(entities))
	for id, e := range entities {
		dist, deg := e.sync.Error()
		results = append(results, Result{
			NetworkID: id,
			Updates:   e.updates,
			Dropped:   e.sync.Dropped(),
			Position:  e.sync.Transform().Position,
			Distance:  dist,
			Degrees:   deg,
		})
	}
	sort.Slice(results, func(a, b int) bool {
		return results[a].NetworkID < results[b].NetworkID
	})
	return results, nil
}
