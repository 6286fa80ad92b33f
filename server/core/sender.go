package core

import (
	"log"

	"github.com/automoto/openworld-mp/components"
	"github.com/automoto/openworld-mp/shared/messages"
	"github.com/automoto/openworld-mp/shared/netcomponents"
	"github.com/automoto/openworld-mp/shared/transformsync"
	"github.com/leap-fish/necs/esync"
	"github.com/yohamta/donburi"
)

// Sender serializes dirty authoritative synchronizers once per sync interval
// and hands the resulting updates to publish.
type Sender struct {
	world    donburi.World
	clock    transformsync.Clock
	interval float64
	publish  func(messages.TransformUpdate)

	elapsed float64
	sent    int
}

func NewSender(world donburi.World, clock transformsync.Clock, interval float64, publish func(messages.TransformUpdate)) *Sender {
	return &Sender{
		world:    world,
		clock:    clock,
		interval: interval,
		publish:  publish,
	}
}

func (s *Sender) LateTick(dt float64) error {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return nil
	}
	s.elapsed -= s.interval
	if s.elapsed > s.interval {
		// Fell more than one interval behind, drop the backlog.
		s.elapsed = 0
	}

	now := s.clock.NetworkTime()
	components.TransformSync.Each(s.world, func(e *donburi.Entry) {
		ts := components.TransformSync.Get(e)
		if ts.Sync == nil || !ts.Sync.Authoritative() || !ts.Sync.Dirty() {
			return
		}
		nid := esync.GetNetworkId(e)
		if nid == nil {
			return
		}

		payload, err := ts.Sync.Serialize()
		if err != nil {
			log.Printf("[server] serialize entity %d: %v", *nid, err)
			return
		}

		if e.HasComponent(netcomponents.NetTransform) {
			tr := ts.Sync.Transform()
			nt := netcomponents.NewNetTransform(tr.Position, tr.Rotation)
			netcomponents.NetTransform.Set(e, &nt)
		}

		s.publish(messages.TransformUpdate{
			NetworkID:  uint(*nid),
			ServerTime: now,
			Payload:    payload,
		})
		s.sent++
	})
	return nil
}

// Sent returns the number of updates published so far.
func (s *Sender) Sent() int {
	return s.sent
}
