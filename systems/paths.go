package systems

import (
	"log"
	"math"

	"github.com/automoto/openworld-mp/components"
	"github.com/automoto/openworld-mp/shared/gamemath"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"
)

const blockedEpsilon = 1e-6

// NewPatrol builds a closed loop through waypoints travelled at speed units
// per second.
func NewPatrol(waypoints []mgl64.Vec3, speed, turnRate float64) components.PathData {
	seq := gween.NewSequence()
	n := len(waypoints)
	if n > 1 && speed > 0 {
		for i := 0; i < n; i++ {
			dist := waypoints[(i+1)%n].Sub(waypoints[i]).Len()
			seq.Add(gween.New(float32(i), float32(i+1), float32(dist/speed), ease.Linear))
		}
		seq.SetLoop(-1)
	}
	return components.PathData{
		Waypoints: waypoints,
		Progress:  seq,
		TurnRate:  turnRate,
	}
}

// PointAlong returns the position s segments along the closed loop.
func PointAlong(waypoints []mgl64.Vec3, s float64) mgl64.Vec3 {
	n := len(waypoints)
	if n == 0 {
		return mgl64.Vec3{}
	}
	if n == 1 || s <= 0 {
		return waypoints[0]
	}
	seg := math.Floor(s)
	i := int(seg) % n
	return gamemath.LerpVec3(waypoints[i], waypoints[(i+1)%n], s-seg)
}

// PathDriver moves authoritative entities along their patrol loops and turns
// them to face their direction of travel.
type PathDriver struct {
	world donburi.World
}

func NewPathDriver(world donburi.World) *PathDriver {
	return &PathDriver{world: world}
}

func (p *PathDriver) Tick(dt float64) error {
	components.Path.Each(p.world, func(e *donburi.Entry) {
		if !e.HasComponent(components.TransformSync) {
			return
		}
		path := components.Path.Get(e)
		ts := components.TransformSync.Get(e)
		if ts.Sync == nil || path.Progress == nil {
			return
		}
		tr := ts.Sync.Transform()

		s, _, _ := path.Progress.Update(float32(dt))
		delta := PointAlong(path.Waypoints, float64(s)).Sub(tr.Position)

		if ts.Body != nil {
			dx, dz := ts.Body.Slide(delta.X(), delta.Z())
			blocked := math.Abs(dx-delta.X()) > blockedEpsilon || math.Abs(dz-delta.Z()) > blockedEpsilon
			if blocked && !path.Blocked {
				log.Printf("[paths] entity %d blocked at %.1f,%.1f", e.Entity().Id(), tr.Position.X(), tr.Position.Z())
			}
			path.Blocked = blocked
			if blocked {
				path.BlockedFor += dt
			} else {
				path.BlockedFor = 0
			}
			ts.Body.MoveTo(tr.Position.Add(mgl64.Vec3{dx, delta.Y(), dz}))
		} else {
			tr.Position = tr.Position.Add(delta)
		}

		flat := mgl64.Vec3{delta.X(), 0, delta.Z()}
		if flat.Len() > blockedEpsilon {
			yaw := mgl64.RadToDeg(math.Atan2(flat.X(), flat.Z()))
			want := gamemath.EulerToQuat(mgl64.Vec3{0, yaw, 0})
			tr.Rotation = gamemath.RotateTowards(tr.Rotation, want, path.TurnRate*dt)
		}
	})
	return nil
}
