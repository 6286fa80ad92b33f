// Package netconfig defines lightweight types shared between client and server
// for network serialization. It must have zero dependencies on rendering or
// physics libraries so the dedicated server binary stays headless.
package netconfig

import (
	"fmt"
	"math"
	"strings"
)

// ClientUpdateType selects how an observer reconciles its local pose with
// incoming snapshots.
type ClientUpdateType int

const (
	ConstantVelocity ClientUpdateType = iota
	Lerp
	Slerp
	SnapshotInterpolation
)

var clientUpdateTypeNames = map[ClientUpdateType]string{
	ConstantVelocity:      "constant_velocity",
	Lerp:                  "lerp",
	Slerp:                 "slerp",
	SnapshotInterpolation: "snapshot_interpolation",
}

func (c ClientUpdateType) String() string {
	if name, ok := clientUpdateTypeNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseEntityKind maps a zone spawn "kind" property to an EntityKind. Unknown
// names are peds.
func ParseEntityKind(s string) EntityKind {
	if s == "vehicle" {
		return KindVehicle
	}
	return KindPed
}

// Footprint returns the ground-plane collision size of an entity kind.
func (k EntityKind) Footprint() (w, d float64) {
	if k == KindVehicle {
		return 16, 24
	}
	return 6, 6
}

// Server defaults.
const (
	ProtocolVersion = "1"
	DefaultPort     = 7373
	DefaultTickRate = 30
)

// ParseClientUpdateType accepts the names produced by String, case-insensitively.
func ParseClientUpdateType(s string) (ClientUpdateType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range clientUpdateTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown client update type %q", s)
}

// MarshalText lets ClientUpdateType appear by name in YAML and JSON.
func (c ClientUpdateType) MarshalText() ([]byte, error) {
	if _, ok := clientUpdateTypeNames[c]; !ok {
		return nil, fmt.Errorf("unknown client update type %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *ClientUpdateType) UnmarshalText(b []byte) error {
	t, err := ParseClientUpdateType(string(b))
	if err != nil {
		return err
	}
	*c = t
	return nil
}

// Arrival thresholds: an observer has reached its current target when within
// both of these.
const (
	ArrivalDistance = 0.01 // world units
	ArrivalAngle    = 1.0  // degrees
)

// Synchronization defaults.
const (
	DefaultSyncInterval    = 0.1 // seconds between authoritative sends
	DefaultSnapshotLatency = 0.1 // seconds of playback delay
	DefaultLerpFactor      = 30.0
	DefaultBufferCapacity  = 64
	DefaultMaxMarkers      = 10
	PayloadSize            = 28 // flags byte + 6 float32
)

// EntityKind distinguishes replicated entity types.
type EntityKind int

const (
	KindPed EntityKind = iota
	KindVehicle
)

func (k EntityKind) String() string {
	switch k {
	case KindPed:
		return "ped"
	case KindVehicle:
		return "vehicle"
	}
	return "unknown"
}

// Task priorities (lower runs first). Entries sharing a value run in
// registration order.
const (
	PriorityNetworkReceive = -100
	PriorityPathDriver     = -50
	PrioritySync           = 0
	PriorityPhysics        = 10
	PriorityNetworkSend    = 100
	PriorityMarkers        = 200
	PriorityDiagnostics    = math.MaxInt
)
