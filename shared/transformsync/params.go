package transformsync

import (
	"fmt"

	"github.com/automoto/openworld-mp/shared/netconfig"
)

// Parameters tunes a Synchronizer. Zero values are not usable; start from
// DefaultParameters.
type Parameters struct {
	UseSmoothDeltaTime         bool                       `yaml:"useSmoothDeltaTime" json:"useSmoothDeltaTime"`
	ClientUpdateType           netconfig.ClientUpdateType `yaml:"clientUpdateType" json:"clientUpdateType"`
	ConstantVelocityMultiplier float64                    `yaml:"constantVelocityMultiplier" json:"constantVelocityMultiplier"`
	LerpFactor                 float64                    `yaml:"lerpFactor" json:"lerpFactor"`
	UseRigidBody               bool                       `yaml:"useRigidBody" json:"useRigidBody"`

	Visualize            bool    `yaml:"visualize" json:"visualize"`
	MaxNumVisualizations int     `yaml:"maxNumVisualizations" json:"maxNumVisualizations"`
	VisualizationScale   float64 `yaml:"visualizationScale" json:"visualizationScale"`

	SnapshotLatency float64 `yaml:"snapshotLatency" json:"snapshotLatency"` // seconds
	SyncInterval    float64 `yaml:"syncInterval" json:"syncInterval"`       // seconds
	BufferCapacity  int     `yaml:"bufferCapacity" json:"bufferCapacity"`
}

func DefaultParameters() Parameters {
	return Parameters{
		ClientUpdateType:           netconfig.ConstantVelocity,
		ConstantVelocityMultiplier: 1,
		LerpFactor:                 netconfig.DefaultLerpFactor,
		MaxNumVisualizations:       netconfig.DefaultMaxMarkers,
		VisualizationScale:         1,
		SnapshotLatency:            netconfig.DefaultSnapshotLatency,
		SyncInterval:               netconfig.DefaultSyncInterval,
		BufferCapacity:             netconfig.DefaultBufferCapacity,
	}
}

func (p Parameters) Validate() error {
	switch {
	case p.SyncInterval <= 0:
		return fmt.Errorf("syncInterval must be positive, got %v", p.SyncInterval)
	case p.BufferCapacity < 2:
		return fmt.Errorf("bufferCapacity must be at least 2, got %d", p.BufferCapacity)
	case p.ConstantVelocityMultiplier < 0:
		return fmt.Errorf("constantVelocityMultiplier must not be negative, got %v", p.ConstantVelocityMultiplier)
	case p.LerpFactor < 0:
		return fmt.Errorf("lerpFactor must not be negative, got %v", p.LerpFactor)
	case p.SnapshotLatency < 0:
		return fmt.Errorf("snapshotLatency must not be negative, got %v", p.SnapshotLatency)
	case p.Visualize && p.MaxNumVisualizations < 1:
		return fmt.Errorf("maxNumVisualizations must be positive when visualizing, got %d", p.MaxNumVisualizations)
	}
	if _, err := p.ClientUpdateType.MarshalText(); err != nil {
		return err
	}
	return nil
}
