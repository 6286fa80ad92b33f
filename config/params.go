package config

import (
	"fmt"
	"os"

	"github.com/automoto/openworld-mp/shared/transformsync"
	"gopkg.in/yaml.v3"
)

// LoadParameters reads synchronizer parameters from a YAML file. Keys absent
// from the file keep their value in base.
func LoadParameters(path string, base transformsync.Parameters) (transformsync.Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read parameters %s: %w", path, err)
	}
	return ParseParameters(data, base)
}

// ParseParameters is LoadParameters for in-memory YAML.
func ParseParameters(data []byte, base transformsync.Parameters) (transformsync.Parameters, error) {
	p := base
	if err := yaml.Unmarshal(data, &p); err != nil {
		return base, fmt.Errorf("failed to parse YAML parameters: %w", err)
	}
	if err := p.Validate(); err != nil {
		return base, fmt.Errorf("invalid parameters: %w", err)
	}
	return p, nil
}

// MarshalParameters renders p as YAML, e.g. to seed a parameters file.
func MarshalParameters(p transformsync.Parameters) ([]byte, error) {
	return yaml.Marshal(p)
}
