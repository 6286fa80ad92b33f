package config

import (
	"encoding/json"
	"log"

	"github.com/quasilyte/gdata"
)

// Profile is what the observer remembers between runs.
type Profile struct {
	Address    string `json:"address"`
	Name       string `json:"name"`
	ParamsPath string `json:"paramsPath"`
}

const profileKey = "profile"

// ProfileStore persists the Profile through gdata.
type ProfileStore struct {
	m *gdata.Manager
}

// OpenProfileStore opens the per-user data directory of appName.
func OpenProfileStore(appName string) (*ProfileStore, error) {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, err
	}
	return &ProfileStore{m: m}, nil
}

// Load returns the saved profile, or nil if none was saved yet.
func (s *ProfileStore) Load() (*Profile, error) {
	data, err := s.m.LoadItem(profileKey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("[config] could not parse saved profile: %v", err)
		return nil, err
	}
	return &p, nil
}

func (s *ProfileStore) Save(p *Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.m.SaveItem(profileKey, data)
}

// Apply copies non-empty profile fields into Client.
func (p *Profile) Apply() {
	if p == nil {
		return
	}
	if p.Address != "" {
		Client.Address = p.Address
	}
	if p.Name != "" {
		Client.Name = p.Name
	}
	if p.ParamsPath != "" {
		Client.ParamsPath = p.ParamsPath
	}
}

// CurrentProfile captures Client for saving.
func CurrentProfile() *Profile {
	return &Profile{
		Address:    Client.Address,
		Name:       Client.Name,
		ParamsPath: Client.ParamsPath,
	}
}
