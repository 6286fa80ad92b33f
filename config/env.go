package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	EnvPort     = "OPENWORLD_PORT"
	EnvTickRate = "OPENWORLD_TICKRATE"
	EnvParams   = "OPENWORLD_PARAMS"
	EnvAddress  = "OPENWORLD_ADDR"
	EnvJournal  = "OPENWORLD_JOURNAL"
)

// LoadEnv loads path (usually ".env") into the environment when it exists and
// then applies the OPENWORLD_* variables over the defaults. Variables already
// set in the environment win over the file.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	} else {
		log.Printf("[config] loaded environment from %s", path)
	}
	return ApplyEnv()
}

// ApplyEnv copies the OPENWORLD_* variables into Server and Client.
func ApplyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		Server.Port = uint(port)
	}
	if v := os.Getenv(EnvTickRate); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			return fmt.Errorf("%s: invalid tick rate %q", EnvTickRate, v)
		}
		Server.TickRate = rate
	}
	if v := os.Getenv(EnvParams); v != "" {
		Server.ParamsPath = v
		Client.ParamsPath = v
	}
	if v := os.Getenv(EnvAddress); v != "" {
		Client.Address = v
	}
	if v := os.Getenv(EnvJournal); v != "" {
		Server.JournalPath = v
	}
	return nil
}
