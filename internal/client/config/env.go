package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// loadDotEnv is a seam so tests do not pick up a developer's .env file.
var loadDotEnv = func() { _ = godotenv.Load() }

func parseEnv(cfg *Config) error {
	loadDotEnv()
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
