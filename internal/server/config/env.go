package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// loadDotEnv is a seam so tests do not pick up a developer's .env file.
var loadDotEnv = func() { _ = godotenv.Load() }

// parseEnv overlays values from environment variables (optionally seeded
// from a .env file in the working directory). Unset variables leave the
// current value in place. Malformed values panic, like a broken JSON file.
func parseEnv(config *Config) {
	loadDotEnv()
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
