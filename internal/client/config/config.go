package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the CLI.
type Config struct {
	ServerURL      string        `env:"BACKOFFICE_SERVER_URL"`
	SessionFile    string        `env:"BACKOFFICE_SESSION_FILE"`
	RequestTimeout time.Duration `env:"BACKOFFICE_REQUEST_TIMEOUT"`
}

const sessionDirName = ".backoffice"

// userHomeDir is a seam for tests.
var userHomeDir = os.UserHomeDir

// LoadDefaults populates c with sensible defaults. The session database lives
// in the user's home directory, or the working directory when there is none.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 30 * time.Second

	dir := sessionDirName
	if home, err := userHomeDir(); err == nil && home != "" {
		dir = filepath.Join(home, sessionDirName)
	}
	c.SessionFile = filepath.Join(dir, "session.db")
}

// LoadConfig constructs a Config from defaults, the JSON file at jsonPath
// (skipped when empty) and the environment, later sources winning.
func LoadConfig(jsonPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, jsonPath); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
