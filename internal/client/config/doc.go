// Package config loads runtime configuration for the back-office CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file, passed with --config.
//  3. Environment variables (and a .env file in the working directory).
//
// Command-line flags are owned by the cobra commands and applied last.
//
// # JSON schema
//
// The JSON loader uses timex.Duration, so the timeout can be either a string
// like "30s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "session_file": "/home/me/.backoffice/session.db",
//	  "request_timeout": "30s"
//	}
//
// # Environment
//
//	BACKOFFICE_SERVER_URL, BACKOFFICE_SESSION_FILE, BACKOFFICE_REQUEST_TIMEOUT
package config
