package app

import (
	"net/http"
	"os"
	"path/filepath"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home     string       // data directory, e.g. $HOME/.pqchat
	RelayURL string       // relay base URL, e.g. http://127.0.0.1:8000
	Store    string       // store DSN; empty means a file store under Home
	LogLevel string       // debug, info, warn or error
	HTTP     *http.Client // optional; the directory client's default otherwise
}

// ConfigFromEnv reads PQCHAT_* variables. Missing values are left empty
// for flags or defaults to fill.
func ConfigFromEnv() Config {
	return Config{
		Home:     os.Getenv("PQCHAT_HOME"),
		RelayURL: os.Getenv("PQCHAT_RELAY_URL"),
		Store:    os.Getenv("PQCHAT_STORE"),
		LogLevel: os.Getenv("PQCHAT_LOG_LEVEL"),
	}
}

// WithDefaults fills Home, RelayURL, Store and LogLevel when unset.
func (c Config) WithDefaults() (Config, error) {
	if c.Home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return c, err
		}
		c.Home = filepath.Join(dir, ".pqchat")
	}
	if c.RelayURL == "" {
		c.RelayURL = "http://127.0.0.1:8000"
	}
	if c.Store == "" {
		c.Store = filepath.Join(c.Home, "store")
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	return c, nil
}
