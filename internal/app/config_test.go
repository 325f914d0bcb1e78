package app_test

import (
	"path/filepath"
	"testing"

	"pqchat/internal/app"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PQCHAT_HOME", "/tmp/pq")
	t.Setenv("PQCHAT_RELAY_URL", "https://relay.test")
	t.Setenv("PQCHAT_STORE", "sqlite:/tmp/pq.db")
	t.Setenv("PQCHAT_LOG_LEVEL", "debug")
	cfg := app.ConfigFromEnv()
	if cfg.Home != "/tmp/pq" || cfg.RelayURL != "https://relay.test" || cfg.Store != "sqlite:/tmp/pq.db" || cfg.LogLevel != "debug" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestConfigWithDefaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := app.Config{Home: home}.WithDefaults()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store != filepath.Join(home, "store") {
		t.Fatalf("Store = %q", cfg.Store)
	}
	if cfg.RelayURL == "" || cfg.LogLevel != "warn" {
		t.Fatalf("cfg = %+v", cfg)
	}

	kept, err := app.Config{Home: home, Store: "sqlite:x.db", LogLevel: "info"}.WithDefaults()
	if err != nil {
		t.Fatal(err)
	}
	if kept.Store != "sqlite:x.db" || kept.LogLevel != "info" {
		t.Fatalf("overrode explicit values: %+v", kept)
	}
}

func TestNewWire_FileStore(t *testing.T) {
	cfg, err := app.Config{Home: t.TempDir(), RelayURL: "http://127.0.0.1:1"}.WithDefaults()
	if err != nil {
		t.Fatal(err)
	}
	w, err := app.NewWire(cfg, nil)
	if err != nil {
		t.Fatalf("NewWire: %v", err)
	}
	defer w.Close()
	if w.Identities == nil || w.Directory == nil || w.Dial == nil {
		t.Fatalf("incomplete wire: %+v", w)
	}
}
