package app

import (
	"context"
	"log/slog"

	"pqchat/internal/domain"
	"pqchat/internal/relay"
	"pqchat/internal/services/identity"
	"pqchat/internal/store"
)

// Dialer opens user's relay connection.
type Dialer func(ctx context.Context, user domain.UserID) (domain.Transport, error)

// Wire bundles the store, relay clients and identity service for the CLI.
type Wire struct {
	Store      domain.Store
	Directory  domain.Directory
	Identities *identity.Service
	Dial       Dialer
	Log        *slog.Logger
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config, log *slog.Logger) (*Wire, error) {
	st, err := store.Open(cfg.Store, cfg.LogLevel == "debug")
	if err != nil {
		return nil, err
	}

	dir := relay.NewHTTPDirectory(cfg.RelayURL)
	if cfg.HTTP != nil {
		dir.HTTP = cfg.HTTP
	}

	base := cfg.RelayURL
	dial := func(ctx context.Context, user domain.UserID) (domain.Transport, error) {
		return relay.DialWS(ctx, base, user)
	}
	return Assemble(st, dir, dial, log), nil
}

// Assemble builds a Wire from already constructed parts.
func Assemble(st domain.Store, dir domain.Directory, dial Dialer, log *slog.Logger) *Wire {
	if log == nil {
		log = slog.Default()
	}
	return &Wire{
		Store:      st,
		Directory:  dir,
		Identities: identity.New(st, dir, log),
		Dial:       dial,
		Log:        log,
	}
}

// Close releases the store.
func (w *Wire) Close() error { return w.Store.Close() }
