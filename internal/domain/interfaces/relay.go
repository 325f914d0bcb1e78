package interfaces

import (
	"context"

	domaintypes "pqchat/internal/domain/types"
)

// Transport is the bidirectional message channel to the relay.
type Transport interface {
	Send(ctx context.Context, msg domaintypes.WireMessage) error
	// Receive blocks until the next message arrives, ctx ends, or the
	// channel closes.
	Receive(ctx context.Context) (domaintypes.WireMessage, error)
	Close() error
}

// Directory is the public-key directory and presence service.
type Directory interface {
	Publish(ctx context.Context, keys domaintypes.PublicKeys) error
	FetchKEMKey(
		ctx context.Context,
		user domaintypes.UserID,
	) (domaintypes.KEMPublicKey, error)
	FetchSigningKey(
		ctx context.Context,
		user domaintypes.UserID,
	) (domaintypes.SigningPublicKey, error)
	Online(ctx context.Context, self, peer domaintypes.UserID) (bool, error)
}
