package interfaces

import (
	"context"

	domaintypes "pqchat/internal/domain/types"
)

// IdentityService creates, loads and publishes long-term identities.
type IdentityService interface {
	GenerateIdentity(
		ctx context.Context,
		user domaintypes.UserID,
		passphrase string,
	) (domaintypes.PublicKeys, error)
	LoadIdentity(
		ctx context.Context,
		user domaintypes.UserID,
		passphrase string,
	) (domaintypes.Identity, error)
	IdentityExists(ctx context.Context, user domaintypes.UserID) (bool, error)
	PublicKeys(ctx context.Context, user domaintypes.UserID) (domaintypes.PublicKeys, error)
	Fingerprint(ctx context.Context, user domaintypes.UserID) (domaintypes.Fingerprint, error)
	Open(
		ctx context.Context,
		user domaintypes.UserID,
		passphrase string,
	) (*domaintypes.Account, error)
	Publish(ctx context.Context, user domaintypes.UserID) error
	DeleteIdentity(ctx context.Context, user domaintypes.UserID) error
}

// SessionService runs the KEM handshake with peers for one account.
type SessionService interface {
	RequestSession(ctx context.Context, peer domaintypes.UserID) error
	HandleRequest(from domaintypes.UserID)
	PendingRequests() []domaintypes.UserID
	Accept(ctx context.Context, peer domaintypes.UserID) error
	Complete(ctx context.Context, msg domaintypes.WireMessage) error
	SessionKey(ctx context.Context, peer domaintypes.UserID) ([]byte, error)
	State(peer domaintypes.UserID) domaintypes.HandshakeState
	Peers() []domaintypes.UserID
}

// MessageService encrypts, signs, verifies, decrypts and records chat messages.
type MessageService interface {
	Send(
		ctx context.Context,
		peer domaintypes.UserID,
		text string,
	) (domaintypes.DecryptedMessage, error)
	Receive(
		ctx context.Context,
		msg domaintypes.WireMessage,
	) (domaintypes.DecryptedMessage, error)
	History(
		ctx context.Context,
		peer domaintypes.UserID,
	) ([]domaintypes.DecryptedMessage, error)
	RestoreHistories(ctx context.Context) map[domaintypes.UserID][]domaintypes.DecryptedMessage
}
