package interfaces

import (
	"context"

	domaintypes "pqchat/internal/domain/types"
)

// IdentityStore persists sealed identity records, one per user.
type IdentityStore interface {
	SaveIdentity(ctx context.Context, rec domaintypes.IdentityRecord) error
	LoadIdentity(
		ctx context.Context,
		user domaintypes.UserID,
	) (domaintypes.IdentityRecord, bool, error)
	DeleteIdentity(ctx context.Context, user domaintypes.UserID) error
}

// PeerSessionStore persists one sealed session per (owner, peer) pair.
type PeerSessionStore interface {
	SavePeerSession(ctx context.Context, s domaintypes.PeerSession) error
	LoadPeerSession(
		ctx context.Context,
		owner domaintypes.UserID,
		peer domaintypes.UserID,
	) (domaintypes.PeerSession, bool, error)
	ListPeerSessions(
		ctx context.Context,
		owner domaintypes.UserID,
	) ([]domaintypes.PeerSession, error)
	DeletePeerSession(
		ctx context.Context,
		owner domaintypes.UserID,
		peer domaintypes.UserID,
	) error
}

// MessageStore is an append-only log of encrypted messages per conversation.
type MessageStore interface {
	AppendMessage(ctx context.Context, m domaintypes.Message) error
	// ListMessages returns the conversation ordered by CreatedAt.
	ListMessages(
		ctx context.Context,
		owner domaintypes.UserID,
		peer domaintypes.UserID,
	) ([]domaintypes.Message, error)
}

// DirectoryStore caches peers' signature public keys.
type DirectoryStore interface {
	SaveDirectoryEntry(ctx context.Context, e domaintypes.DirectoryEntry) error
	LoadDirectoryEntry(
		ctx context.Context,
		peer domaintypes.UserID,
	) (domaintypes.DirectoryEntry, bool, error)
}

// Store bundles every record type behind one backend.
type Store interface {
	IdentityStore
	PeerSessionStore
	MessageStore
	DirectoryStore
	Close() error
}
