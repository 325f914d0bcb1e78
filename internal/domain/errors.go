package domain

import "errors"

// Error taxonomy shared by every layer. Callers wrap these with fmt.Errorf
// and match them with errors.Is.
var (
	// ErrValidation marks malformed or out-of-bounds input such as key material.
	ErrValidation = errors.New("validation failed")
	// ErrAuthentication marks an AEAD tag mismatch, wrong passphrase or bad signature.
	ErrAuthentication = errors.New("authentication failed")
	// ErrNotFound marks a missing identity, peer record or directory entry.
	ErrNotFound = errors.New("not found")
	// ErrSessionMissing marks messaging attempted before a handshake completed.
	ErrSessionMissing = errors.New("no session with peer")
	// ErrUnknownSigner marks a message from a peer with no signature key on file.
	ErrUnknownSigner = errors.New("unknown signer")
	// ErrTransport marks an unreachable relay or directory.
	ErrTransport = errors.New("transport error")
)
