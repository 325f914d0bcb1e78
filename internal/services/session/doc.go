// Package session runs the KEM handshake with peers on behalf of one account.
//
// Each peer moves through NoSession, RequestPending, Encapsulated or
// Decapsulated, and Established. The Registry is the single owner of that
// per-peer state and of the cached session keys. Established sessions are
// persisted with the shared secret sealed under the account passphrase, so
// a restarted process can rehydrate keys lazily on first use.
//
// Handshakes for the same peer are not serialised: the last completed
// handshake overwrites the stored session and bumps its epoch. A request
// that is never answered stays pending until the caller gives up.
package session
