package types

import "pqchat/internal/util/memzero"

// Account is the explicit per-connection context: the decrypted identity and
// the passphrase needed to seal and unseal peer secrets. It is built when an
// identity is loaded and must be closed when the connection ends.
type Account struct {
	Identity   Identity
	passphrase []byte
}

// NewAccount takes ownership of id and copies passphrase.
func NewAccount(id Identity, passphrase string) *Account {
	return &Account{Identity: id, passphrase: []byte(passphrase)}
}

// UserID returns the owning user.
func (a *Account) UserID() UserID { return a.Identity.UserID }

// Passphrase returns the passphrase; empty after Close.
func (a *Account) Passphrase() string { return string(a.passphrase) }

// Closed reports whether Close has run.
func (a *Account) Closed() bool { return a.passphrase == nil }

// Close overwrites the private keys and passphrase held by the account.
func (a *Account) Close() {
	memzero.All(a.passphrase, a.Identity.KEMPrivateKey, a.Identity.SigningPrivateKey)
	a.passphrase = nil
	a.Identity.KEMPrivateKey = nil
	a.Identity.SigningPrivateKey = nil
}

