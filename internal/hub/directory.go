package hub

import (
	"fmt"
	"sync"

	"pqchat/internal/crypto"
	"pqchat/internal/domain"
)

type publishedKeys struct {
	kem string
	sig string
}

// Directory maps users to their published public keys. Keys are kept as the
// base64 text clients uploaded; a later publish replaces the earlier one.
type Directory struct {
	mu   sync.RWMutex
	keys map[domain.UserID]publishedKeys
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{keys: make(map[domain.UserID]publishedKeys)}
}

// Publish validates and stores an upload.
func (d *Directory) Publish(up domain.KeyUpload) error {
	if err := domain.ValidateUserID(up.User); err != nil {
		return fmt.Errorf("user: %w", err)
	}
	kem, err := crypto.DecodeBase64(up.KEMPub)
	if err != nil {
		return fmt.Errorf("kem_pub: %w", err)
	}
	if len(kem) != crypto.KEMPublicKeySize {
		return fmt.Errorf("kem_pub is %d bytes: %w", len(kem), domain.ErrValidation)
	}
	if _, err := crypto.DecodeSigningKey(up.SigPub, crypto.EncodingBase64); err != nil {
		return fmt.Errorf("sig_pub: %w", err)
	}

	d.mu.Lock()
	d.keys[up.User] = publishedKeys{kem: up.KEMPub, sig: up.SigPub}
	d.mu.Unlock()
	return nil
}

// KEMKey returns user's ML-KEM public key as base64.
func (d *Directory) KEMKey(user domain.UserID) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	k, ok := d.keys[user]
	return k.kem, ok
}

// SigningKey returns user's signature public key as base64.
func (d *Directory) SigningKey(user domain.UserID) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	k, ok := d.keys[user]
	return k.sig, ok
}
