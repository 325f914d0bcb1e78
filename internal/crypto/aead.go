package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"pqchat/internal/domain"
)

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyBytes {
		return nil, fmt.Errorf("aes key must be %d bytes, got %d: %w", KeyBytes, len(key), domain.ErrValidation)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext under key with a fresh random IV. The tag is
// appended to the ciphertext.
func Seal(key, plaintext []byte) (domain.SealedBox, error) {
	aead, err := newGCM(key)
	if err != nil {
		return domain.SealedBox{}, err
	}
	iv := make([]byte, IVBytes)
	if _, err := rand.Read(iv); err != nil {
		return domain.SealedBox{}, fmt.Errorf("iv: %w", err)
	}
	return domain.SealedBox{IV: iv, Ciphertext: aead.Seal(nil, iv, plaintext, nil)}, nil
}

// Open decrypts box under key. Any tag failure yields ErrAuthentication and
// no plaintext.
func Open(key []byte, box domain.SealedBox) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(box.IV) != IVBytes {
		return nil, fmt.Errorf("iv must be %d bytes: %w", IVBytes, domain.ErrValidation)
	}
	if len(box.Ciphertext) < TagBytes {
		return nil, fmt.Errorf("ciphertext shorter than tag: %w", domain.ErrAuthentication)
	}
	pt, err := aead.Open(nil, box.IV, box.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", domain.ErrAuthentication)
	}
	return pt, nil
}
