package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"pqchat/internal/domain"
)

// Fingerprint returns a short hex fingerprint of the concatenated public keys.
//
// It hashes with SHA-256 and truncates to 10 bytes (20 hex chars).
func Fingerprint(pubs ...[]byte) domain.Fingerprint {
	h := sha256.New()
	for _, p := range pubs {
		h.Write(p)
	}
	sum := h.Sum(nil)
	return domain.Fingerprint(hex.EncodeToString(sum[:10]))
}
