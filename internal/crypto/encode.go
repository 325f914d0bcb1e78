package crypto

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"pqchat/internal/domain"
)

// Encoding names the text form of key material arriving from outside.
type Encoding int

const (
	EncodingBase64 Encoding = iota
	EncodingHex
)

// EncodeBase64 is the canonical binary-to-text encoding on the wire.
func EncodeBase64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// DecodeBase64 reverses EncodeBase64. Malformed input is ErrValidation.
func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64: %v: %w", err, domain.ErrValidation)
	}
	return b, nil
}

// DecodeKey converts external key text into raw bytes.
func DecodeKey(s string, enc Encoding) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty key: %w", domain.ErrValidation)
	}
	switch enc {
	case EncodingHex:
		s = strings.TrimPrefix(s, "0x")
		if len(s)%2 != 0 {
			return nil, fmt.Errorf("hex key has odd length %d: %w", len(s), domain.ErrValidation)
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("hex: %v: %w", err, domain.ErrValidation)
		}
		return b, nil
	case EncodingBase64:
		return DecodeBase64(s)
	default:
		return nil, fmt.Errorf("unknown key encoding %d: %w", enc, domain.ErrValidation)
	}
}

// ValidateSigningKey bounds a peer signature key to 16..8192 bytes.
func ValidateSigningKey(raw []byte) error {
	if len(raw) < MinSigningKeyBytes || len(raw) > MaxSigningKeyBytes {
		return fmt.Errorf("signature key is %d bytes, want %d..%d: %w",
			len(raw), MinSigningKeyBytes, MaxSigningKeyBytes, domain.ErrValidation)
	}
	return nil
}

// DecodeSigningKey decodes and bounds-checks a peer signature key.
func DecodeSigningKey(s string, enc Encoding) (domain.SigningPublicKey, error) {
	raw, err := DecodeKey(s, enc)
	if err != nil {
		return nil, err
	}
	if err := ValidateSigningKey(raw); err != nil {
		return nil, err
	}
	return raw, nil
}
