package crypto

import (
	"fmt"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"

	"pqchat/internal/domain"
)

// GenerateKEM returns a fresh ML-KEM-768 key pair in packed form.
func GenerateKEM() (domain.KEMPrivateKey, domain.KEMPublicKey, error) {
	pub, priv, err := mlkem768.GenerateKeyPair(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("generate kem: %w", err)
	}
	pb, err := pub.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	sb, err := priv.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	return sb, pb, nil
}

// Encapsulate runs ML-KEM encapsulation against pub and returns the
// ciphertext for the key holder and the shared secret.
func Encapsulate(pub domain.KEMPublicKey) (ct, secret []byte, err error) {
	if len(pub) != KEMPublicKeySize {
		return nil, nil, fmt.Errorf("kem public key must be %d bytes, got %d: %w",
			KEMPublicKeySize, len(pub), domain.ErrValidation)
	}
	var pk mlkem768.PublicKey
	if err := pk.Unpack(pub); err != nil {
		return nil, nil, fmt.Errorf("kem public key: %v: %w", err, domain.ErrValidation)
	}
	ct = make([]byte, KEMCiphertextSize)
	secret = make([]byte, KEMSharedSecretLen)
	pk.EncapsulateTo(ct, secret, nil)
	return ct, secret, nil
}

// Decapsulate recovers the shared secret carried by ct.
func Decapsulate(priv domain.KEMPrivateKey, ct []byte) ([]byte, error) {
	if len(ct) != KEMCiphertextSize {
		return nil, fmt.Errorf("kem ciphertext must be %d bytes, got %d: %w",
			KEMCiphertextSize, len(ct), domain.ErrValidation)
	}
	var sk mlkem768.PrivateKey
	if err := sk.Unpack(priv); err != nil {
		return nil, fmt.Errorf("kem private key: %v: %w", err, domain.ErrValidation)
	}
	secret := make([]byte, KEMSharedSecretLen)
	sk.DecapsulateTo(secret, ct)
	return secret, nil
}
