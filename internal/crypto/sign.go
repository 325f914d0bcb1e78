package crypto

import (
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"pqchat/internal/domain"
)

// GenerateSigning returns a fresh ML-DSA-65 key pair in packed form.
func GenerateSigning() (domain.SigningPrivateKey, domain.SigningPublicKey, error) {
	pub, priv, err := mldsa65.GenerateKey(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("generate signing: %w", err)
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

// Sign signs msg with priv.
func Sign(priv domain.SigningPrivateKey, msg []byte) ([]byte, error) {
	var sk mldsa65.PrivateKey
	if err := sk.UnmarshalBinary(priv); err != nil {
		return nil, fmt.Errorf("signing key: %v: %w", err, domain.ErrValidation)
	}
	sig := make([]byte, SignatureSize)
	if err := mldsa65.SignTo(&sk, msg, nil, true, sig); err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return sig, nil
}

// Verify checks sig over msg. A key that does not parse is ErrValidation; a
// signature that does not verify is ErrAuthentication.
func Verify(pub domain.SigningPublicKey, msg, sig []byte) error {
	var pk mldsa65.PublicKey
	if err := pk.UnmarshalBinary(pub); err != nil {
		return fmt.Errorf("verify key: %v: %w", err, domain.ErrValidation)
	}
	if len(sig) != SignatureSize || !mldsa65.Verify(&pk, msg, nil, sig) {
		return fmt.Errorf("signature: %w", domain.ErrAuthentication)
	}
	return nil
}
