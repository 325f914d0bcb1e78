package crypto

import (
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
)

const (
	// KDFIterations is the PBKDF2 iteration count for passphrase keys.
	KDFIterations = 200_000
	// KeyBytes is the AES-256 key size.
	KeyBytes = 32
	// SaltBytes is the size of a fresh passphrase salt.
	SaltBytes = 16
	// IVBytes is the AES-GCM nonce size.
	IVBytes = 12
	// TagBytes is the AES-GCM authentication tag size.
	TagBytes = 16

	KEMPublicKeySize   = mlkem768.PublicKeySize
	KEMPrivateKeySize  = mlkem768.PrivateKeySize
	KEMCiphertextSize  = mlkem768.CiphertextSize
	KEMSharedSecretLen = mlkem768.SharedKeySize

	SigningPublicKeySize  = mldsa65.PublicKeySize
	SigningPrivateKeySize = mldsa65.PrivateKeySize
	SignatureSize         = mldsa65.SignatureSize

	// MinSigningKeyBytes and MaxSigningKeyBytes bound peer signature keys
	// accepted at the boundary, inclusive.
	MinSigningKeyBytes = 16
	MaxSigningKeyBytes = 8192
)
