package types

// KEMPublicKey is a packed ML-KEM-768 public key.
type KEMPublicKey []byte

// KEMPrivateKey is a packed ML-KEM-768 private key.
type KEMPrivateKey []byte

// SigningPublicKey is a packed ML-DSA-65 public key.
type SigningPublicKey []byte

// SigningPrivateKey is a packed ML-DSA-65 private key.
type SigningPrivateKey []byte

// SealedBox is one AES-GCM output: a fresh 12-byte IV and the ciphertext
// with the 16-byte authentication tag appended.
type SealedBox struct {
	IV         []byte `json:"iv"`
	Ciphertext []byte `json:"ciphertext"`
}

// Empty reports whether the box carries no ciphertext.
func (b SealedBox) Empty() bool { return len(b.IV) == 0 || len(b.Ciphertext) == 0 }
