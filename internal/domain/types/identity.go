package types

// IdentityRecord is the persisted form of an identity. Both private keys are
// sealed under one key derived from the passphrase and Salt; each has its
// own IV.
type IdentityRecord struct {
	UserID           UserID           `json:"user_id"`
	KEMPublicKey     KEMPublicKey     `json:"kem_public_key"`
	SigningPublicKey SigningPublicKey `json:"signing_public_key"`
	KEMSecret        SealedBox        `json:"kem_secret"`
	SigningSecret    SealedBox        `json:"signing_secret"`
	Salt             []byte           `json:"salt"`
	CreatedUTC       int64            `json:"created_utc"`
}

// Identity holds the decrypted long-term keys of the local party. It only
// lives in memory for the lifetime of an Account.
type Identity struct {
	UserID            UserID
	KEMPublicKey      KEMPublicKey
	KEMPrivateKey     KEMPrivateKey
	SigningPublicKey  SigningPublicKey
	SigningPrivateKey SigningPrivateKey
}

// PublicKeys is the public half of an identity, readable without the passphrase.
type PublicKeys struct {
	UserID  UserID           `json:"user"`
	KEM     KEMPublicKey     `json:"kem_pub"`
	Signing SigningPublicKey `json:"sig_pub"`
}
