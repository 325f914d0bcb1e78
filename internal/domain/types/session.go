package types

// HandshakeState tracks where session establishment with one peer stands.
type HandshakeState int

const (
	StateNoSession HandshakeState = iota
	StateRequestPending
	StateEncapsulated
	StateDecapsulated
	StateEstablished
)

// String returns a readable name for the state.
func (s HandshakeState) String() string {
	switch s {
	case StateRequestPending:
		return "request-pending"
	case StateEncapsulated:
		return "encapsulated"
	case StateDecapsulated:
		return "decapsulated"
	case StateEstablished:
		return "established"
	default:
		return "no-session"
	}
}

// PeerSession is the persisted result of a completed handshake with a peer.
// The shared secret is sealed under a key derived from the owner's
// passphrase and Salt. (Owner, Peer) is unique; a later handshake replaces
// the record and bumps Epoch.
type PeerSession struct {
	Owner                UserID           `json:"owner"`
	Peer                 UserID           `json:"peer"`
	PeerKEMPublicKey     KEMPublicKey     `json:"peer_kem_public_key"`
	PeerSigningPublicKey SigningPublicKey `json:"peer_signing_public_key"`
	Secret               SealedBox        `json:"secret"`
	Salt                 []byte           `json:"salt"`
	Epoch                uint64           `json:"epoch"`
	CreatedUTC           int64            `json:"created_utc"`
}

// DirectoryEntry caches a peer's signature public key. It is keyed by the
// peer alone and shared by every local identity on the device.
type DirectoryEntry struct {
	Peer             UserID           `json:"peer"`
	SigningPublicKey SigningPublicKey `json:"signing_public_key"`
	UpdatedUTC       int64            `json:"updated_utc"`
}
