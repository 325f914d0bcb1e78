package types

// UserID identifies a party on the relay and in the public-key directory.
type UserID string

// String returns the string form of the user identifier.
func (u UserID) String() string { return string(u) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// Direction records whether a stored message was sent or received.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// String returns the string form of the direction.
func (d Direction) String() string { return string(d) }
