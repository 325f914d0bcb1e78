package types

// Message is one stored chat message. Box holds the text sealed under a key
// derived from the owner's passphrase and Salt; plaintext is never persisted.
type Message struct {
	ID        string    `json:"id"`
	Owner     UserID    `json:"owner"`
	Peer      UserID    `json:"peer"`
	Direction Direction `json:"direction"`
	Box       SealedBox `json:"box"`
	Salt      []byte    `json:"salt"`
	CreatedAt int64     `json:"created_at"` // unix nanoseconds
}

// DecryptedMessage is what the messaging service hands to callers.
type DecryptedMessage struct {
	ID        string    `json:"id"`
	Peer      UserID    `json:"peer"`
	Direction Direction `json:"direction"`
	Text      string    `json:"text"`
	CreatedAt int64     `json:"created_at"`
}
