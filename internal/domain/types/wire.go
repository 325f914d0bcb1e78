package types

import "encoding/json"

// MessageType is the "type" discriminator of relay messages.
type MessageType string

const (
	TypeChatRequest  MessageType = "chat_request"
	TypeSharedSecret MessageType = "shared_secret"
	TypeChat         MessageType = "chat"
	TypeStatusUpdate MessageType = "status_update"
)

// WireMessage is the JSON object exchanged over the relay channel. Binary
// fields are standard base64. Payload is kept raw so the receiver verifies
// the signature over exactly the bytes the sender signed.
type WireMessage struct {
	Type        MessageType     `json:"type"`
	From        UserID          `json:"from,omitempty"`
	To          UserID          `json:"to,omitempty"`
	CT          string          `json:"ct,omitempty"`
	PeerKyberPK string          `json:"peerKyberPk,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Signature   string          `json:"signature,omitempty"`
	PeerID      UserID          `json:"peerId,omitempty"`
	Online      *bool           `json:"online,omitempty"`
}

// ChatEnvelope is the signed unit of a chat message.
type ChatEnvelope struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
}

// KeyUpload is the body of a directory publish.
type KeyUpload struct {
	User   UserID `json:"user"`
	KEMPub string `json:"kem_pub"`
	SigPub string `json:"sig_pub"`
}

// KeyLookup is the directory's answer to a single-key fetch.
type KeyLookup struct {
	User UserID `json:"user"`
	PK   string `json:"pk"`
}

// Presence is the directory's answer to an online-status query.
type Presence struct {
	PeerID UserID `json:"peerId"`
	Online bool   `json:"online"`
}
