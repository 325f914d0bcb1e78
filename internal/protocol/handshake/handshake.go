package handshake

import (
	"bytes"
	"fmt"

	"pqchat/internal/crypto"
	"pqchat/internal/domain"
)

// NewRequest returns the chat_request from sends to ask to for a session.
func NewRequest(from, to domain.UserID) domain.WireMessage {
	return domain.WireMessage{Type: domain.TypeChatRequest, From: from, To: to}
}

// Respond encapsulates against the requester's KEM key and returns the
// shared_secret message for it along with the shared secret.
func Respond(
	from domain.UserID,
	to domain.UserID,
	requesterKEM domain.KEMPublicKey,
) (domain.WireMessage, []byte, error) {
	ct, secret, err := crypto.Encapsulate(requesterKEM)
	if err != nil {
		return domain.WireMessage{}, nil, fmt.Errorf("encapsulate for %s: %w", to, err)
	}
	msg := domain.WireMessage{
		Type:        domain.TypeSharedSecret,
		From:        from,
		To:          to,
		CT:          crypto.EncodeBase64(ct),
		PeerKyberPK: crypto.EncodeBase64(requesterKEM),
	}
	return msg, secret, nil
}

// Finish decapsulates a shared_secret message addressed to the holder of
// priv and pub. A message encapsulated to a different public key is
// rejected rather than yielding a secret the peer does not share.
func Finish(
	priv domain.KEMPrivateKey,
	pub domain.KEMPublicKey,
	msg domain.WireMessage,
) ([]byte, error) {
	if msg.Type != domain.TypeSharedSecret {
		return nil, fmt.Errorf("handshake: unexpected message type %q: %w", msg.Type, domain.ErrValidation)
	}
	if msg.From == "" {
		return nil, fmt.Errorf("handshake: missing sender: %w", domain.ErrValidation)
	}
	ct, err := crypto.DecodeBase64(msg.CT)
	if err != nil {
		return nil, fmt.Errorf("handshake ct: %w", err)
	}
	if msg.PeerKyberPK != "" {
		target, err := crypto.DecodeBase64(msg.PeerKyberPK)
		if err != nil {
			return nil, fmt.Errorf("handshake peerKyberPk: %w", err)
		}
		if !bytes.Equal(target, pub) {
			return nil, fmt.Errorf("handshake: encapsulated to a different key: %w", domain.ErrValidation)
		}
	}
	secret, err := crypto.Decapsulate(priv, ct)
	if err != nil {
		return nil, fmt.Errorf("decapsulate from %s: %w", msg.From, err)
	}
	return secret, nil
}
