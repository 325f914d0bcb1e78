package envelope

import (
	"encoding/json"
	"fmt"

	"pqchat/internal/crypto"
	"pqchat/internal/domain"
)

// Seal encrypts text for to and signs the envelope. It returns the chat
// message and the sealed box for local history.
func Seal(
	key []byte,
	signer domain.SigningPrivateKey,
	from domain.UserID,
	to domain.UserID,
	text string,
) (domain.WireMessage, domain.SealedBox, error) {
	box, err := crypto.Seal(key, []byte(text))
	if err != nil {
		return domain.WireMessage{}, domain.SealedBox{}, fmt.Errorf("encrypt: %w", err)
	}
	payload, err := json.Marshal(domain.ChatEnvelope{
		Ciphertext: crypto.EncodeBase64(box.Ciphertext),
		IV:         crypto.EncodeBase64(box.IV),
	})
	if err != nil {
		return domain.WireMessage{}, domain.SealedBox{}, err
	}
	sig, err := crypto.Sign(signer, payload)
	if err != nil {
		return domain.WireMessage{}, domain.SealedBox{}, err
	}
	return domain.WireMessage{
		Type:      domain.TypeChat,
		From:      from,
		To:        to,
		Payload:   payload,
		Signature: crypto.EncodeBase64(sig),
	}, box, nil
}

// Verify checks the signature on msg against the sender's key and returns
// the sealed box it carries. It does not decrypt.
func Verify(signer domain.SigningPublicKey, msg domain.WireMessage) (domain.SealedBox, error) {
	if msg.Type != domain.TypeChat {
		return domain.SealedBox{}, fmt.Errorf("envelope: unexpected message type %q: %w", msg.Type, domain.ErrValidation)
	}
	if len(msg.Payload) == 0 || msg.Signature == "" {
		return domain.SealedBox{}, fmt.Errorf("envelope: missing payload or signature: %w", domain.ErrValidation)
	}
	sig, err := crypto.DecodeBase64(msg.Signature)
	if err != nil {
		return domain.SealedBox{}, fmt.Errorf("envelope signature: %w", err)
	}
	if err := crypto.Verify(signer, msg.Payload, sig); err != nil {
		return domain.SealedBox{}, fmt.Errorf("envelope from %s: %w", msg.From, err)
	}

	var env domain.ChatEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return domain.SealedBox{}, fmt.Errorf("envelope payload: %v: %w", err, domain.ErrValidation)
	}
	ct, err := crypto.DecodeBase64(env.Ciphertext)
	if err != nil {
		return domain.SealedBox{}, fmt.Errorf("envelope ciphertext: %w", err)
	}
	iv, err := crypto.DecodeBase64(env.IV)
	if err != nil {
		return domain.SealedBox{}, fmt.Errorf("envelope iv: %w", err)
	}
	return domain.SealedBox{IV: iv, Ciphertext: ct}, nil
}

// Open verifies msg and then decrypts it under key.
func Open(
	key []byte,
	signer domain.SigningPublicKey,
	msg domain.WireMessage,
) ([]byte, domain.SealedBox, error) {
	box, err := Verify(signer, msg)
	if err != nil {
		return nil, domain.SealedBox{}, err
	}
	pt, err := crypto.Open(key, box)
	if err != nil {
		return nil, domain.SealedBox{}, fmt.Errorf("decrypt from %s: %w", msg.From, err)
	}
	return pt, box, nil
}
