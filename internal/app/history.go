package app

import (
	"context"

	"pqchat/internal/domain"
	"pqchat/internal/services/message"
	"pqchat/internal/services/session"
)

// LocalHistories unlocks user and decrypts stored conversations without
// touching the relay. With peer set only that conversation is returned and
// its failure is reported; without it every peer is restored in isolation.
func LocalHistories(
	ctx context.Context,
	w *Wire,
	user domain.UserID,
	passphrase string,
	peer domain.UserID,
) (map[domain.UserID][]domain.DecryptedMessage, error) {
	account, err := w.Identities.Open(ctx, user, passphrase)
	if err != nil {
		return nil, err
	}
	defer account.Close()

	sessions := session.New(account, w.Store, w.Directory, nil, w.Log)
	defer sessions.Close()
	messages := message.New(account, sessions, w.Store, nil, w.Log)
	defer messages.Close()

	if peer == "" {
		return messages.RestoreHistories(ctx), nil
	}
	msgs, err := messages.History(ctx, peer)
	if err != nil {
		return nil, err
	}
	return map[domain.UserID][]domain.DecryptedMessage{peer: msgs}, nil
}
