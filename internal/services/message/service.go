package message

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pqchat/internal/crypto"
	"pqchat/internal/domain"
	"pqchat/internal/protocol/envelope"
	"pqchat/internal/util/memzero"
)

// Store is the persistence the message service needs.
type Store interface {
	domain.MessageStore
	domain.DirectoryStore
	domain.PeerSessionStore
}

// KeySource yields session keys; the session service is the usual one.
type KeySource interface {
	SessionKey(ctx context.Context, peer domain.UserID) ([]byte, error)
}

// Service sends and receives chat messages for one account.
//
// High-level flow:
//   - Send: session key, encrypt, sign the serialised envelope, send, then
//     record the message as outgoing.
//   - Receive: session key (else ErrSessionMissing), cached signature key
//     (else ErrUnknownSigner), verify (else ErrAuthentication), decrypt,
//     then record the message as incoming. A rejected message is never
//     recorded.
//
// Recorded messages are sealed under a key derived from the passphrase, not
// the session key, so history outlives re-handshakes. One salt is drawn per
// service; derived keys are cached by salt until Close.
type Service struct {
	account   *domain.Account
	keys      KeySource
	store     Store
	transport domain.Transport
	log       *slog.Logger
	now       func() time.Time

	histMu   sync.Mutex
	histSalt []byte
	histKeys map[string][]byte
}

// New constructs a message service for account.
func New(
	account *domain.Account,
	keys KeySource,
	store Store,
	transport domain.Transport,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		account:   account,
		keys:      keys,
		store:     store,
		transport: transport,
		log:       log.With("user", account.UserID()),
		now:       time.Now,
		histKeys:  make(map[string][]byte),
	}
}

// Send encrypts text for peer, signs it and transmits it.
func (s *Service) Send(
	ctx context.Context,
	peer domain.UserID,
	text string,
) (domain.DecryptedMessage, error) {
	if s.account.Closed() {
		return domain.DecryptedMessage{}, fmt.Errorf("account is closed: %w", domain.ErrValidation)
	}
	key, err := s.keys.SessionKey(ctx, peer)
	if err != nil {
		return domain.DecryptedMessage{}, err
	}
	defer memzero.Zero(key)

	me := s.account.UserID()
	msg, _, err := envelope.Seal(key, s.account.Identity.SigningPrivateKey, me, peer, text)
	if err != nil {
		return domain.DecryptedMessage{}, err
	}
	if err := s.transport.Send(ctx, msg); err != nil {
		return domain.DecryptedMessage{}, fmt.Errorf("send chat to %s: %w", peer, err)
	}
	return s.record(ctx, peer, domain.DirectionOutgoing, text)
}

// Receive authenticates and decrypts an incoming chat message.
func (s *Service) Receive(
	ctx context.Context,
	msg domain.WireMessage,
) (domain.DecryptedMessage, error) {
	if msg.Type != domain.TypeChat {
		return domain.DecryptedMessage{}, fmt.Errorf("not a chat message: %q: %w", msg.Type, domain.ErrValidation)
	}
	sender := msg.From
	if sender == "" {
		return domain.DecryptedMessage{}, fmt.Errorf("chat without sender: %w", domain.ErrValidation)
	}
	if msg.To != "" && msg.To != s.account.UserID() {
		return domain.DecryptedMessage{}, fmt.Errorf("chat addressed to %s: %w", msg.To, domain.ErrValidation)
	}

	key, err := s.keys.SessionKey(ctx, sender)
	if err != nil {
		return domain.DecryptedMessage{}, err
	}
	defer memzero.Zero(key)

	entry, ok, err := s.store.LoadDirectoryEntry(ctx, sender)
	if err != nil {
		return domain.DecryptedMessage{}, fmt.Errorf("load signing key of %s: %w", sender, err)
	}
	if !ok || len(entry.SigningPublicKey) == 0 {
		return domain.DecryptedMessage{}, fmt.Errorf("%s: %w", sender, domain.ErrUnknownSigner)
	}

	pt, _, err := envelope.Open(key, entry.SigningPublicKey, msg)
	if err != nil {
		s.log.Warn("dropping chat message", "peer", sender, "error", err)
		return domain.DecryptedMessage{}, err
	}
	defer memzero.Zero(pt)
	return s.record(ctx, sender, domain.DirectionIncoming, string(pt))
}

// historyKey returns a copy of the key derived for salt, deriving it on
// first use. The caller zeroes the copy.
func (s *Service) historyKey(salt []byte) ([]byte, error) {
	if len(salt) == 0 {
		return nil, fmt.Errorf("history record has no salt: %w", domain.ErrValidation)
	}
	s.histMu.Lock()
	defer s.histMu.Unlock()
	if s.account.Closed() {
		return nil, fmt.Errorf("account is closed: %w", domain.ErrValidation)
	}
	key, ok := s.histKeys[string(salt)]
	if !ok {
		key = crypto.DeriveKey(s.account.Passphrase(), salt)
		s.histKeys[string(salt)] = key
	}
	return append([]byte(nil), key...), nil
}

// sealingSalt returns the salt new records are sealed under, drawing it on
// first use.
func (s *Service) sealingSalt() ([]byte, error) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	if s.histSalt == nil {
		salt, err := crypto.NewSalt()
		if err != nil {
			return nil, err
		}
		s.histSalt = salt
	}
	return s.histSalt, nil
}

func (s *Service) record(
	ctx context.Context,
	peer domain.UserID,
	dir domain.Direction,
	text string,
) (domain.DecryptedMessage, error) {
	salt, err := s.sealingSalt()
	if err != nil {
		return domain.DecryptedMessage{}, err
	}
	key, err := s.historyKey(salt)
	if err != nil {
		return domain.DecryptedMessage{}, err
	}
	defer memzero.Zero(key)
	box, err := crypto.Seal(key, []byte(text))
	if err != nil {
		return domain.DecryptedMessage{}, fmt.Errorf("seal %s message: %w", dir, err)
	}

	m := domain.Message{
		ID:        uuid.NewString(),
		Owner:     s.account.UserID(),
		Peer:      peer,
		Direction: dir,
		Box:       box,
		Salt:      salt,
		CreatedAt: s.now().UTC().UnixNano(),
	}
	if err := s.store.AppendMessage(ctx, m); err != nil {
		return domain.DecryptedMessage{}, fmt.Errorf("record %s message: %w", dir, err)
	}
	return domain.DecryptedMessage{
		ID:        m.ID,
		Peer:      peer,
		Direction: dir,
		Text:      text,
		CreatedAt: m.CreatedAt,
	}, nil
}

// History decrypts the stored conversation with peer in creation order. It
// needs no session key. A message that fails to decrypt is logged and left
// out; the rest are still returned.
func (s *Service) History(
	ctx context.Context,
	peer domain.UserID,
) ([]domain.DecryptedMessage, error) {
	if s.account.Closed() {
		return nil, fmt.Errorf("account is closed: %w", domain.ErrValidation)
	}
	msgs, err := s.store.ListMessages(ctx, s.account.UserID(), peer)
	if err != nil {
		return nil, fmt.Errorf("list messages with %s: %w", peer, err)
	}
	if len(msgs) == 0 {
		return nil, nil
	}

	out := make([]domain.DecryptedMessage, 0, len(msgs))
	for _, m := range msgs {
		text, err := s.openRecord(m)
		if err != nil {
			s.log.Warn("skipping unreadable message", "peer", peer, "id", m.ID, "error", err)
			continue
		}
		out = append(out, domain.DecryptedMessage{
			ID:        m.ID,
			Peer:      m.Peer,
			Direction: m.Direction,
			Text:      text,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) openRecord(m domain.Message) (string, error) {
	key, err := s.historyKey(m.Salt)
	if err != nil {
		return "", err
	}
	defer memzero.Zero(key)
	pt, err := crypto.Open(key, m.Box)
	if err != nil {
		return "", err
	}
	defer memzero.Zero(pt)
	return string(pt), nil
}

// RestoreHistories loads the history of every peer with a stored session.
// Peers are restored independently: a failure is logged and leaves that
// peer with an empty history.
func (s *Service) RestoreHistories(ctx context.Context) map[domain.UserID][]domain.DecryptedMessage {
	out := make(map[domain.UserID][]domain.DecryptedMessage)
	sessions, err := s.store.ListPeerSessions(ctx, s.account.UserID())
	if err != nil {
		s.log.Warn("list sessions for restore", "error", err)
		return out
	}
	for _, ps := range sessions {
		h, err := s.History(ctx, ps.Peer)
		if err != nil {
			s.log.Warn("restore history failed", "peer", ps.Peer, "error", err)
			out[ps.Peer] = []domain.DecryptedMessage{}
			continue
		}
		if h == nil {
			h = []domain.DecryptedMessage{}
		}
		out[ps.Peer] = h
	}
	return out
}

// Close wipes the cached history keys.
func (s *Service) Close() {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	for k, key := range s.histKeys {
		memzero.Zero(key)
		delete(s.histKeys, k)
	}
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
