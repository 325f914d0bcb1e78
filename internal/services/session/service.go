package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pqchat/internal/crypto"
	"pqchat/internal/domain"
	"pqchat/internal/protocol/handshake"
	"pqchat/internal/util/memzero"
)

const rollbackTimeout = 5 * time.Second

// Store is the persistence the session service needs.
type Store interface {
	domain.PeerSessionStore
	domain.DirectoryStore
}

// Service establishes and rehydrates peer sessions for one account.
//
// This service handles:
//   - Sending and answering chat requests.
//   - Encapsulating against the requester's KEM key as responder.
//   - Decapsulating the responder's ciphertext as requester.
//   - Persisting sealed shared secrets and caching peers' signature keys.
//   - Returning session keys, unsealing them from the store after a restart.
type Service struct {
	account   *domain.Account
	store     Store
	directory domain.Directory
	transport domain.Transport
	peers     *Registry
	log       *slog.Logger
	now       func() time.Time
}

// New constructs a session service for account.
func New(
	account *domain.Account,
	store Store,
	directory domain.Directory,
	transport domain.Transport,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		account:   account,
		store:     store,
		directory: directory,
		transport: transport,
		peers:     NewRegistry(),
		log:       log.With("user", account.UserID()),
		now:       time.Now,
	}
}

// Registry exposes the peer registry owned by the service.
func (s *Service) Registry() *Registry { return s.peers }

func (s *Service) checkPeer(peer domain.UserID) error {
	if s.account.Closed() {
		return fmt.Errorf("account is closed: %w", domain.ErrValidation)
	}
	if err := domain.ValidateUserID(peer); err != nil {
		return fmt.Errorf("peer: %w", err)
	}
	if peer == s.account.UserID() {
		return fmt.Errorf("cannot open a session with yourself: %w", domain.ErrValidation)
	}
	return nil
}

// RequestSession asks peer to start a session. Only identifiers travel.
func (s *Service) RequestSession(ctx context.Context, peer domain.UserID) error {
	if err := s.checkPeer(peer); err != nil {
		return err
	}
	if err := s.transport.Send(ctx, handshake.NewRequest(s.account.UserID(), peer)); err != nil {
		return fmt.Errorf("send chat request to %s: %w", peer, err)
	}
	s.peers.MarkRequested(peer, false)
	s.log.Info("chat request sent", "peer", peer)
	return nil
}

// HandleRequest records an incoming chat request from from. Nothing is
// sent until Accept.
func (s *Service) HandleRequest(from domain.UserID) {
	if domain.ValidateUserID(from) != nil || from == s.account.UserID() {
		s.log.Warn("ignoring chat request with bad sender", "from", from)
		return
	}
	s.peers.MarkRequested(from, true)
	s.log.Info("chat request received", "peer", from)
}

// PendingRequests lists peers waiting for Accept.
func (s *Service) PendingRequests() []domain.UserID { return s.peers.Pending() }

// Accept answers peer's request as responder: it encapsulates against the
// peer's published KEM key, persists the session, then sends the
// ciphertext back. If the send fails the stored session is rolled back and
// the request stays pending.
func (s *Service) Accept(ctx context.Context, peer domain.UserID) error {
	if err := s.checkPeer(peer); err != nil {
		return err
	}
	kemPub, err := s.directory.FetchKEMKey(ctx, peer)
	if err != nil {
		return fmt.Errorf("fetch kem key of %s: %w", peer, err)
	}
	sigPub, err := s.fetchSigningKey(ctx, peer)
	if err != nil {
		return err
	}

	reply, secret, err := handshake.Respond(s.account.UserID(), peer, kemPub)
	if err != nil {
		return err
	}
	defer memzero.Zero(secret)

	prev, hadPrev, err := s.store.LoadPeerSession(ctx, s.account.UserID(), peer)
	if err != nil {
		return fmt.Errorf("load session with %s: %w", peer, err)
	}
	s.peers.Transition(peer, domain.StateEncapsulated)
	if err := s.persist(ctx, peer, kemPub, sigPub, secret); err != nil {
		s.peers.MarkRequested(peer, true)
		return err
	}
	if err := s.transport.Send(ctx, reply); err != nil {
		s.rollback(peer, prev, hadPrev)
		return fmt.Errorf("send shared secret to %s: %w", peer, err)
	}
	s.peers.Establish(peer, secret)
	s.log.Info("session established", "peer", peer, "role", "responder")
	return nil
}

// rollback restores the session stored before a failed Accept, or removes
// the new one when there was none. The peer is left pending.
func (s *Service) rollback(peer domain.UserID, prev domain.PeerSession, hadPrev bool) {
	s.peers.MarkRequested(peer, true)
	// The caller's context may be what failed the send.
	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()
	var err error
	if hadPrev {
		err = s.store.SavePeerSession(ctx, prev)
	} else {
		err = s.store.DeletePeerSession(ctx, s.account.UserID(), peer)
	}
	if err != nil {
		s.log.Error("roll back session", "peer", peer, "error", err)
	}
}

// Complete finishes a handshake as requester from a shared_secret message.
// Only a peer we sent a request to may complete; anything else is rejected
// and the stored session is left alone.
func (s *Service) Complete(ctx context.Context, msg domain.WireMessage) error {
	if err := s.checkPeer(msg.From); err != nil {
		return err
	}
	if msg.To != "" && msg.To != s.account.UserID() {
		return fmt.Errorf("shared secret addressed to %s: %w", msg.To, domain.ErrValidation)
	}
	peer := msg.From
	if st := s.peers.State(peer); st != domain.StateRequestPending {
		s.log.Warn("unsolicited shared secret", "peer", peer, "state", st)
		return fmt.Errorf("unsolicited shared secret from %s in state %s: %w", peer, st, domain.ErrValidation)
	}

	id := s.account.Identity
	secret, err := handshake.Finish(id.KEMPrivateKey, id.KEMPublicKey, msg)
	if err != nil {
		return err
	}
	defer memzero.Zero(secret)
	s.peers.Transition(peer, domain.StateDecapsulated)

	// Keys are kept for bookkeeping; a directory outage must not lose the
	// secret, so lookup failures only leave the fields empty.
	var kemPub domain.KEMPublicKey
	if k, err := s.directory.FetchKEMKey(ctx, peer); err == nil {
		kemPub = k
	} else {
		s.log.Warn("fetch peer kem key", "peer", peer, "error", err)
	}
	sigPub, err := s.fetchSigningKey(ctx, peer)
	if err != nil {
		s.log.Warn("fetch peer signing key", "peer", peer, "error", err)
		sigPub = nil
	}

	if err := s.persist(ctx, peer, kemPub, sigPub, secret); err != nil {
		return err
	}
	s.peers.Establish(peer, secret)
	s.log.Info("session established", "peer", peer, "role", "requester")
	return nil
}

func (s *Service) fetchSigningKey(ctx context.Context, peer domain.UserID) (domain.SigningPublicKey, error) {
	sigPub, err := s.directory.FetchSigningKey(ctx, peer)
	if err != nil {
		return nil, fmt.Errorf("fetch signing key of %s: %w", peer, err)
	}
	if err := crypto.ValidateSigningKey(sigPub); err != nil {
		return nil, fmt.Errorf("signing key of %s: %w", peer, err)
	}
	return sigPub, nil
}

// persist seals secret under a fresh salt and writes the peer session. The
// signature key, when known, also lands in the directory cache.
func (s *Service) persist(
	ctx context.Context,
	peer domain.UserID,
	kemPub domain.KEMPublicKey,
	sigPub domain.SigningPublicKey,
	secret []byte,
) error {
	salt, err := crypto.NewSalt()
	if err != nil {
		return err
	}
	key := crypto.DeriveKey(s.account.Passphrase(), salt)
	defer memzero.Zero(key)
	box, err := crypto.Seal(key, secret)
	if err != nil {
		return fmt.Errorf("seal shared secret: %w", err)
	}

	now := s.now().UTC()
	ps := domain.PeerSession{
		Owner:                s.account.UserID(),
		Peer:                 peer,
		PeerKEMPublicKey:     kemPub,
		PeerSigningPublicKey: sigPub,
		Secret:               box,
		Salt:                 salt,
		CreatedUTC:           now.Unix(),
	}
	if err := s.store.SavePeerSession(ctx, ps); err != nil {
		return fmt.Errorf("save session with %s: %w", peer, err)
	}
	if sigPub != nil {
		entry := domain.DirectoryEntry{Peer: peer, SigningPublicKey: sigPub, UpdatedUTC: now.Unix()}
		if err := s.store.SaveDirectoryEntry(ctx, entry); err != nil {
			return fmt.Errorf("cache signing key of %s: %w", peer, err)
		}
	}
	return nil
}

// SessionKey returns the session key for peer. A key missing from memory is
// unsealed from the stored session; with no stored session the result is
// ErrSessionMissing.
func (s *Service) SessionKey(ctx context.Context, peer domain.UserID) ([]byte, error) {
	if key, ok := s.peers.Key(peer); ok {
		return key, nil
	}
	if s.account.Closed() {
		return nil, fmt.Errorf("account is closed: %w", domain.ErrValidation)
	}
	ps, ok, err := s.store.LoadPeerSession(ctx, s.account.UserID(), peer)
	if err != nil {
		return nil, fmt.Errorf("load session with %s: %w", peer, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", peer, domain.ErrSessionMissing)
	}
	key := crypto.DeriveKey(s.account.Passphrase(), ps.Salt)
	defer memzero.Zero(key)
	secret, err := crypto.Open(key, ps.Secret)
	if err != nil {
		return nil, fmt.Errorf("unseal session with %s: %w", peer, err)
	}
	s.peers.Establish(peer, secret)
	s.log.Debug("session rehydrated", "peer", peer, "epoch", ps.Epoch)
	return secret, nil
}

// State returns the handshake state of peer.
func (s *Service) State(peer domain.UserID) domain.HandshakeState { return s.peers.State(peer) }

// Peers lists peers seen in this process.
func (s *Service) Peers() []domain.UserID { return s.peers.Peers() }

// Close wipes cached session keys.
func (s *Service) Close() { s.peers.Wipe() }

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
