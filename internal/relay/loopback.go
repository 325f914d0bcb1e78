package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"pqchat/internal/domain"
)

// Loopback is an in-process relay: a key directory plus message routing
// between transports obtained from Connect. Messages pass through JSON on
// the way, as they would over a socket. Messages for users that are not
// connected are dropped, matching the real relay.
type Loopback struct {
	mu    sync.Mutex
	keys  map[domain.UserID]domain.PublicKeys
	conns map[domain.UserID]*LoopbackTransport
}

// NewLoopback returns an empty in-process relay.
func NewLoopback() *Loopback {
	return &Loopback{
		keys:  make(map[domain.UserID]domain.PublicKeys),
		conns: make(map[domain.UserID]*LoopbackTransport),
	}
}

// Publish stores keys, replacing earlier ones for the same user.
func (l *Loopback) Publish(_ context.Context, keys domain.PublicKeys) error {
	if keys.UserID == "" {
		return fmt.Errorf("publish: empty user: %w", domain.ErrValidation)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys[keys.UserID] = domain.PublicKeys{
		UserID:  keys.UserID,
		KEM:     append(domain.KEMPublicKey(nil), keys.KEM...),
		Signing: append(domain.SigningPublicKey(nil), keys.Signing...),
	}
	return nil
}

// FetchKEMKey returns the stored KEM key of user.
func (l *Loopback) FetchKEMKey(_ context.Context, user domain.UserID) (domain.KEMPublicKey, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k, ok := l.keys[user]
	if !ok {
		return nil, fmt.Errorf("kem key of %s: %w", user, domain.ErrNotFound)
	}
	return append(domain.KEMPublicKey(nil), k.KEM...), nil
}

// FetchSigningKey returns the stored signature key of user.
func (l *Loopback) FetchSigningKey(_ context.Context, user domain.UserID) (domain.SigningPublicKey, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k, ok := l.keys[user]
	if !ok {
		return nil, fmt.Errorf("signing key of %s: %w", user, domain.ErrNotFound)
	}
	return append(domain.SigningPublicKey(nil), k.Signing...), nil
}

// Online reports whether peer is connected.
func (l *Loopback) Online(_ context.Context, _, peer domain.UserID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.conns[peer]
	return ok, nil
}

// Connect attaches user, replacing any earlier connection, and tells the
// other connected users.
func (l *Loopback) Connect(user domain.UserID) *LoopbackTransport {
	t := &LoopbackTransport{
		relay: l,
		user:  user,
		inbox: make(chan []byte, inboxDepth),
		done:  make(chan struct{}),
	}
	l.mu.Lock()
	old := l.conns[user]
	l.conns[user] = t
	l.mu.Unlock()
	if old != nil {
		old.shut()
	}
	l.broadcastStatus(user, true)
	return t
}

func (l *Loopback) disconnect(t *LoopbackTransport) {
	l.mu.Lock()
	current := l.conns[t.user] == t
	if current {
		delete(l.conns, t.user)
	}
	l.mu.Unlock()
	if current {
		l.broadcastStatus(t.user, false)
	}
}

func (l *Loopback) broadcastStatus(user domain.UserID, online bool) {
	msg := domain.WireMessage{Type: domain.TypeStatusUpdate, PeerID: user, Online: &online}
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	l.mu.Lock()
	targets := make([]*LoopbackTransport, 0, len(l.conns))
	for id, c := range l.conns {
		if id != user {
			targets = append(targets, c)
		}
	}
	l.mu.Unlock()
	for _, c := range targets {
		c.deliver(raw)
	}
}

func (l *Loopback) route(msg domain.WireMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	l.mu.Lock()
	dst := l.conns[msg.To]
	l.mu.Unlock()
	if dst != nil {
		dst.deliver(raw)
	}
	return nil
}

// LoopbackTransport is one user's connection to a Loopback.
type LoopbackTransport struct {
	relay *Loopback
	user  domain.UserID
	inbox chan []byte

	once sync.Once
	done chan struct{}
}

func (t *LoopbackTransport) deliver(raw []byte) {
	select {
	case t.inbox <- raw:
	case <-t.done:
	}
}

func (t *LoopbackTransport) shut() {
	t.once.Do(func() { close(t.done) })
}

// Send routes msg to its recipient unchanged.
func (t *LoopbackTransport) Send(ctx context.Context, msg domain.WireMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	if msg.To == "" {
		return fmt.Errorf("message without recipient: %w", domain.ErrValidation)
	}
	return t.relay.route(msg)
}

// Receive returns the next message in arrival order.
func (t *LoopbackTransport) Receive(ctx context.Context) (domain.WireMessage, error) {
	for {
		select {
		case <-ctx.Done():
			return domain.WireMessage{}, ctx.Err()
		case <-t.done:
			return domain.WireMessage{}, ErrClosed
		case raw := <-t.inbox:
			var msg domain.WireMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				slog.Warn("loopback: dropping undecodable frame", "bytes", len(raw), "error", err)
				continue
			}
			return msg, nil
		}
	}
}

// Close detaches the transport from the relay.
func (t *LoopbackTransport) Close() error {
	t.shut()
	t.relay.disconnect(t)
	return nil
}

var (
	_ domain.Directory = (*Loopback)(nil)
	_ domain.Transport = (*LoopbackTransport)(nil)
)
