package session

import (
	"sort"
	"sync"

	"pqchat/internal/domain"
	"pqchat/internal/util/memzero"
)

type peerEntry struct {
	state   domain.HandshakeState
	inbound bool // the peer asked us; we have not answered yet
	key     []byte
}

// Registry maps peer ids to handshake state and session keys. It is safe
// for concurrent use.
type Registry struct {
	mu    sync.Mutex
	peers map[domain.UserID]*peerEntry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{peers: make(map[domain.UserID]*peerEntry)}
}

func (r *Registry) entry(peer domain.UserID) *peerEntry {
	e, ok := r.peers[peer]
	if !ok {
		e = &peerEntry{}
		r.peers[peer] = e
	}
	return e
}

// State returns the handshake state of peer.
func (r *Registry) State(peer domain.UserID) domain.HandshakeState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.peers[peer]; ok {
		return e.state
	}
	return domain.StateNoSession
}

// MarkRequested records a pending request. inbound is true when the peer
// asked us. A key from an earlier handshake stays usable until the new one
// completes.
func (r *Registry) MarkRequested(peer domain.UserID, inbound bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entry(peer)
	e.inbound = inbound
	e.state = domain.StateRequestPending
}

// Transition moves peer to state without touching its key.
func (r *Registry) Transition(peer domain.UserID, state domain.HandshakeState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entry(peer).state = state
}

// Establish stores a copy of key for peer and marks it Established,
// replacing any earlier key.
func (r *Registry) Establish(peer domain.UserID, key []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entry(peer)
	memzero.Zero(e.key)
	e.key = append([]byte(nil), key...)
	e.state = domain.StateEstablished
	e.inbound = false
}

// Key returns a copy of the cached session key of peer.
func (r *Registry) Key(peer domain.UserID) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.peers[peer]
	if !ok || e.key == nil {
		return nil, false
	}
	return append([]byte(nil), e.key...), true
}

// Pending returns peers whose requests await our answer, sorted.
func (r *Registry) Pending() []domain.UserID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.UserID
	for p, e := range r.peers {
		if e.inbound && e.state == domain.StateRequestPending {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Peers returns every peer the registry knows, sorted.
func (r *Registry) Peers() []domain.UserID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.UserID, 0, len(r.peers))
	for p := range r.peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Wipe zeroes every cached key and forgets all peers.
func (r *Registry) Wipe() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.peers {
		memzero.Zero(e.key)
	}
	r.peers = make(map[domain.UserID]*peerEntry)
}
