package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pqchat/internal/domain"
	"pqchat/internal/relay"
	"pqchat/internal/services/message"
	"pqchat/internal/services/session"
)

const eventQueueDepth = 128

// EventKind says what a client Event reports.
type EventKind int

const (
	// EventRequest: a peer asked for a session.
	EventRequest EventKind = iota
	// EventEstablished: a session with Peer is ready.
	EventEstablished
	// EventMessage: Message arrived from Peer.
	EventMessage
	// EventPresence: Peer went on or offline.
	EventPresence
	// EventError: a frame from Peer was rejected; Err says why.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventRequest:
		return "request"
	case EventEstablished:
		return "established"
	case EventMessage:
		return "message"
	case EventPresence:
		return "presence"
	default:
		return "error"
	}
}

// Event is one thing the UI may want to show.
type Event struct {
	Kind    EventKind
	Peer    domain.UserID
	Message domain.DecryptedMessage
	Online  bool
	Err     error
}

// Options tune a Client.
type Options struct {
	// AutoAccept answers every chat_request immediately.
	AutoAccept bool
}

// Client is one unlocked identity connected to the relay.
type Client struct {
	user      domain.UserID
	account   *domain.Account
	transport domain.Transport
	directory domain.Directory
	sessions  *session.Service
	messages  *message.Service
	wire      *Wire
	opts      Options

	events chan Event

	mu       sync.Mutex
	presence map[domain.UserID]bool

	runMu   sync.Mutex
	running bool
	closed  bool
	runDone chan struct{}
	closing chan struct{}

	closeOnce sync.Once
}

// Open unlocks user's identity, connects to the relay and builds the
// per-login services. A wrong passphrase fails before any connection is
// made.
func Open(ctx context.Context, w *Wire, user domain.UserID, passphrase string, opts Options) (*Client, error) {
	account, err := w.Identities.Open(ctx, user, passphrase)
	if err != nil {
		return nil, err
	}
	tr, err := w.Dial(ctx, user)
	if err != nil {
		account.Close()
		return nil, fmt.Errorf("connect %s: %w", user, err)
	}
	sessions := session.New(account, w.Store, w.Directory, tr, w.Log)
	return &Client{
		user:      user,
		account:   account,
		transport: tr,
		directory: w.Directory,
		sessions:  sessions,
		messages:  message.New(account, sessions, w.Store, tr, w.Log),
		wire:      w,
		opts:      opts,
		events:    make(chan Event, eventQueueDepth),
		presence:  make(map[domain.UserID]bool),
		runDone:   make(chan struct{}),
		closing:   make(chan struct{}),
	}, nil
}

// User returns the logged-in user.
func (c *Client) User() domain.UserID { return c.user }

// Sessions returns the handshake service of this login.
func (c *Client) Sessions() *session.Service { return c.sessions }

// Messages returns the messaging service of this login.
func (c *Client) Messages() *message.Service { return c.messages }

// Events delivers what Run observed. It is closed when Run returns.
func (c *Client) Events() <-chan Event { return c.events }

// Run processes inbound frames in arrival order until the transport closes
// or ctx ends. Rejected frames are reported as EventError and do not stop
// the loop. Run may be called once; after Close it returns at once.
func (c *Client) Run(ctx context.Context) error {
	c.runMu.Lock()
	if c.running {
		c.runMu.Unlock()
		return errors.New("client is already running")
	}
	c.running = true
	closed := c.closed
	c.runMu.Unlock()

	defer close(c.runDone)
	defer close(c.events)
	if closed {
		return nil
	}
	for {
		msg, err := c.transport.Receive(ctx)
		if err != nil {
			if errors.Is(err, relay.ErrClosed) {
				return nil
			}
			return err
		}
		c.dispatch(ctx, msg)
	}
}

func (c *Client) dispatch(ctx context.Context, msg domain.WireMessage) {
	switch msg.Type {
	case domain.TypeChatRequest:
		if msg.From == "" || msg.From == c.user {
			c.wire.Log.Warn("chat request without usable sender", "from", msg.From)
			return
		}
		c.sessions.HandleRequest(msg.From)
		c.emit(ctx, Event{Kind: EventRequest, Peer: msg.From})
		if c.opts.AutoAccept {
			c.accept(ctx, msg.From)
		}

	case domain.TypeSharedSecret:
		if err := c.sessions.Complete(ctx, msg); err != nil {
			c.emit(ctx, Event{Kind: EventError, Peer: msg.From, Err: err})
			return
		}
		c.emit(ctx, Event{Kind: EventEstablished, Peer: msg.From})

	case domain.TypeChat:
		dm, err := c.messages.Receive(ctx, msg)
		if err != nil {
			c.emit(ctx, Event{Kind: EventError, Peer: msg.From, Err: err})
			return
		}
		c.emit(ctx, Event{Kind: EventMessage, Peer: dm.Peer, Message: dm})

	case domain.TypeStatusUpdate:
		online := msg.Online != nil && *msg.Online
		c.mu.Lock()
		c.presence[msg.PeerID] = online
		c.mu.Unlock()
		c.emit(ctx, Event{Kind: EventPresence, Peer: msg.PeerID, Online: online})

	default:
		c.wire.Log.Debug("ignoring frame", "type", msg.Type, "from", msg.From)
	}
}

func (c *Client) accept(ctx context.Context, peer domain.UserID) {
	if err := c.sessions.Accept(ctx, peer); err != nil {
		c.emit(ctx, Event{Kind: EventError, Peer: peer, Err: err})
		return
	}
	c.emit(ctx, Event{Kind: EventEstablished, Peer: peer})
}

// Accept answers a pending request from peer.
func (c *Client) Accept(ctx context.Context, peer domain.UserID) error {
	return c.sessions.Accept(ctx, peer)
}

func (c *Client) emit(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	case <-c.closing:
	}
}

// Online reports peer's presence, from the last status update seen on the
// connection or else from the directory.
func (c *Client) Online(ctx context.Context, peer domain.UserID) (bool, error) {
	c.mu.Lock()
	online, ok := c.presence[peer]
	c.mu.Unlock()
	if ok {
		return online, nil
	}
	return c.directory.Online(ctx, c.user, peer)
}

// Close disconnects, waits for Run to return, then wipes the account's
// secrets, session keys and history keys.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.runMu.Lock()
		c.closed = true
		running := c.running
		c.runMu.Unlock()

		close(c.closing)
		err = c.transport.Close()
		if running {
			<-c.runDone
		}
		c.sessions.Close()
		c.messages.Close()
		c.account.Close()
	})
	return err
}
