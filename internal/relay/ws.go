package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pqchat/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	inboxDepth = 64
)

// ErrClosed is returned by a transport after Close.
var ErrClosed = errors.New("transport closed")

// WSTransport is a WebSocket connection to the relay for one user.
type WSTransport struct {
	conn *websocket.Conn
	log  *slog.Logger

	writeMu sync.Mutex
	inbox   chan domain.WireMessage
	done    chan struct{}

	closeOnce sync.Once
	errMu     sync.Mutex
	readErr   error
}

// WebSocketURL maps an http(s) relay base to the ws(s) endpoint of user.
func WebSocketURL(base string, user domain.UserID) (string, error) {
	if err := domain.ValidateUserID(user); err != nil {
		return "", err
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("relay url: %v: %w", err, domain.ErrValidation)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported relay scheme %q: %w", u.Scheme, domain.ErrValidation)
	}
	u.Path += "/ws/" + url.PathEscape(string(user))
	return u.String(), nil
}

// DialWS connects user to the relay at base.
func DialWS(ctx context.Context, base string, user domain.UserID) (*WSTransport, error) {
	wsURL, err := WebSocketURL(base, user)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", wsURL, resp.Status, domain.ErrTransport)
		}
		return nil, fmt.Errorf("dial %s: %v: %w", wsURL, err, domain.ErrTransport)
	}
	t := &WSTransport{
		conn:  conn,
		log:   slog.Default().With("component", "ws", "user", user),
		inbox: make(chan domain.WireMessage, inboxDepth),
		done:  make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

// readLoop keeps arrival order. Frames that do not decode are logged and
// skipped; only a connection error ends the loop.
func (t *WSTransport) readLoop() {
	defer close(t.inbox)
	for {
		_, raw, err := t.conn.ReadMessage()
		if err != nil {
			t.errMu.Lock()
			t.readErr = err
			t.errMu.Unlock()
			return
		}
		var msg domain.WireMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.log.Warn("dropping undecodable frame", "bytes", len(raw), "error", err)
			continue
		}
		select {
		case t.inbox <- msg:
		case <-t.done:
			return
		}
	}
}

// Send writes msg as one JSON frame.
func (t *WSTransport) Send(ctx context.Context, msg domain.WireMessage) error {
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = t.conn.SetWriteDeadline(deadline)
	if err := t.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("ws write: %v: %w", err, domain.ErrTransport)
	}
	return nil
}

// Receive returns the next message in arrival order.
func (t *WSTransport) Receive(ctx context.Context) (domain.WireMessage, error) {
	select {
	case <-ctx.Done():
		return domain.WireMessage{}, ctx.Err()
	case msg, ok := <-t.inbox:
		if !ok {
			t.errMu.Lock()
			err := t.readErr
			t.errMu.Unlock()
			select {
			case <-t.done:
				return domain.WireMessage{}, ErrClosed
			default:
			}
			return domain.WireMessage{}, fmt.Errorf("ws read: %v: %w", err, domain.ErrTransport)
		}
		return msg, nil
	}
}

// Close sends a close frame and releases the connection.
func (t *WSTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		t.writeMu.Lock()
		_ = t.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}

var _ domain.Transport = (*WSTransport)(nil)
