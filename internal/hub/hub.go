package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pqchat/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxFrameBytes  = 1 << 20
	sendQueueDepth = 64
)

// Drop reasons reported on the relay_frames_dropped_total counter.
const (
	dropOffline   = "offline"
	dropType      = "type"
	dropMalformed = "malformed"
	dropQueueFull = "queue_full"
)

// Hub tracks one WebSocket connection per user and forwards frames between
// them verbatim.
type Hub struct {
	log      *slog.Logger
	metrics  *Metrics
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[domain.UserID]*client
}

type client struct {
	id   string
	user domain.UserID
	conn *websocket.Conn
	send chan []byte

	once sync.Once
	done chan struct{}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// New returns a hub. allowedOrigins restricts WebSocket upgrades by Origin
// header; an empty list or "*" admits every origin.
func New(log *slog.Logger, metrics *Metrics, allowedOrigins []string) *Hub {
	h := &Hub{
		log:     log,
		metrics: metrics,
		clients: make(map[domain.UserID]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Online reports whether user holds a connection.
func (h *Hub) Online(user domain.UserID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[user]
	return ok
}

// ServeWS upgrades the request and serves user's connection until it drops.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, user domain.UserID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "user", user, "error", err)
		return
	}
	c := &client{
		id:   uuid.NewString(),
		user: user,
		conn: conn,
		send: make(chan []byte, sendQueueDepth),
		done: make(chan struct{}),
	}
	h.register(c)
	go h.writePump(c)
	h.readPump(c)
}

// register installs c, closing any older connection for the same user.
func (h *Hub) register(c *client) {
	h.mu.Lock()
	prev := h.clients[c.user]
	h.clients[c.user] = c
	h.mu.Unlock()

	if prev != nil {
		prev.close()
	}
	h.metrics.Connections.Inc()
	h.log.Info("client connected", "user", c.user, "conn_id", c.id)
	h.broadcastStatus(c.user, true)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	current := h.clients[c.user] == c
	if current {
		delete(h.clients, c.user)
	}
	h.mu.Unlock()

	c.close()
	h.metrics.Connections.Dec()
	h.log.Info("client disconnected", "user", c.user, "conn_id", c.id)
	if current {
		h.broadcastStatus(c.user, false)
	}
}

func (h *Hub) broadcastStatus(user domain.UserID, online bool) {
	raw, err := json.Marshal(domain.WireMessage{
		Type:   domain.TypeStatusUpdate,
		PeerID: user,
		Online: &online,
	})
	if err != nil {
		return
	}
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for id, c := range h.clients {
		if id != user {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		h.enqueue(c, raw)
	}
}

func forwardable(t domain.MessageType) bool {
	switch t {
	case domain.TypeChatRequest, domain.TypeSharedSecret, domain.TypeChat:
		return true
	}
	return false
}

// Forward delivers raw to its addressee. Frames from a sender are handled in
// arrival order, so per-pair ordering is kept end to end. A frame that does
// not decode as a whole message is dropped here rather than passed on; raw
// itself is forwarded unchanged.
func (h *Hub) Forward(from domain.UserID, raw []byte) {
	var msg domain.WireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.drop(dropMalformed, from, "", err)
		return
	}
	if !forwardable(msg.Type) {
		h.drop(dropType, from, msg.To, nil)
		return
	}
	h.mu.RLock()
	dst := h.clients[msg.To]
	h.mu.RUnlock()
	if dst == nil {
		h.drop(dropOffline, from, msg.To, nil)
		return
	}
	if h.enqueue(dst, raw) {
		h.metrics.FramesForwarded.WithLabelValues(string(msg.Type)).Inc()
	}
}

func (h *Hub) enqueue(c *client, raw []byte) bool {
	select {
	case <-c.done:
		h.drop(dropOffline, "", c.user, nil)
		return false
	default:
	}
	select {
	case c.send <- raw:
		return true
	default:
		h.drop(dropQueueFull, "", c.user, nil)
		return false
	}
}

func (h *Hub) drop(reason string, from, to domain.UserID, err error) {
	h.metrics.FramesDropped.WithLabelValues(reason).Inc()
	attrs := []any{"reason", reason, "from", from, "to", to}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	h.log.Debug("frame dropped", attrs...)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("websocket read ended", "user", c.user, "error", err)
			}
			return
		}
		h.Forward(c.user, raw)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case raw := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			return
		}
	}
}
