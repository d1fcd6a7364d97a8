// Package push fans day-view updates out to websocket subscribers.
package push

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"power-market-lab/internal/logger"
	"power-market-lab/internal/observability"
)

// HubConfig configures websocket behavior.
type HubConfig struct {
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is how long a client may stay silent, pongs included.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SendBuffer is the number of queued messages per client before it is dropped.
	SendBuffer int
}

// DefaultHubConfig returns default websocket configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		PingInterval: 30 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		SendBuffer:   8,
	}
}

// Message is the envelope pushed to subscribers.
type Message struct {
	Type       string          `json:"type"`
	SnapshotID string          `json:"snapshot_id"`
	Data       json.RawMessage `json:"data"`
}

// MessageTypeDay marks a day-view push.
const MessageTypeDay = "day"

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Hub tracks websocket subscribers and pushes the latest snapshot to them.
// A snapshot is only pushed when its ID differs from the previous one.
type Hub struct {
	config   HubConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu       sync.Mutex
	clients  map[*client]struct{}
	latest   []byte
	latestID string

	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewHub creates a hub. A nil config uses DefaultHubConfig.
func NewHub(config *HubConfig, log *zap.Logger) *Hub {
	cfg := DefaultHubConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 1
	}
	return &Hub{
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger.OrNop(log),
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and subscribes the connection. The latest
// snapshot, if any, is sent immediately.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	n := len(h.clients)
	h.mu.Unlock()
	observability.SetWSClients(n)
	h.logger.Debug("websocket client connected",
		zap.String("client_id", c.id),
		zap.String("remote", r.RemoteAddr),
		zap.Int("clients", n))

	h.wg.Add(2)
	go h.writeLoop(c)
	go h.readLoop(c)
}

// Publish pushes payload to every subscriber unless id matches the last
// published snapshot. It reports whether a push happened.
func (h *Hub) Publish(id string, payload any) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if id == h.latestID && h.latest != nil {
		return false, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal payload: %w", err)
	}
	msg, err := json.Marshal(Message{Type: MessageTypeDay, SnapshotID: id, Data: data})
	if err != nil {
		return false, fmt.Errorf("marshal message: %w", err)
	}
	h.latest = msg
	h.latestID = id

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("websocket client too slow, dropping", zap.String("client_id", c.id))
			delete(h.clients, c)
			c.close()
		}
	}
	observability.SetWSClients(len(h.clients))
	return true, nil
}

// LatestID returns the ID of the last published snapshot.
func (h *Hub) LatestID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latestID
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber and waits for their loops to exit.
func (h *Hub) Close() {
	if h.closed.Swap(true) {
		return
	}
	h.mu.Lock()
	for c := range h.clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(h.config.WriteTimeout))
		c.close()
		delete(h.clients, c)
	}
	h.mu.Unlock()
	observability.SetWSClients(0)
	h.wg.Wait()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()
	c.close()
	if ok {
		observability.SetWSClients(n)
		h.logger.Debug("websocket client disconnected", zap.String("client_id", c.id), zap.Int("clients", n))
	}
}

func (h *Hub) writeLoop(c *client) {
	defer h.wg.Done()
	defer h.remove(c)

	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("websocket write failed", zap.String("client_id", c.id), zap.Error(err))
				return
			}
			observability.RecordWSMessage()
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so pongs and close frames are processed.
func (h *Hub) readLoop(c *client) {
	defer h.wg.Done()
	defer h.remove(c)

	_ = c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
