package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/PalMeany/l7-dstat/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
	sendBuffer     = 16
)

type message struct {
	Type string         `json:"type"`
	Data model.Snapshot `json:"data"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans published snapshots out to websocket clients. A client that falls
// behind by more than sendBuffer messages misses the oldest ones rather than
// slowing the publisher.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	latest  []byte
	closed  bool
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// Publish broadcasts snap to every connected client.
func (h *Hub) Publish(snap model.Snapshot) {
	data, err := json.Marshal(message{Type: "snapshot", Data: snap})
	if err != nil {
		h.logger.Errorf("failed to marshal snapshot: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Debugw("websocket client lagging, message dropped", "remote", c.conn.RemoteAddr().String())
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// ServeWS upgrades the request and streams snapshots until the client leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.mu.Unlock()

	h.logger.Infow("websocket client connected", "remote", conn.RemoteAddr().String())

	readDone := make(chan struct{})
	go h.readPump(c, readDone)
	h.writePump(c, readDone)

	h.unregister(c)
	conn.Close()
	h.logger.Infow("websocket client disconnected", "remote", conn.RemoteAddr().String())
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// readPump discards client messages; reading is required to process pongs and close frames.
func (h *Hub) readPump(c *wsClient, done chan<- struct{}) {
	defer close(done)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debugf("websocket read error: %v", err)
			}
			return
		}
	}
}

// writePump is the only writer of c.conn.
func (h *Hub) writePump(c *wsClient, readDone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readDone:
			return
		}
	}
}
