package availability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1024

	EventAvailabilityChanged = "availability_changed"
)

type Event struct {
	Type string      `json:"type"`
	Busy []BusyRange `json:"busy"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans availability changes out to every open booking form.
type Hub struct {
	service  *Service
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub builds a hub; checkOrigin may be nil to accept same-host requests only.
func NewHub(service *Service, log *slog.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// slow reader, it will resync on the next event
		}
	}
}

// AvailabilityChanged reloads the busy list and pushes it to all clients.
// It runs on its own goroutine so callers on the request path never wait.
func (h *Hub) AvailabilityChanged() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()

		busy, err := h.service.Busy(ctx)
		if err != nil {
			h.log.Error("availability broadcast failed", "error", err)
			return
		}
		data, err := json.Marshal(Event{Type: EventAvailabilityChanged, Busy: busy})
		if err != nil {
			return
		}
		h.broadcast(data)
	}()
}

// ServeHTTP upgrades the request and streams events until the client leaves.
// The current busy list is sent first.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}

	busy, err := h.service.Busy(r.Context())
	if err == nil {
		if data, err := json.Marshal(Event{Type: EventAvailabilityChanged, Busy: busy}); err == nil {
			c.send <- data
		}
	}

	h.register(c)
	go h.writePump(c)
	h.readPump(c)
}

// readPump only exists to process pongs and notice disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
