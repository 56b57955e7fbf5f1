package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/garyHu951/wordle-game/internal/duel"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // must be less than pongWait
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Hub tracks live connections by id and delivers events to them.
// It implements duel.Notifier.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// Client is one WebSocket connection.
type Client struct {
	ID      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	closeOnce sync.Once
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Send queues ev for connID. Unknown connections and full buffers drop the
// event.
func (h *Hub) Send(connID string, ev duel.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("event", ev.Name).Msg("marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case c.send <- b:
	default:
		log.Warn().Str("conn", connID).Str("event", ev.Name).Msg("send buffer full, event dropped")
	}
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.ID]; ok && cur == c {
		delete(h.clients, c.ID)
		c.closeOnce.Do(func() { close(c.send) })
	}
}

// Close drops every connection. Read pumps then run their disconnect path.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.closeOnce.Do(func() { close(c.send) })
		_ = c.conn.Close()
		delete(h.clients, id)
	}
}

// writePump drains c.send to the socket and keeps the connection alive with
// pings. It owns all writes to c.conn.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Str("conn", c.ID).Msg("write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
