// Package gateway is the presentation boundary of the watchlist engine:
// REST handlers for login, catalog, watchlist, P&L and user management,
// plus a WebSocket hub that streams each session's simulator ticks to its
// connected clients.
package gateway

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub manages WebSocket clients. Each client is pinned to one session
// identity and only receives that identity's price envelopes.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	seq     int64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]bool)}
}

// Register wraps conn in a Client bound to identity and starts its pumps.
func (h *Hub) Register(conn *websocket.Conn, identity string) *Client {
	client := &Client{
		conn:     conn,
		send:     make(chan []byte, 256),
		hub:      h,
		identity: identity,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("[gateway] ws client connected for %s (%d total)", identity, count)

	go client.writePump()
	go client.readPump()
	return client
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast fans data out to every client of the given identity under the
// channel "prices:<identity>". Slow clients drop the message rather than
// stalling the tick path.
func (h *Hub) Broadcast(identity string, data []byte) {
	channel := "prices:" + identity

	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.mu.Unlock()

	envelope := buildEnvelope(channel, data, time.Now().UTC(), seq)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.identity != identity {
			continue
		}
		select {
		case client.send <- envelope:
		default: // slow client, drop the update
		}
	}
}

// buildEnvelope hand-crafts the WS envelope JSON:
// {"channel":"...","data":...,"ts":"...","seq":N}. data must already be
// valid JSON.
func buildEnvelope(channel string, data []byte, now time.Time, seq int64) []byte {
	buf := make([]byte, 0, len(channel)+len(data)+128)
	buf = append(buf, `{"channel":"`...)
	buf = append(buf, channel...)
	buf = append(buf, `","data":`...)
	buf = append(buf, data...)
	buf = append(buf, `,"ts":"`...)
	buf = now.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, '}')
	return buf
}
