package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/flowboard/flowboard/internal/config"
	"github.com/flowboard/flowboard/internal/slogging"
)

// Hub owns the connection set and coordinates every broadcast. State
// mutation and fan-out happen under one mutex, so any two accepted
// mutations reach every client in the same order. Individual sends are
// non-blocking pushes into each client's buffered channel; network writes
// never happen inside the critical section.
type Hub struct {
	// mu guards clients and serializes every mutate-then-broadcast sequence
	mu       sync.Mutex
	clients  map[string]*Client
	registry *UserRegistry
	state    *SessionState
	router   *MessageRouter
	cfg      config.WebSocketConfig
}

// Client is one live websocket connection
type Client struct {
	hub *Hub
	// Conn is the underlying websocket connection
	Conn *websocket.Conn
	// ID is the connection ID, unique per transport session
	ID string
	// Username is the display name resolved at admission
	Username string
	// send is the buffered channel of outbound frames
	send chan []byte
}

// Upgrader upgrades HTTP connections to WebSocket. All origins are allowed;
// the deployment fronts this with its own origin policy.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewHub creates a hub bound to the given registry and session state
func NewHub(registry *UserRegistry, state *SessionState, cfg config.WebSocketConfig) *Hub {
	h := &Hub{
		clients:  make(map[string]*Client),
		registry: registry,
		state:    state,
		cfg:      cfg,
	}
	h.router = NewMessageRouter()
	return h
}

// Registry returns the identity registry this hub admits connections into
func (h *Hub) Registry() *UserRegistry {
	return h.registry
}

// State returns the shared session state this hub mutates
func (h *Hub) State() *SessionState {
	return h.state
}

// ClientCount returns the number of registered connections
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcastAll sends a message to every connected client. Caller holds h.mu.
func (h *Hub) broadcastAll(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		slogging.Get().Error("Failed to marshal broadcast message: %v", err)
		return
	}
	wsBroadcastsTotal.Inc()
	for _, client := range h.clients {
		h.push(client, data)
	}
}

// broadcastExcept sends a message to every client except the originator.
// Caller holds h.mu.
func (h *Hub) broadcastExcept(excludeID string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		slogging.Get().Error("Failed to marshal broadcast message: %v", err)
		return
	}
	wsBroadcastsTotal.Inc()
	for id, client := range h.clients {
		if id == excludeID {
			continue
		}
		h.push(client, data)
	}
}

// sendTo sends a message to a single client; no-op if it already left.
// Caller holds h.mu.
func (h *Hub) sendTo(connID string, msg any) {
	client, ok := h.clients[connID]
	if !ok {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slogging.Get().Error("Failed to marshal message for %s: %v", connID, err)
		return
	}
	h.push(client, data)
}

// push queues one frame for one client without blocking. A client whose
// queue is full is evicted: its send channel closes, the write pump shuts
// the connection, and the read pump runs the normal disconnect path. One
// slow or dead connection never stalls delivery to the rest.
func (h *Hub) push(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		wsSendDropsTotal.Inc()
		slogging.Get().Warn("Send buffer full for connection %s (%s), evicting", c.ID, c.Username)
		delete(h.clients, c.ID)
		close(c.send)
	}
}

// logAndBroadcast appends an activity entry and delivers it to every client,
// the originator included, so all participants render the same audit trail.
// Caller holds h.mu.
func (h *Hub) logAndBroadcast(message string) {
	entry := h.state.AppendActivity(message)
	h.broadcastAll(ActivityLogUpdateMessage{
		MessageType: MessageTypeActivityLogUpdate,
		Timestamp:   entry.Timestamp,
		Message:     entry.Message,
	})
}

// ReadPump pumps messages from the websocket to the router. It runs on its
// own goroutine per connection and is the only reader of the connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.handleDisconnect(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.hub.cfg.ReadLimitBytes)
	_ = c.Conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slogging.Get().Warn("WebSocket read error for %s: %v", c.ID, err)
			}
			break
		}
		c.hub.router.RouteMessage(c.hub, c, message)
	}
}

// WritePump pumps queued frames to the websocket and keeps the connection
// alive with pings. It is the only writer of the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if !ok {
				// Hub closed the channel
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
