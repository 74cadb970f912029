package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flowboard/flowboard/internal/slogging"
)

// HandleWS upgrades the HTTP request, admits the connection and starts its
// pumps. The display name comes from the username query parameter, then the
// Username header, then a synthesized fallback.
func (h *Hub) HandleWS(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		username = c.GetHeader("Username")
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slogging.Get().Error("Failed to upgrade connection: %v", err)
		return
	}

	connID := uuid.New().String()
	if username == "" {
		username = FallbackName(connID)
	}

	client := &Client{
		hub:      h,
		Conn:     conn,
		ID:       connID,
		Username: username,
		send:     make(chan []byte, h.cfg.SendBufferSize),
	}

	h.register(client)

	go client.WritePump()
	go client.ReadPump()

	// Give the client a moment to finish subscribing before the replay.
	// Correctness does not depend on this; the replay is a plain state copy
	// and is safe to arrive before or after other early messages.
	if h.cfg.ReplayDelay > 0 {
		time.Sleep(h.cfg.ReplayDelay)
	}
	h.announce(client)
}

// register adds the client to the connection set and the identity registry
func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.registry.Admit(client.ID, client.Username)
	wsConnectionsActive.Inc()
	slogging.Get().Info("Connection %s admitted as %q", client.ID, client.Username)
}

// announce broadcasts the updated presence list, replays current state to
// the new client, and records the connect in the activity log.
func (h *Hub) announce(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		// Already gone; disconnect handling has run.
		return
	}

	h.broadcastAll(UserUpdateMessage{
		MessageType: MessageTypeUserUpdate,
		Users:       h.registry.DistinctOnlineNames(),
	})

	snapshot := h.state.Snapshot()
	if snapshot.Document != "" {
		h.sendTo(client.ID, DiagramUpdateMessage{
			MessageType: MessageTypeDiagramUpdate,
			XML:         snapshot.Document,
		})
	}
	if len(snapshot.Locks) > 0 {
		h.sendTo(client.ID, LocksUpdateMessage{
			MessageType: MessageTypeLocksUpdate,
			Locks:       snapshot.Locks,
		})
	}
	if len(snapshot.ChatLog) > 0 {
		h.sendTo(client.ID, ChatHistoryMessage{
			MessageType: MessageTypeChatHistory,
			Messages:    snapshot.ChatLog,
		})
	}
	if len(snapshot.ActivityLog) > 0 {
		h.sendTo(client.ID, ActivityLogMessage{
			MessageType: MessageTypeActivityLog,
			Entries:     snapshot.ActivityLog,
		})
	}

	h.logAndBroadcast(client.Username + " connected")
}

// handleDisconnect runs the full disconnect path: release identity, free the
// user's locks, refresh presence for everyone, and reset the session when
// the last participant leaves. Safe to call for an already-evicted client.
func (h *Hub) handleDisconnect(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[client.ID]; ok && c == client {
		delete(h.clients, client.ID)
		close(client.send)
	}

	name := h.registry.Release(client.ID)
	wsConnectionsActive.Dec()
	slogging.Get().Info("Connection %s (%s) disconnected", client.ID, name)

	released := h.state.ReleaseLocksOf(name)
	if len(released) > 0 {
		h.broadcastAll(LocksUpdateMessage{
			MessageType: MessageTypeLocksUpdate,
			Locks:       h.state.Locks(),
		})
	}

	h.broadcastAll(UserUpdateMessage{
		MessageType: MessageTypeUserUpdate,
		Users:       h.registry.DistinctOnlineNames(),
	})

	h.logAndBroadcast(name + " disconnected")

	if h.registry.OnlineConnections() == 0 {
		h.state.Reset()
		h.logAndBroadcast("Diagram reset - all users disconnected")
	}
}
