package api

import (
	"encoding/json"
	"runtime/debug"

	"github.com/flowboard/flowboard/internal/slogging"
)

// MessageHandler defines the interface for handling inbound websocket messages
type MessageHandler interface {
	HandleMessage(hub *Hub, client *Client, message []byte)
	MessageType() string
}

// MessageRouter routes inbound messages to the handler registered for their
// message_type. It is also the fault boundary: a malformed payload or a
// panicking handler costs one message, never the server or another
// connection's session.
type MessageRouter struct {
	handlers map[string]MessageHandler
}

// NewMessageRouter creates a router with all protocol handlers registered
func NewMessageRouter() *MessageRouter {
	router := &MessageRouter{
		handlers: make(map[string]MessageHandler),
	}

	router.RegisterHandler(&DiagramUpdateHandler{})
	router.RegisterHandler(&LockElementHandler{})
	router.RegisterHandler(&UnlockElementHandler{})
	router.RegisterHandler(&SendChatHandler{})
	router.RegisterHandler(&CursorMoveHandler{})
	router.RegisterHandler(&UserEditingHandler{})
	router.RegisterHandler(&ActivityLogRequestHandler{})
	router.RegisterHandler(&VersionsRequestHandler{})
	router.RegisterHandler(&UsersRequestHandler{})
	router.RegisterHandler(&SyncDiagramHandler{})

	return router
}

// RegisterHandler registers a message handler for a specific message type
func (r *MessageRouter) RegisterHandler(handler MessageHandler) {
	r.handlers[handler.MessageType()] = handler
}

// RouteMessage routes one inbound message to its handler
func (r *MessageRouter) RouteMessage(hub *Hub, client *Client, message []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			slogging.Get().Error("PANIC in RouteMessage - Connection: %s, User: %s, Error: %v, Stack: %s",
				client.ID, client.Username, rec, debug.Stack())
		}
	}()

	var baseMsg struct {
		MessageType string `json:"message_type"`
	}
	if err := json.Unmarshal(message, &baseMsg); err != nil {
		slogging.Get().Warn("Failed to parse message from %s: %v", client.ID, err)
		return
	}

	handler, exists := r.handlers[baseMsg.MessageType]
	if !exists {
		slogging.Get().Warn("Unsupported message type %q from %s", baseMsg.MessageType, client.ID)
		return
	}

	wsMessagesReceived.WithLabelValues(baseMsg.MessageType).Inc()
	handler.HandleMessage(hub, client, message)
}

// DiagramUpdateHandler applies a full-document replacement. Last writer
// wins; every accepted update also snapshots a version.
type DiagramUpdateHandler struct{}

func (h *DiagramUpdateHandler) MessageType() string {
	return MessageTypeUpdateDiagram
}

func (h *DiagramUpdateHandler) HandleMessage(hub *Hub, client *Client, message []byte) {
	var payload DiagramUpdatePayload
	if err := json.Unmarshal(message, &payload); err != nil || payload.XML == nil {
		slogging.Get().Warn("Dropping invalid update_diagram from %s: %v", client.ID, err)
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	hub.state.SetDocument(*payload.XML)
	hub.state.SaveVersion()
	hub.broadcastExcept(client.ID, DiagramUpdateMessage{
		MessageType: MessageTypeDiagramUpdate,
		XML:         *payload.XML,
	})
	hub.logAndBroadcast(client.Username + " updated diagram")
}

// LockElementHandler claims an element for the sender. The claim is
// advisory: a later lock for the same element simply overwrites it.
type LockElementHandler struct{}

func (h *LockElementHandler) MessageType() string {
	return MessageTypeLockElement
}

func (h *LockElementHandler) HandleMessage(hub *Hub, client *Client, message []byte) {
	var payload LockPayload
	if err := json.Unmarshal(message, &payload); err != nil || payload.ElementID == "" {
		slogging.Get().Warn("Dropping invalid lock_element from %s: %v", client.ID, err)
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	hub.state.Lock(payload.ElementID, client.Username)
	hub.broadcastExcept(client.ID, ElementLockedMessage{
		MessageType: MessageTypeElementLocked,
		ElementID:   payload.ElementID,
		LockedBy:    client.Username,
	})
	hub.broadcastExcept(client.ID, LocksUpdateMessage{
		MessageType: MessageTypeLocksUpdate,
		Locks:       hub.state.Locks(),
	})
	hub.logAndBroadcast(client.Username + " locked " + payload.ElementID)
}

// UnlockElementHandler releases an element. No holder check: any connection
// may release any lock, which disconnect cleanup also relies on.
type UnlockElementHandler struct{}

func (h *UnlockElementHandler) MessageType() string {
	return MessageTypeUnlockElement
}

func (h *UnlockElementHandler) HandleMessage(hub *Hub, client *Client, message []byte) {
	var payload LockPayload
	if err := json.Unmarshal(message, &payload); err != nil || payload.ElementID == "" {
		slogging.Get().Warn("Dropping invalid unlock_element from %s: %v", client.ID, err)
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	hub.state.Unlock(payload.ElementID)
	hub.broadcastExcept(client.ID, ElementUnlockedMessage{
		MessageType: MessageTypeElementUnlocked,
		ElementID:   payload.ElementID,
	})
	hub.broadcastExcept(client.ID, LocksUpdateMessage{
		MessageType: MessageTypeLocksUpdate,
		Locks:       hub.state.Locks(),
	})
	hub.logAndBroadcast(client.Username + " unlocked " + payload.ElementID)
}

// SendChatHandler appends a chat entry and delivers it to everyone,
// the sender included, so all transcripts agree on ordering.
type SendChatHandler struct{}

func (h *SendChatHandler) MessageType() string {
	return MessageTypeSendChat
}

func (h *SendChatHandler) HandleMessage(hub *Hub, client *Client, message []byte) {
	var payload ChatPayload
	if err := json.Unmarshal(message, &payload); err != nil || payload.Message == "" {
		slogging.Get().Warn("Dropping invalid send_chat from %s: %v", client.ID, err)
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	entry := hub.state.AppendChat(client.Username, payload.Message)
	hub.broadcastAll(ReceiveChatMessage{
		MessageType: MessageTypeReceiveChat,
		Timestamp:   entry.Timestamp,
		Username:    entry.Username,
		Message:     entry.Message,
	})
}

// CursorMoveHandler relays a cursor position to the other clients. Cursor
// positions are transient presence data and touch no session state.
type CursorMoveHandler struct{}

func (h *CursorMoveHandler) MessageType() string {
	return MessageTypeCursorMove
}

func (h *CursorMoveHandler) HandleMessage(hub *Hub, client *Client, message []byte) {
	var payload CursorPayload
	if err := json.Unmarshal(message, &payload); err != nil {
		slogging.Get().Warn("Dropping invalid cursor_move from %s: %v", client.ID, err)
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	hub.broadcastExcept(client.ID, CursorUpdateMessage{
		MessageType: MessageTypeCursorUpdate,
		Username:    client.Username,
		X:           payload.X,
		Y:           payload.Y,
	})
}

// UserEditingHandler relays which element a user started or stopped editing
type UserEditingHandler struct{}

func (h *UserEditingHandler) MessageType() string {
	return MessageTypeUserEditing
}

func (h *UserEditingHandler) HandleMessage(hub *Hub, client *Client, message []byte) {
	var payload EditingPayload
	if err := json.Unmarshal(message, &payload); err != nil {
		slogging.Get().Warn("Dropping invalid user_editing from %s: %v", client.ID, err)
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	hub.broadcastExcept(client.ID, EditingUpdateMessage{
		MessageType: MessageTypeEditingUpdate,
		Username:    client.Username,
		ElementID:   payload.ElementID,
	})
}

// ActivityLogRequestHandler replays the activity log to the requester
type ActivityLogRequestHandler struct{}

func (h *ActivityLogRequestHandler) MessageType() string {
	return MessageTypeGetActivityLog
}

func (h *ActivityLogRequestHandler) HandleMessage(hub *Hub, client *Client, message []byte) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	hub.sendTo(client.ID, ActivityLogMessage{
		MessageType: MessageTypeActivityLog,
		Entries:     hub.state.ActivityLog(),
	})
}

// VersionsRequestHandler sends the retained version history to the requester
type VersionsRequestHandler struct{}

func (h *VersionsRequestHandler) MessageType() string {
	return MessageTypeGetVersions
}

func (h *VersionsRequestHandler) HandleMessage(hub *Hub, client *Client, message []byte) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	hub.sendTo(client.ID, DiagramVersionsMessage{
		MessageType: MessageTypeDiagramVersions,
		Versions:    hub.state.Versions(),
	})
}

// UsersRequestHandler sends the online-user list to the requester
type UsersRequestHandler struct{}

func (h *UsersRequestHandler) MessageType() string {
	return MessageTypeGetUsers
}

func (h *UsersRequestHandler) HandleMessage(hub *Hub, client *Client, message []byte) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	hub.sendTo(client.ID, UserUpdateMessage{
		MessageType: MessageTypeUserUpdate,
		Users:       hub.registry.DistinctOnlineNames(),
	})
}

// SyncDiagramHandler pushes the authoritative document to every client,
// the requester included. A client that missed an update self-heals here.
type SyncDiagramHandler struct{}

func (h *SyncDiagramHandler) MessageType() string {
	return MessageTypeSyncDiagram
}

func (h *SyncDiagramHandler) HandleMessage(hub *Hub, client *Client, message []byte) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	document := hub.state.Document()
	if document == "" {
		return
	}
	hub.broadcastAll(DiagramUpdateMessage{
		MessageType: MessageTypeDiagramUpdate,
		XML:         document,
	})
	hub.logAndBroadcast(client.Username + " synced diagram for all users")
}
