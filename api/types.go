package api

// Wire types for the collaboration protocol. Every message carries a
// message_type discriminator; payload field names match what the web client
// sends and expects.

// Inbound message types accepted from clients
const (
	MessageTypeUpdateDiagram  = "update_diagram"
	MessageTypeLockElement    = "lock_element"
	MessageTypeUnlockElement  = "unlock_element"
	MessageTypeSendChat       = "send_chat"
	MessageTypeCursorMove     = "cursor_move"
	MessageTypeUserEditing    = "user_editing"
	MessageTypeGetActivityLog = "get_activity_log"
	MessageTypeGetVersions    = "get_versions"
	MessageTypeGetUsers       = "get_users"
	MessageTypeSyncDiagram    = "sync_diagram"
)

// Outbound message types emitted by the server
const (
	MessageTypeUserUpdate        = "user_update"
	MessageTypeDiagramUpdate     = "diagram_update"
	MessageTypeLocksUpdate       = "locks_update"
	MessageTypeElementLocked     = "element_locked"
	MessageTypeElementUnlocked   = "element_unlocked"
	MessageTypeChatHistory       = "chat_history"
	MessageTypeReceiveChat       = "receive_chat"
	MessageTypeCursorUpdate      = "cursor_update"
	MessageTypeEditingUpdate     = "editing_update"
	MessageTypeActivityLog       = "activity_log"
	MessageTypeActivityLogUpdate = "activity_log_update"
	MessageTypeDiagramVersions   = "diagram_versions"
)

// LogEntry is one activity-log record
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// ChatMessage is one chat transcript record
type ChatMessage struct {
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Message   string `json:"message"`
}

// DiagramVersion is a timestamped full snapshot of the document
type DiagramVersion struct {
	Timestamp string `json:"timestamp"`
	XML       string `json:"xml"`
}

// DiagramUpdatePayload is the body of an update_diagram message. XML is a
// pointer so an absent field can be told apart from an empty document, which
// is a valid replacement value.
type DiagramUpdatePayload struct {
	XML *string `json:"xml"`
}

// LockPayload is the body of lock_element and unlock_element messages
type LockPayload struct {
	ElementID string `json:"element_id"`
}

// ChatPayload is the body of a send_chat message
type ChatPayload struct {
	Message string `json:"message"`
}

// CursorPayload is the body of a cursor_move message
type CursorPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EditingPayload is the body of a user_editing message. ElementID is nil
// when the user stopped editing.
type EditingPayload struct {
	ElementID *string `json:"element_id"`
}

// UserUpdateMessage carries the deduplicated online-user list
type UserUpdateMessage struct {
	MessageType string   `json:"message_type"`
	Users       []string `json:"users"`
}

// DiagramUpdateMessage carries the full current document
type DiagramUpdateMessage struct {
	MessageType string `json:"message_type"`
	XML         string `json:"xml"`
}

// LocksUpdateMessage carries the full lock table
type LocksUpdateMessage struct {
	MessageType string            `json:"message_type"`
	Locks       map[string]string `json:"locks"`
}

// ElementLockedMessage announces a single element lock
type ElementLockedMessage struct {
	MessageType string `json:"message_type"`
	ElementID   string `json:"element_id"`
	LockedBy    string `json:"locked_by"`
}

// ElementUnlockedMessage announces a single element unlock
type ElementUnlockedMessage struct {
	MessageType string `json:"message_type"`
	ElementID   string `json:"element_id"`
}

// ChatHistoryMessage replays the chat transcript to a new client
type ChatHistoryMessage struct {
	MessageType string        `json:"message_type"`
	Messages    []ChatMessage `json:"messages"`
}

// ReceiveChatMessage delivers one chat entry to every client
type ReceiveChatMessage struct {
	MessageType string `json:"message_type"`
	Timestamp   string `json:"timestamp"`
	Username    string `json:"username"`
	Message     string `json:"message"`
}

// CursorUpdateMessage relays a cursor position to other clients
type CursorUpdateMessage struct {
	MessageType string  `json:"message_type"`
	Username    string  `json:"username"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// EditingUpdateMessage relays which element a user is editing
type EditingUpdateMessage struct {
	MessageType string  `json:"message_type"`
	Username    string  `json:"username"`
	ElementID   *string `json:"element_id"`
}

// ActivityLogMessage replays the activity log
type ActivityLogMessage struct {
	MessageType string     `json:"message_type"`
	Entries     []LogEntry `json:"entries"`
}

// ActivityLogUpdateMessage delivers one new activity entry
type ActivityLogUpdateMessage struct {
	MessageType string `json:"message_type"`
	Timestamp   string `json:"timestamp"`
	Message     string `json:"message"`
}

// DiagramVersionsMessage delivers the retained version history
type DiagramVersionsMessage struct {
	MessageType string           `json:"message_type"`
	Versions    []DiagramVersion `json:"versions"`
}

// APIError is the HTTP error body
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
