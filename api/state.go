package api

import (
	"sync"
	"time"
)

// DefaultDocument is the blank diagram every session starts from and returns
// to when the last user disconnects.
const DefaultDocument = "<bpmn:definitions xmlns:bpmn='http://www.omg.org/spec/BPMN/20100524/MODEL'></bpmn:definitions>"

// Retention caps for the bounded logs; oldest entries are evicted first.
const (
	activityLogCap = 50
	versionCap     = 50
	chatLogCap     = 100
)

// SessionState is the authoritative shared state of the collaboration
// session: the document, the element lock table, and the bounded activity,
// version and chat logs. One instance lives for the whole process; Reset
// returns it to the initial blank state. All methods are safe for concurrent
// use and every mutation is atomic with respect to every other.
type SessionState struct {
	mu          sync.Mutex
	document    string
	locks       map[string]string
	activity    []LogEntry
	versions    []DiagramVersion
	chat        []ChatMessage
	lastUpdated time.Time
}

// StateSnapshot is a consistent point-in-time copy of every field of the
// session state. All containers are copies; mutating them cannot affect the
// live state.
type StateSnapshot struct {
	Document    string
	Locks       map[string]string
	ActivityLog []LogEntry
	Versions    []DiagramVersion
	ChatLog     []ChatMessage
	LastUpdated time.Time
}

// NewSessionState creates session state holding the default blank document
func NewSessionState() *SessionState {
	return &SessionState{
		document: DefaultDocument,
		locks:    make(map[string]string),
	}
}

// Document returns the current document content
func (s *SessionState) Document() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document
}

// SetDocument replaces the document content, last writer wins, and records
// the update time. It does not append a version; callers that accept a
// client edit follow up with SaveVersion.
func (s *SessionState) SetDocument(xml string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = xml
	s.lastUpdated = time.Now().UTC()
}

// SaveVersion appends a snapshot of the current document to the version
// history, evicting the oldest entry beyond the cap.
func (s *SessionState) SaveVersion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions = append(s.versions, DiagramVersion{
		Timestamp: timestamp(),
		XML:       s.document,
	})
	if len(s.versions) > versionCap {
		s.versions = s.versions[len(s.versions)-versionCap:]
	}
}

// Lock claims an element for holder. There is no contention check: the last
// lock call for an element wins. That is the documented replication policy,
// and disconnect cleanup depends on unconditional overwrite.
func (s *SessionState) Lock(elementID, holder string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[elementID] = holder
}

// Unlock releases an element regardless of who holds it. No-op if the
// element is not locked.
func (s *SessionState) Unlock(elementID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, elementID)
}

// ReleaseLocksOf removes every lock held by holder in a single atomic scan
// and returns the released element IDs for the caller to broadcast.
func (s *SessionState) ReleaseLocksOf(holder string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var released []string
	for elementID, lockHolder := range s.locks {
		if lockHolder == holder {
			released = append(released, elementID)
		}
	}
	for _, elementID := range released {
		delete(s.locks, elementID)
	}
	return released
}

// Locks returns a copy of the lock table
func (s *SessionState) Locks() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyLocks(s.locks)
}

// AppendActivity appends a human-readable activity entry, evicting the
// oldest beyond the cap, and returns the entry for broadcast.
func (s *SessionState) AppendActivity(message string) LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := LogEntry{Timestamp: timestamp(), Message: message}
	s.activity = append(s.activity, entry)
	if len(s.activity) > activityLogCap {
		s.activity = s.activity[len(s.activity)-activityLogCap:]
	}
	return entry
}

// ActivityLog returns a copy of the retained activity entries
func (s *SessionState) ActivityLog() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LogEntry(nil), s.activity...)
}

// AppendChat appends a chat entry, evicting the oldest beyond the cap, and
// returns the entry for broadcast.
func (s *SessionState) AppendChat(username, message string) ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := ChatMessage{Timestamp: timestamp(), Username: username, Message: message}
	s.chat = append(s.chat, entry)
	if len(s.chat) > chatLogCap {
		s.chat = s.chat[len(s.chat)-chatLogCap:]
	}
	return entry
}

// ChatLog returns a copy of the retained chat transcript
func (s *SessionState) ChatLog() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatMessage(nil), s.chat...)
}

// Versions returns a copy of the retained version history
func (s *SessionState) Versions() []DiagramVersion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DiagramVersion(nil), s.versions...)
}

// LastUpdated returns the time of the most recent document write; the bool
// is false if the document has never been written.
func (s *SessionState) LastUpdated() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdated, !s.lastUpdated.IsZero()
}

// Snapshot returns a consistent copy of every field, taken under one lock
// acquisition so no concurrent mutation can be half-visible.
func (s *SessionState) Snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StateSnapshot{
		Document:    s.document,
		Locks:       copyLocks(s.locks),
		ActivityLog: append([]LogEntry(nil), s.activity...),
		Versions:    append([]DiagramVersion(nil), s.versions...),
		ChatLog:     append([]ChatMessage(nil), s.chat...),
		LastUpdated: s.lastUpdated,
	}
}

// Reset restores the initial blank state. Called when the last participant
// leaves; the document does not outlive the session.
func (s *SessionState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = DefaultDocument
	s.locks = make(map[string]string)
	s.activity = nil
	s.versions = nil
	s.chat = nil
	s.lastUpdated = time.Time{}
}

func copyLocks(locks map[string]string) map[string]string {
	out := make(map[string]string, len(locks))
	for k, v := range locks {
		out[k] = v
	}
	return out
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
