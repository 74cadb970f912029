package api

import "sync"

// UserRegistry maps transient connection IDs to display names. One person
// may be connected from several tabs or devices, so a display name can map
// to any number of live connections; the online-user view collapses them.
type UserRegistry struct {
	mu     sync.RWMutex
	names  map[string]string   // connection ID -> display name
	byName map[string][]string // display name -> connection IDs
	order  []string            // display names in first-seen order
}

// NewUserRegistry creates an empty registry
func NewUserRegistry() *UserRegistry {
	return &UserRegistry{
		names:  make(map[string]string),
		byName: make(map[string][]string),
	}
}

// FallbackName synthesizes a display name from a connection ID. Used when a
// client never negotiated a name and when resolving unknown connections.
func FallbackName(connID string) string {
	short := connID
	if len(short) > 5 {
		short = short[:5]
	}
	return "User-" + short
}

// Admit registers a connection under a display name. Re-admitting a known
// connection ID (a reconnect race) replaces the previous registration. A name
// already online keeps its position in the presence order; a name returning
// after fully leaving joins at the end.
func (r *UserRegistry) Admit(connID, displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.names[connID]; ok {
		r.removeLocked(connID)
	}
	if len(r.byName[displayName]) == 0 {
		r.order = append(r.order, displayName)
	}
	r.names[connID] = displayName
	r.byName[displayName] = append(r.byName[displayName], connID)
}

// Release removes a connection and returns the display name it had. Unknown
// connection IDs resolve to the fallback name; calling Release twice for the
// same connection is safe.
func (r *UserRegistry) Release(connID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.names[connID]
	if !ok {
		return FallbackName(connID)
	}
	r.removeLocked(connID)
	return name
}

// Resolve returns the display name for a connection, or the fallback name
// if the connection is unknown.
func (r *UserRegistry) Resolve(connID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.names[connID]; ok {
		return name
	}
	return FallbackName(connID)
}

// DistinctOnlineNames returns the online display names in first-seen order
// with duplicates collapsed. A name holds its position as long as any of its
// connections is live, so closing one of several tabs never reorders the view.
func (r *UserRegistry) DistinctOnlineNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// ConnectionsFor returns the live connection IDs registered under a display name
func (r *UserRegistry) ConnectionsFor(displayName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.byName[displayName]...)
}

// OnlineConnections returns the number of live connections
func (r *UserRegistry) OnlineConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// removeLocked drops a connection from every index; the display name leaves
// the presence order only when its last connection goes. Caller holds r.mu.
func (r *UserRegistry) removeLocked(connID string) {
	name := r.names[connID]
	delete(r.names, connID)

	conns := r.byName[name]
	for i, id := range conns {
		if id == connID {
			r.byName[name] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(r.byName[name]) == 0 {
		delete(r.byName, name)
		for i, n := range r.order {
			if n == name {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
}
