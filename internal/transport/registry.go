package transport

import "sync"

// Registry is the in-memory table of live sessions, keyed by session id.
// HTTP handlers run on separate goroutines, so every operation takes the
// mutex; each is a single map access and no lock is ever held across I/O.
//
// The registry never closes a transport. Closure is driven by the transport
// itself (client DELETE, engine-level close, teardown at shutdown) and
// observed here through the OnClose hook installed at Add time.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*SessionTransport
}

// NewRegistry returns an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*SessionTransport)}
}

// Add registers the transport under its session id and subscribes to its
// closure. The id is captured here, not re-read at close time, and eviction
// checks that the entry still belongs to this transport, so a later session
// registered under the same id can never be evicted by a stale close
// notification.
func (reg *Registry) Add(t *SessionTransport) {
	id := t.SessionID()
	t.OnClose(func() { reg.evict(id, t) })

	reg.mu.Lock()
	reg.sessions[id] = t
	reg.mu.Unlock()
}

// evict removes the entry for id only while it still maps to t.
func (reg *Registry) evict(id string, t *SessionTransport) {
	reg.mu.Lock()
	if reg.sessions[id] == t {
		delete(reg.sessions, id)
	}
	reg.mu.Unlock()
}

// Lookup returns the transport registered under id, if any.
func (reg *Registry) Lookup(id string) (*SessionTransport, bool) {
	reg.mu.RLock()
	t, ok := reg.sessions[id]
	reg.mu.RUnlock()
	return t, ok
}

// Remove drops the registry entry for id. Removing an absent id is a no-op.
func (reg *Registry) Remove(id string) {
	reg.mu.Lock()
	delete(reg.sessions, id)
	reg.mu.Unlock()
}

// Len reports the number of live sessions, for diagnostics.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.sessions)
}

// CloseAll tears down every registered session. Used at server shutdown.
func (reg *Registry) CloseAll() {
	reg.mu.RLock()
	transports := make([]*SessionTransport, 0, len(reg.sessions))
	for _, t := range reg.sessions {
		transports = append(transports, t)
	}
	reg.mu.RUnlock()

	// Close outside the lock: each Close fires the OnClose hook, which
	// takes the write lock to evict its entry.
	for _, t := range transports {
		t.Close()
	}
}
