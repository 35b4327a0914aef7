package rendezvous

import "sync"

// Registry maps peer identifiers to the sessions currently registered under them.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: map[string]*Session{},
	}
}

// Register binds the normalized identifier to the session. The previous owner of the identifier,
// if any, is silently replaced and returned. Empty identifiers are ignored.
func (r *Registry) Register(identifier string, s *Session) (displaced *Session, registered bool) {
	key := Normalize(identifier)
	if key == "" {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.sessions[key]; exists && prev != s {
		displaced = prev
	}
	r.sessions[key] = s
	s.identifier = key

	return displaced, true
}

// Lookup returns the session registered under the identifier.
func (r *Registry) Lookup(identifier string) (*Session, bool) {
	key := Normalize(identifier)
	if key == "" {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[key]
	return s, exists
}

// Unregister removes the identifier registered by the session, unless another session
// has taken it over in the meantime.
func (r *Registry) Unregister(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.identifier == "" {
		return false
	}

	if owner, exists := r.sessions[s.identifier]; !exists || owner != s {
		return false
	}

	delete(r.sessions, s.identifier)
	return true
}

// Identifier returns the identifier most recently registered by the session.
func (r *Registry) Identifier(s *Session) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return s.identifier
}

// Len returns the number of registered identifiers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
