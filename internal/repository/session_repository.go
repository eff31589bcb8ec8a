package repository

import (
	"sort"
	"sync"

	"go-capture-guide/internal/session"
)

// MemorySessionRepository implements SessionRepository in process memory
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// NewMemorySessionRepository creates an empty repository
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]*session.Session),
	}
}

// Save registers a session under its id
func (r *MemorySessionRepository) Save(s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID()]; ok {
		return ErrSessionExists
	}
	r.sessions[s.ID()] = s
	return nil
}

// Get retrieves a registered session
func (r *MemorySessionRepository) Get(id string) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes a session
func (r *MemorySessionRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// List returns every registered session ordered by id
func (r *MemorySessionRepository) List() []*session.Session {
	r.mu.RLock()
	out := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
