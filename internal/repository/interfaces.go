package repository

import "go-capture-guide/internal/session"

// SessionRepository defines the interface for capture session bookkeeping
type SessionRepository interface {
	// Save registers a session under its id
	Save(s *session.Session) error

	// Get retrieves a registered session
	Get(id string) (*session.Session, error)

	// Delete removes a session; the session itself is not closed
	Delete(id string) error

	// List returns every registered session
	List() []*session.Session
}
