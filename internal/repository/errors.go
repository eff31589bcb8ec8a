package repository

import "errors"

var (
	// ErrSessionNotFound indicates no session is registered under the id
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists indicates a session with the same id is already registered
	ErrSessionExists = errors.New("session already exists")
)
