package repository

import (
	"errors"
	"testing"

	"go-capture-guide/internal/device"
	"go-capture-guide/internal/session"
)

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository()
	dev := device.NewMemory(nil)
	a := session.New(dev, session.DefaultOptions(), nil)
	b := session.New(dev, session.DefaultOptions(), nil)

	if err := repo.Save(a); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(b); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(a); !errors.Is(err, ErrSessionExists) {
		t.Errorf("Expected ErrSessionExists, got %v", err)
	}

	got, err := repo.Get(a.ID())
	if err != nil || got != a {
		t.Errorf("Expected to get session a, got %v, %v", got, err)
	}
	if len(repo.List()) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(repo.List()))
	}

	if err := repo.Delete(a.ID()); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Get(a.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if err := repo.Delete(a.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}
