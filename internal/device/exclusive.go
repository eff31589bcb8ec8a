package device

import (
	"context"
	"sync"

	apperrors "go-capture-guide/internal/errors"
)

type exclusiveDevice struct {
	mu   sync.Mutex
	dev  Device
	held bool
}

// Exclusive wraps dev so that at most one stream is open at a time.
// A second Open while a stream is held fails with a device busy error;
// the hold is released when that stream is closed.
func Exclusive(dev Device) Device {
	return &exclusiveDevice{dev: dev}
}

func (e *exclusiveDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	e.mu.Lock()
	if e.held {
		e.mu.Unlock()
		return nil, apperrors.NewDeviceBusyError("capture device is held by another session", nil)
	}
	e.held = true
	e.mu.Unlock()

	s, err := e.dev.Open(ctx, c)
	if err != nil {
		e.release()
		return nil, err
	}
	return &exclusiveStream{Stream: s, release: e.release}, nil
}

func (e *exclusiveDevice) release() {
	e.mu.Lock()
	e.held = false
	e.mu.Unlock()
}

type exclusiveStream struct {
	Stream
	once    sync.Once
	release func()
}

func (s *exclusiveStream) Close() error {
	var err error
	s.once.Do(func() {
		err = s.Stream.Close()
		s.release()
	})
	return err
}
