package device

import (
	"context"
	"image"
	"sync"

	apperrors "go-capture-guide/internal/errors"
)

// Memory is an in-process device serving whatever frame was last set.
// Open and frame failures can be injected and acquisitions are counted,
// which makes it the device of choice in tests.
type Memory struct {
	mu              sync.Mutex
	frame           image.Image
	openErr         error
	frameErr        error
	opens           int
	releases        int
	lastConstraints Constraints
}

// NewMemory creates a memory device showing frame
func NewMemory(frame image.Image) *Memory {
	return &Memory{frame: frame}
}

// SetFrame replaces the frame every open stream sees
func (m *Memory) SetFrame(frame image.Image) {
	m.mu.Lock()
	m.frame = frame
	m.mu.Unlock()
}

// FailOpen makes subsequent opens fail with err; nil clears it
func (m *Memory) FailOpen(err error) {
	m.mu.Lock()
	m.openErr = err
	m.mu.Unlock()
}

// FailFrames makes Frame fail with err; nil clears it
func (m *Memory) FailFrames(err error) {
	m.mu.Lock()
	m.frameErr = err
	m.mu.Unlock()
}

func (m *Memory) Open(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewDeviceUnavailableError("device acquisition cancelled", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return nil, m.openErr
	}
	m.opens++
	m.lastConstraints = c
	return &memoryStream{dev: m}, nil
}

// Opens returns how many streams were acquired
func (m *Memory) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Releases returns how many streams were closed
func (m *Memory) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releases
}

// Held reports whether any acquired stream is still open
func (m *Memory) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens > m.releases
}

// LastConstraints returns the constraints of the most recent open
func (m *Memory) LastConstraints() Constraints {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastConstraints
}

type memoryStream struct {
	dev    *Memory
	once   sync.Once
	closed bool
}

func (s *memoryStream) Frame() (image.Image, error) {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if s.closed {
		return nil, apperrors.NewDeviceUnavailableError("stream closed", nil)
	}
	if s.dev.frameErr != nil {
		return nil, s.dev.frameErr
	}
	if s.dev.frame == nil {
		return nil, apperrors.NewProcessingError("no frame available", nil)
	}
	return s.dev.frame, nil
}

func (s *memoryStream) Dimensions() (int, int) {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if s.dev.frame == nil {
		return 0, 0
	}
	b := s.dev.frame.Bounds()
	return b.Dx(), b.Dy()
}

func (s *memoryStream) Close() error {
	s.once.Do(func() {
		s.dev.mu.Lock()
		s.closed = true
		s.dev.releases++
		s.dev.mu.Unlock()
	})
	return nil
}
