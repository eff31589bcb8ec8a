package device

import (
	"context"
	"image"
	"sync"
	"time"

	apperrors "go-capture-guide/internal/errors"
	"go-capture-guide/internal/storage"
)

// Replay plays back recorded frames from a FrameStore as if they came from
// a camera. Frames advance every FrameInterval from the moment of Open and
// loop at the end. Facing is ignored; recordings are taken as-is.
type Replay struct {
	store         storage.FrameStore
	FrameInterval time.Duration
	now           func() time.Time
}

// NewReplay creates a replay device over store
func NewReplay(store storage.FrameStore, frameInterval time.Duration) *Replay {
	if frameInterval <= 0 {
		frameInterval = 100 * time.Millisecond
	}
	return &Replay{store: store, FrameInterval: frameInterval, now: time.Now}
}

// Open loads the whole recording before returning the stream
func (r *Replay) Open(ctx context.Context, c Constraints) (Stream, error) {
	keys, err := r.store.List(ctx)
	if err != nil {
		return nil, apperrors.NewDeviceUnavailableError("replay source is not readable", err)
	}
	if len(keys) == 0 {
		return nil, apperrors.NewDeviceUnavailableError("replay source has no frames", nil)
	}

	frames := make([]image.Image, 0, len(keys))
	for _, key := range keys {
		img, err := r.store.Fetch(ctx, key)
		if err != nil {
			return nil, apperrors.NewDeviceUnavailableError("failed to load replay frame "+key, err)
		}
		frames = append(frames, img)
	}

	b := frames[0].Bounds()
	return &replayStream{
		frames:   frames,
		width:    b.Dx(),
		height:   b.Dy(),
		interval: r.FrameInterval,
		now:      r.now,
		started:  r.now(),
	}, nil
}

type replayStream struct {
	frames   []image.Image
	width    int
	height   int
	interval time.Duration
	now      func() time.Time
	started  time.Time

	mu     sync.Mutex
	closed bool
}

func (s *replayStream) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, apperrors.NewDeviceUnavailableError("stream closed", nil)
	}
	idx := int(s.now().Sub(s.started)/s.interval) % len(s.frames)
	if idx < 0 {
		idx = 0
	}
	return s.frames[idx], nil
}

func (s *replayStream) Dimensions() (int, int) {
	return s.width, s.height
}

func (s *replayStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.frames = nil
	s.mu.Unlock()
	return nil
}
