package session

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-capture-guide/internal/analyzer"
	"go-capture-guide/internal/device"
	apperrors "go-capture-guide/internal/errors"
	"go-capture-guide/internal/logger"
	"go-capture-guide/internal/observer"
	"go-capture-guide/internal/overlay"
	"go-capture-guide/internal/sampler"
	"go-capture-guide/internal/strategy"
	"go-capture-guide/pkg/models"
	"go-capture-guide/pkg/validation"
)

// RefreshSource starts a paint signal for a running sampler and returns
// it together with the function that stops it.
type RefreshSource func() (<-chan time.Time, func())

// TickerRefresh emits a paint signal every interval
func TickerRefresh(interval time.Duration) RefreshSource {
	return func() (<-chan time.Time, func()) {
		t := time.NewTicker(interval)
		return t.C, t.Stop
	}
}

// Options configures a capture session
type Options struct {
	AnalysisInterval time.Duration
	IdealWidth       int
	IdealHeight      int
	JPEGQuality      int
	Thresholds       validation.Thresholds
	Refresh          RefreshSource

	// IdleTimeout is how long a registered session may go without client
	// activity before the service closes and forgets it. Zero disables it.
	IdleTimeout time.Duration
}

// DefaultOptions returns HD capture at JPEG quality 92 with a 60 Hz refresh
func DefaultOptions() Options {
	return Options{
		AnalysisInterval: sampler.DefaultAnalysisInterval,
		IdealWidth:       1920,
		IdealHeight:      1080,
		JPEGQuality:      92,
		Thresholds:       validation.DefaultThresholds(),
		Refresh:          TickerRefresh(16 * time.Millisecond),
	}
}

// Info is a point-in-time view of a session
type Info struct {
	ID       string               `json:"id"`
	Mode     models.CaptureMode   `json:"mode"`
	Open     bool                 `json:"open"`
	Verdict  models.Verdict       `json:"verdict"`
	Metrics  *models.FrameMetrics `json:"metrics,omitempty"`
	Analyses uint64               `json:"analyses"`
	Width    int                  `json:"width"`
	Height   int                  `json:"height"`
}

// Session drives one capture flow: it owns the device while open, runs
// the sampler that produces verdicts and commits the still.
// Public methods are safe to call from any goroutine. Observers are
// notified on the sampling loop and while the session lock is held, so
// they must not call back into the session.
type Session struct {
	id     string
	dev    device.Device
	opts   Options
	events observer.Subject
	log    *logrus.Entry

	mu          sync.Mutex
	open        bool
	mode        models.CaptureMode
	strategy    *strategy.CaptureStrategy
	sampler     *sampler.Sampler
	stopRefresh func()
	lastVerdict models.Verdict
}

// New creates a closed session over dev
func New(dev device.Device, opts Options, events observer.Subject) *Session {
	defaults := DefaultOptions()
	if opts.AnalysisInterval <= 0 {
		opts.AnalysisInterval = defaults.AnalysisInterval
	}
	if opts.IdealWidth <= 0 || opts.IdealHeight <= 0 {
		opts.IdealWidth, opts.IdealHeight = defaults.IdealWidth, defaults.IdealHeight
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = defaults.JPEGQuality
	}
	if opts.Refresh == nil {
		opts.Refresh = defaults.Refresh
	}
	if opts.Thresholds == (validation.Thresholds{}) {
		opts.Thresholds = defaults.Thresholds
	}
	if events == nil {
		events = observer.NewEventPublisher()
	}

	id := uuid.NewString()
	return &Session{
		id:          id,
		dev:         dev,
		opts:        opts,
		events:      events,
		log:         logger.WithField("session_id", id),
		lastVerdict: models.InitialVerdict(),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Open acquires the device for mode and starts sampling. On failure the
// session is left exactly as it was and the typed error is returned.
func (s *Session) Open(ctx context.Context, mode models.CaptureMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return apperrors.NewValidationError("session is already open", nil)
	}

	strat, err := strategy.ForMode(mode, s.opts.Thresholds)
	if err != nil {
		return s.openFailed(mode, err)
	}

	stream, err := s.dev.Open(ctx, strat.Constraints(s.opts.IdealWidth, s.opts.IdealHeight))
	if err != nil {
		if _, ok := apperrors.AsAppError(err); !ok {
			err = apperrors.NewDeviceUnavailableError("failed to open capture device", err)
		}
		return s.openFailed(mode, err)
	}

	smp := sampler.New(stream, strat, sampler.Options{AnalysisInterval: s.opts.AnalysisInterval}, s.onEvaluation(mode))
	refresh, stopRefresh := s.opts.Refresh()
	// the loop outlives the request that opened the session
	if err := smp.Start(context.Background(), refresh); err != nil {
		stopRefresh()
		smp.Stop()
		return s.openFailed(mode, err)
	}

	s.open = true
	s.mode = mode
	s.strategy = strat
	s.sampler = smp
	s.stopRefresh = stopRefresh
	s.lastVerdict = models.InitialVerdict()

	w, h := stream.Dimensions()
	s.log.WithFields(logrus.Fields{
		"mode":   mode,
		"facing": strat.Facing.String(),
		"width":  w,
		"height": h,
	}).Debug("Device stream acquired")

	s.notify(observer.CaptureEvent{EventType: observer.SessionOpened, Mode: mode})
	return nil
}

func (s *Session) openFailed(mode models.CaptureMode, err error) error {
	s.notify(observer.CaptureEvent{
		EventType:    observer.SessionOpenFailed,
		Mode:         mode,
		ErrorType:    string(apperrors.GetType(err)),
		ErrorMessage: err.Error(),
	})
	return err
}

// onEvaluation runs on the sampling loop. It must not take s.mu: Close
// holds it while waiting for the loop to exit.
func (s *Session) onEvaluation(mode models.CaptureMode) sampler.PublishFunc {
	return func(e sampler.Evaluation) {
		verdict, metrics := e.Verdict, e.Metrics
		s.notify(observer.CaptureEvent{
			EventType:        observer.VerdictPublished,
			Timestamp:        e.At,
			Mode:             mode,
			Verdict:          &verdict,
			Metrics:          &metrics,
			Sequence:         e.Sequence,
			AnalysisDuration: e.Duration,
		})
	}
}

// Capture commits the most recently evaluated frame as a JPEG still and
// closes the session. Readiness is advisory: a capture while not ready
// succeeds and is marked premature.
func (s *Session) Capture() (*models.CapturedImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, apperrors.NewValidationError("session is not open", nil)
	}

	frame, verdict, err := s.currentFrameLocked()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: s.opts.JPEGQuality}); err != nil {
		return nil, apperrors.NewProcessingError("failed to encode still image", err)
	}

	b := frame.Bounds()
	captured := &models.CapturedImage{
		SessionID:   s.id,
		Mode:        s.mode,
		Image:       frame,
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       b.Dx(),
		Height:      b.Dy(),
		Verdict:     verdict,
		Premature:   !verdict.Ready(),
		CapturedAt:  time.Now(),
	}

	if captured.Premature {
		s.log.WithFields(logrus.Fields{
			"mode":  s.mode,
			"issue": verdict.Issue,
		}).Warn("Capturing while frame is not ready")
	}

	v := verdict
	s.notify(observer.CaptureEvent{
		EventType: observer.ImageCaptured,
		Mode:      s.mode,
		Verdict:   &v,
		Premature: captured.Premature,
	})

	s.closeLocked()
	return captured, nil
}

// currentFrameLocked returns the last evaluated buffer with its verdict.
// Before the first analysis it renders a fresh frame with the same
// transform the sampler uses.
func (s *Session) currentFrameLocked() (*image.RGBA, models.Verdict, error) {
	if eval, ok := s.sampler.LastEvaluated(); ok {
		return eval.Frame, eval.Verdict, nil
	}

	src, err := s.sampler.Stream().Frame()
	if err != nil {
		return nil, models.Verdict{}, apperrors.NewProcessingError("no frame available", err)
	}
	return analyzer.RenderFrame(src, s.strategy.Mirror), models.InitialVerdict(), nil
}

// Preview renders the capture guide over the current frame
func (s *Session) Preview() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, apperrors.NewValidationError("session is not open", nil)
	}
	frame, verdict, err := s.currentFrameLocked()
	if err != nil {
		return nil, err
	}
	return overlay.Render(frame, s.strategy.Region, verdict), nil
}

// Close stops sampling and releases the device. Safe to call repeatedly.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if !s.open {
		return
	}

	s.stopRefresh()
	if eval, ok := s.sampler.LastEvaluated(); ok {
		s.lastVerdict = eval.Verdict
	}
	if err := s.sampler.Stop(); err != nil {
		s.log.WithError(err).Warn("Failed to release capture device")
	}

	s.open = false
	s.sampler = nil
	s.stopRefresh = nil
	s.notify(observer.CaptureEvent{EventType: observer.SessionClosed, Mode: s.mode})
}

// Retake closes the session and opens it again in the same mode
func (s *Session) Retake(ctx context.Context) error {
	s.mu.Lock()
	mode := s.mode
	s.mu.Unlock()

	if mode == "" {
		return apperrors.NewValidationError("session was never opened", nil)
	}
	s.Close()
	return s.Open(ctx, mode)
}

// Verdict returns the latest verdict
func (s *Session) Verdict() models.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		if eval, ok := s.sampler.LastEvaluated(); ok {
			return eval.Verdict
		}
	}
	return s.lastVerdict
}

// Mode returns the mode of the current or last opening
func (s *Session) Mode() models.CaptureMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// IsOpen reports whether the session holds the device
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Info returns a snapshot of the session
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{ID: s.id, Mode: s.mode, Open: s.open, Verdict: s.lastVerdict}
	if !s.open {
		return info
	}
	info.Width, info.Height = s.sampler.Stream().Dimensions()
	info.Analyses = s.sampler.Analyses()
	if eval, ok := s.sampler.LastEvaluated(); ok {
		m := eval.Metrics
		info.Verdict = eval.Verdict
		info.Metrics = &m
	} else {
		info.Verdict = models.InitialVerdict()
	}
	return info
}

func (s *Session) notify(event observer.CaptureEvent) {
	event.SessionID = s.id
	s.events.NotifyObservers(context.Background(), event)
}
