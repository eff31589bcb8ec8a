package service

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"go-capture-guide/internal/analyzer"
	"go-capture-guide/internal/device"
	apperrors "go-capture-guide/internal/errors"
	"go-capture-guide/internal/logger"
	"go-capture-guide/internal/observer"
	"go-capture-guide/internal/repository"
	"go-capture-guide/internal/session"
	"go-capture-guide/internal/strategy"
	"go-capture-guide/pkg/models"
	"go-capture-guide/pkg/validation"

	"github.com/sirupsen/logrus"
)

// CaptureService defines the capture session operations exposed to transports
type CaptureService interface {
	// Session lifecycle
	Open(ctx context.Context, mode models.CaptureMode) (*session.Session, error)
	Get(id string) (*session.Session, error)
	Capture(id string) (*models.CapturedImage, error)
	Retake(ctx context.Context, id string) (*session.Session, error)
	Close(id string) error
	CloseAll()

	// Subscribe streams the events of one session until cancel is called
	Subscribe(id string) (events <-chan observer.CaptureEvent, cancel func(), err error)
	// ReleaseIfUnwatched closes an open session that has no subscribers
	// left and reports whether it did. Transports call it when a client
	// goes away.
	ReleaseIfUnwatched(id string) bool

	// AnalyzeStill re-checks an already captured still without a session
	AnalyzeStill(img image.Image, mode models.CaptureMode) (*models.StillAnalysisResponse, error)
}

// subscriberBuffer is the per-subscriber event backlog
const subscriberBuffer = 32

// minReapInterval bounds how often the idle reaper wakes up
const minReapInterval = 10 * time.Millisecond

// lease tracks client activity on a registered session
type lease struct {
	lastSeen    time.Time
	subscribers int
}

// captureService implements CaptureService over one shared device
type captureService struct {
	dev      device.Device
	opts     session.Options
	events   *observer.EventPublisher
	sessions repository.SessionRepository
	calc     analyzer.MetricsCalculator
	now      func() time.Time

	leaseMu sync.Mutex
	leases  map[string]*lease

	stopReaper chan struct{}
	stopOnce   sync.Once
	reaperDone chan struct{}
}

// NewCaptureService creates a new capture service. dev should be wrapped
// with device.Exclusive so concurrent sessions cannot share it.
// With opts.IdleTimeout set, a background reaper closes and drops
// sessions that see no client activity for that long; CloseAll stops it.
func NewCaptureService(
	dev device.Device,
	opts session.Options,
	events *observer.EventPublisher,
	sessions repository.SessionRepository,
) CaptureService {
	if opts.Thresholds == (validation.Thresholds{}) {
		opts.Thresholds = validation.DefaultThresholds()
	}
	s := &captureService{
		dev:        dev,
		opts:       opts,
		events:     events,
		sessions:   sessions,
		calc:       analyzer.NewMetricsCalculator(),
		now:        time.Now,
		leases:     make(map[string]*lease),
		stopReaper: make(chan struct{}),
		reaperDone: make(chan struct{}),
	}
	if opts.IdleTimeout > 0 {
		go s.reapLoop(max(opts.IdleTimeout/4, minReapInterval))
	} else {
		close(s.reaperDone)
	}
	return s
}

// Open creates a session and opens it in mode. Failed sessions are not kept.
func (s *captureService) Open(ctx context.Context, mode models.CaptureMode) (*session.Session, error) {
	sess := session.New(s.dev, s.opts, s.events)
	if err := sess.Open(ctx, mode); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(sess); err != nil {
		sess.Close()
		return nil, apperrors.NewInternalError("failed to register session", err)
	}

	s.leaseMu.Lock()
	s.leases[sess.ID()] = &lease{lastSeen: s.now()}
	s.leaseMu.Unlock()
	return sess, nil
}

// Get returns a registered session and renews its lease
func (s *captureService) Get(id string) (*session.Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperrors.NewNotFoundError("capture session not found", err)
		}
		return nil, apperrors.NewInternalError("failed to look up session", err)
	}
	s.touch(id)
	return sess, nil
}

// Capture commits the still of a session. The session stays registered,
// closed, so it can be retaken.
func (s *captureService) Capture(id string) (*models.CapturedImage, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.Capture()
}

// Retake reopens a session in its previous mode
func (s *captureService) Retake(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.Retake(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

// Close releases a session's device and forgets the session
func (s *captureService) Close(id string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	sess.Close()
	s.forget(id)
	if err := s.sessions.Delete(id); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return apperrors.NewInternalError("failed to unregister session", err)
	}
	return nil
}

// CloseAll closes every registered session and stops the idle reaper
func (s *captureService) CloseAll() {
	s.stopOnce.Do(func() { close(s.stopReaper) })
	<-s.reaperDone

	for _, sess := range s.sessions.List() {
		sess.Close()
		s.forget(sess.ID())
		_ = s.sessions.Delete(sess.ID())
	}
}

// Subscribe attaches a buffered observer to one session. A session with
// subscribers is never reaped.
func (s *captureService) Subscribe(id string) (<-chan observer.CaptureEvent, func(), error) {
	if _, err := s.Get(id); err != nil {
		return nil, nil, err
	}

	s.leaseMu.Lock()
	if l, ok := s.leases[id]; ok {
		l.subscribers++
	}
	s.leaseMu.Unlock()

	obs := observer.NewChannelObserver(id, subscriberBuffer)
	s.events.Subscribe(obs)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.events.Unsubscribe(obs)
			obs.Close()

			s.leaseMu.Lock()
			if l, ok := s.leases[id]; ok {
				l.subscribers--
				l.lastSeen = s.now()
			}
			s.leaseMu.Unlock()
		})
	}
	return obs.Events(), cancel, nil
}

// ReleaseIfUnwatched closes id when it is open and nobody is subscribed.
// The session stays registered so it can be retaken until it is reaped.
func (s *captureService) ReleaseIfUnwatched(id string) bool {
	sess, err := s.sessions.Get(id)
	if err != nil || !sess.IsOpen() {
		return false
	}

	s.leaseMu.Lock()
	l, ok := s.leases[id]
	watched := ok && l.subscribers > 0
	s.leaseMu.Unlock()
	if watched {
		return false
	}

	logger.WithField("session_id", id).Info("Last subscriber left, closing session")
	sess.Close()
	return true
}

func (s *captureService) touch(id string) {
	s.leaseMu.Lock()
	if l, ok := s.leases[id]; ok {
		l.lastSeen = s.now()
	}
	s.leaseMu.Unlock()
}

func (s *captureService) forget(id string) {
	s.leaseMu.Lock()
	delete(s.leases, id)
	s.leaseMu.Unlock()
}

func (s *captureService) reapLoop(interval time.Duration) {
	defer close(s.reaperDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopReaper:
			return
		case <-ticker.C:
			s.reapIdle(s.now())
		}
	}
}

// reapIdle closes and drops every session without subscribers whose last
// client activity is at least IdleTimeout before now. It returns how many
// sessions it dropped.
func (s *captureService) reapIdle(now time.Time) int {
	var idle []string
	s.leaseMu.Lock()
	for id, l := range s.leases {
		if l.subscribers == 0 && now.Sub(l.lastSeen) >= s.opts.IdleTimeout {
			idle = append(idle, id)
			delete(s.leases, id)
		}
	}
	s.leaseMu.Unlock()

	for _, id := range idle {
		sess, err := s.sessions.Get(id)
		if err != nil {
			continue
		}
		wasOpen := sess.IsOpen()
		sess.Close()
		_ = s.sessions.Delete(id)

		logger.WithFields(logrus.Fields{
			"session_id": id,
			"mode":       sess.Mode(),
			"was_open":   wasOpen,
		}).Info("Idle session reaped")
	}
	return len(idle)
}

// AnalyzeStill runs the live guide's metrics and classifier over one image.
// Stills arrive in their final orientation and are not mirrored.
func (s *captureService) AnalyzeStill(img image.Image, mode models.CaptureMode) (*models.StillAnalysisResponse, error) {
	start := time.Now()

	strat, err := strategy.ForMode(mode, s.opts.Thresholds)
	if err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, apperrors.NewValidationError("image has no pixels", nil)
	}

	frame := analyzer.RenderFrame(img, false)
	metrics := s.calc.Extract(analyzer.Crop(frame, strat.Region))
	verdict := strat.Classifier.Classify(metrics)

	return &models.StillAnalysisResponse{
		Mode:              mode,
		Width:             frame.Bounds().Dx(),
		Height:            frame.Bounds().Dy(),
		Metrics:           metrics,
		Verdict:           verdict,
		ProcessingTimeSec: time.Since(start).Seconds(),
	}, nil
}
