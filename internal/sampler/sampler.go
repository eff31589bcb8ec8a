package sampler

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"go-capture-guide/internal/analyzer"
	"go-capture-guide/internal/device"
	apperrors "go-capture-guide/internal/errors"
	"go-capture-guide/internal/logger"
	"go-capture-guide/internal/strategy"
	"go-capture-guide/pkg/models"
)

// State of a sampler
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// DefaultAnalysisInterval is the minimum time between two analyses
const DefaultAnalysisInterval = 250 * time.Millisecond

// Options configures a sampler
type Options struct {
	AnalysisInterval time.Duration
}

// Evaluation is the result of one analyzed frame. Frame is the rendered
// buffer the verdict was computed from; it is never modified afterwards.
type Evaluation struct {
	Frame    *image.RGBA
	Verdict  models.Verdict
	Metrics  models.FrameMetrics
	At       time.Time
	Sequence uint64
	Duration time.Duration
}

// PublishFunc receives every evaluation in frame order
type PublishFunc func(Evaluation)

// Sampler pulls frames from a live stream on every refresh signal,
// analyzes at most one per analysis interval and publishes the verdicts.
// All analysis runs on the single loop goroutine started by Start.
type Sampler struct {
	stream   device.Stream
	strategy *strategy.CaptureStrategy
	calc     analyzer.MetricsCalculator
	limiter  *rate.Limiter
	publish  PublishFunc
	log      *logrus.Entry

	// tickMu serializes ticks so publication follows frame order
	tickMu sync.Mutex

	mu       sync.Mutex
	state    State
	stopped  bool
	last     *Evaluation
	sequence uint64
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates an idle sampler over stream. The sampler owns the stream
// from here on and closes it on Stop.
func New(stream device.Stream, s *strategy.CaptureStrategy, opts Options, publish PublishFunc) *Sampler {
	interval := opts.AnalysisInterval
	if interval <= 0 {
		interval = DefaultAnalysisInterval
	}
	if publish == nil {
		publish = func(Evaluation) {}
	}
	return &Sampler{
		stream:   stream,
		strategy: s,
		calc:     analyzer.NewMetricsCalculator(),
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		publish:  publish,
		log:      logger.WithField("mode", s.Mode),
	}
}

// Start moves the sampler to Running and begins consuming refresh.
// The stream must already report its dimensions.
func (s *Sampler) Start(ctx context.Context, refresh <-chan time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return apperrors.NewValidationError("sampler already stopped", nil)
	}
	if s.state == Running {
		return apperrors.NewValidationError("sampler already running", nil)
	}
	if w, h := s.stream.Dimensions(); w <= 0 || h <= 0 {
		return apperrors.NewUnsupportedError("stream has no dimensions", nil)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = Running

	go s.run(loopCtx, refresh, s.done)
	return nil
}

func (s *Sampler) run(ctx context.Context, refresh <-chan time.Time, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case now, ok := <-refresh:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				return
			}
			s.Tick(now)
		}
	}
}

// Tick is one paint opportunity. It analyzes the current frame when the
// analysis interval has elapsed since the last analysis and reports
// whether it did.
func (s *Sampler) Tick(now time.Time) bool {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if s.State() != Running {
		return false
	}
	if !s.limiter.AllowN(now, 1) {
		return false
	}

	started := time.Now()
	src, err := s.stream.Frame()
	if err != nil {
		s.log.WithError(err).Warn("Frame read failed, skipping analysis")
		return false
	}

	frame := analyzer.RenderFrame(src, s.strategy.Mirror)
	metrics := s.calc.Extract(analyzer.Crop(frame, s.strategy.Region))
	verdict := s.strategy.Classifier.Classify(metrics)

	s.mu.Lock()
	s.sequence++
	eval := Evaluation{
		Frame:    frame,
		Verdict:  verdict,
		Metrics:  metrics,
		At:       now,
		Sequence: s.sequence,
		Duration: time.Since(started),
	}
	s.last = &eval
	s.mu.Unlock()

	s.publish(eval)
	return true
}

// Stop ends sampling and closes the stream. When Stop returns no tick is
// in flight and none will run again. Calling Stop more than once is safe.
func (s *Sampler) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.state = Idle
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	// wait out a Tick called from outside the loop
	s.tickMu.Lock()
	s.tickMu.Unlock()

	return s.stream.Close()
}

// State returns the current state
func (s *Sampler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastEvaluated returns the most recent evaluation, if any
func (s *Sampler) LastEvaluated() (Evaluation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Evaluation{}, false
	}
	return *s.last, true
}

// Analyses returns how many frames have been analyzed
func (s *Sampler) Analyses() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sequence
}

// Stream returns the stream being sampled
func (s *Sampler) Stream() device.Stream {
	return s.stream
}
