package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-capture-guide/internal/logger"
	"go-capture-guide/pkg/models"
)

// CaptureEvent represents a capture session event
type CaptureEvent struct {
	EventType        EventType            `json:"event_type"`
	Timestamp        time.Time            `json:"timestamp"`
	SessionID        string               `json:"session_id"`
	Mode             models.CaptureMode   `json:"mode,omitempty"`
	Verdict          *models.Verdict      `json:"verdict,omitempty"`
	Metrics          *models.FrameMetrics `json:"metrics,omitempty"`
	Sequence         uint64               `json:"sequence,omitempty"`
	AnalysisDuration time.Duration        `json:"analysis_duration,omitempty"`
	Premature        bool                 `json:"premature,omitempty"`
	ErrorType        string               `json:"error_type,omitempty"`
	ErrorMessage     string               `json:"error_message,omitempty"`
}

// EventType represents the type of capture event
type EventType string

const (
	// SessionOpened when the device stream is live and sampling started
	SessionOpened EventType = "session_opened"
	// SessionOpenFailed when the device could not be acquired
	SessionOpenFailed EventType = "session_open_failed"
	// VerdictPublished after every analyzed frame
	VerdictPublished EventType = "verdict"
	// ImageCaptured when a still was committed
	ImageCaptured EventType = "captured"
	// SessionClosed when the device was released
	SessionClosed EventType = "session_closed"
)

// Observer defines the interface for event observers.
// OnEvent runs on the publishing goroutine, which for verdicts is the
// sampling loop: it must return quickly and must not call back into the
// session that published the event.
type Observer interface {
	OnEvent(ctx context.Context, event CaptureEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event CaptureEvent)
}

// LoggingObserver logs capture events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(log *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: log,
	}
}

// OnEvent handles capture events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event CaptureEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"session_id": event.SessionID,
	}
	if event.Mode != "" {
		fields["mode"] = event.Mode
	}
	if event.Verdict != nil {
		fields["readiness"] = event.Verdict.Readiness.String()
		fields["issue"] = event.Verdict.Issue
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
		fields["error_type"] = event.ErrorType
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case SessionOpened:
		entry.Info("Capture session opened")
	case SessionOpenFailed:
		entry.Error("Capture session failed to open")
	case VerdictPublished:
		// one per analysis tick
		entry.WithField("sequence", event.Sequence).Debug("Frame verdict")
	case ImageCaptured:
		entry.WithField("premature", event.Premature).Info("Still image captured")
	case SessionClosed:
		entry.Info("Capture session closed")
	default:
		entry.Info("Capture event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher implements the Subject interface.
// Observers are notified synchronously and in subscription order, so
// events reach every observer in the order they were published.
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event CaptureEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, observer := range observers {
		notify(ctx, observer, event)
	}
}

func notify(ctx context.Context, obs Observer, event CaptureEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the sampling loop
			logger.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
