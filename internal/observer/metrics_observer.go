package observer

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsObserver exports capture events as Prometheus metrics
type MetricsObserver struct {
	// Verdicts by mode, readiness and issue
	Verdicts *prometheus.CounterVec

	// Per-tick analysis latency by mode
	AnalysisLatency *prometheus.HistogramVec

	// Committed stills by mode and whether they were taken while not ready
	Captures *prometheus.CounterVec

	// Failed device acquisitions by error type
	OpenFailures *prometheus.CounterVec

	// Sessions currently holding the device
	ActiveSessions prometheus.Gauge
}

// NewMetricsObserver registers the capture metrics with reg
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	factory := promauto.With(reg)
	return &MetricsObserver{
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capture_guide_verdicts_total",
			Help: "Total frame verdicts by mode, readiness and issue",
		}, []string{"mode", "readiness", "issue"}),

		AnalysisLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "capture_guide_analysis_duration_seconds",
			Help:    "Duration of one frame analysis from render to verdict",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"mode"}),

		Captures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capture_guide_captures_total",
			Help: "Total committed stills by mode and premature flag",
		}, []string{"mode", "premature"}),

		OpenFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capture_guide_open_failures_total",
			Help: "Total failed session opens by error type",
		}, []string{"type"}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "capture_guide_active_sessions",
			Help: "Capture sessions currently holding the device",
		}),
	}
}

// OnEvent handles capture events by updating metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event CaptureEvent) {
	mode := string(event.Mode)
	switch event.EventType {
	case SessionOpened:
		o.ActiveSessions.Inc()
	case SessionClosed:
		o.ActiveSessions.Dec()
	case SessionOpenFailed:
		o.OpenFailures.WithLabelValues(event.ErrorType).Inc()
	case VerdictPublished:
		if event.Verdict != nil {
			o.Verdicts.WithLabelValues(mode, event.Verdict.Readiness.String(), string(event.Verdict.Issue)).Inc()
		}
		if event.AnalysisDuration > 0 {
			o.AnalysisLatency.WithLabelValues(mode).Observe(event.AnalysisDuration.Seconds())
		}
	case ImageCaptured:
		o.Captures.WithLabelValues(mode, strconv.FormatBool(event.Premature)).Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}
