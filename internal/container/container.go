package container

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"go-capture-guide/internal/config"
	"go-capture-guide/internal/device"
	"go-capture-guide/internal/factory"
	"go-capture-guide/internal/logger"
	"go-capture-guide/internal/observer"
	"go-capture-guide/internal/repository"
	"go-capture-guide/internal/service"
	"go-capture-guide/internal/session"
	"go-capture-guide/internal/transport"
	"go-capture-guide/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config         *config.Config
	registry       *prometheus.Registry
	events         *observer.EventPublisher
	device         device.Device
	captureService service.CaptureService
	handler        http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	logger.SetLevel(cfg.LogLevel)

	thresholds := validation.DefaultThresholds()
	if cfg.ThresholdsFile != "" {
		t, err := validation.LoadThresholds(cfg.ThresholdsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load thresholds: %w", err)
		}
		thresholds = t
	}

	// Observability
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(observer.NewMetricsObserver(registry))

	// Build dependency graph
	components := factory.NewComponentFactory(cfg)
	dev, err := components.DeviceFactory.CreateDevice(factory.DeviceType(cfg.DeviceKind))
	if err != nil {
		return nil, fmt.Errorf("failed to create capture device: %w", err)
	}

	opts := session.Options{
		AnalysisInterval: cfg.AnalysisInterval,
		IdealWidth:       cfg.CaptureWidth,
		IdealHeight:      cfg.CaptureHeight,
		JPEGQuality:      cfg.JPEGQuality,
		Thresholds:       thresholds,
		Refresh:          session.TickerRefresh(cfg.RefreshInterval),
		IdleTimeout:      cfg.SessionIdleTimeout,
	}
	captureService := service.NewCaptureService(dev, opts, events, repository.NewMemorySessionRepository())
	handler := transport.NewHandler(captureService, cfg, registry)

	return &Container{
		config:         cfg,
		registry:       registry,
		events:         events,
		device:         dev,
		captureService: captureService,
		handler:        handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// CaptureService returns the session service
func (c *Container) CaptureService() service.CaptureService {
	return c.captureService
}

// Shutdown closes every open capture session
func (c *Container) Shutdown() {
	c.captureService.CloseAll()
}
