package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	LogLevel           string

	// Sampling
	AnalysisInterval time.Duration
	RefreshInterval  time.Duration

	// Sessions with no client activity for this long are closed and dropped
	SessionIdleTimeout time.Duration

	// Capture
	CaptureWidth   int
	CaptureHeight  int
	JPEGQuality    int
	ThresholdsFile string

	// Device
	DeviceKind          string
	ReplayStore         string
	ReplaySource        string
	ReplayFrameInterval time.Duration

	// Azure blob replay store
	AzureAccountName string
	AzureAccountKey  string
	AzureContainer   string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:                getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                getEnvOrDefault("PORT", "8080"),
		RequestTimeout:      parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBodySize:  parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		AnalysisInterval:    parseDurationOrDefault("ANALYSIS_INTERVAL", 250*time.Millisecond),
		RefreshInterval:     parseDurationOrDefault("REFRESH_INTERVAL", 16*time.Millisecond),
		SessionIdleTimeout:  parseDurationOrDefault("SESSION_IDLE_TIMEOUT", 2*time.Minute),
		CaptureWidth:        int(parseIntOrDefault("CAPTURE_WIDTH", 1920)),
		CaptureHeight:       int(parseIntOrDefault("CAPTURE_HEIGHT", 1080)),
		JPEGQuality:         int(parseIntOrDefault("JPEG_QUALITY", 92)),
		ThresholdsFile:      strings.TrimSpace(os.Getenv("THRESHOLDS_FILE")),
		DeviceKind:          strings.ToLower(getEnvOrDefault("DEVICE_KIND", "synthetic")),
		ReplayStore:         strings.ToLower(getEnvOrDefault("REPLAY_STORE", "local")),
		ReplaySource:        strings.TrimSpace(os.Getenv("REPLAY_SOURCE")),
		ReplayFrameInterval: parseDurationOrDefault("REPLAY_FRAME_INTERVAL", 100*time.Millisecond),
		AzureAccountName:    strings.TrimSpace(os.Getenv("AZURE_ACCOUNT_NAME")),
		AzureAccountKey:     strings.TrimSpace(os.Getenv("AZURE_ACCOUNT_KEY")),
		AzureContainer:      strings.TrimSpace(os.Getenv("AZURE_CONTAINER")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field requirements
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.AnalysisInterval <= 0 || c.RefreshInterval <= 0 || c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("durations must be > 0 (got request=%s, analysis=%s, refresh=%s, idle=%s)",
			c.RequestTimeout, c.AnalysisInterval, c.RefreshInterval, c.SessionIdleTimeout)
	}
	if c.CaptureWidth <= 0 || c.CaptureHeight <= 0 {
		return fmt.Errorf("capture resolution must be positive (got %dx%d)", c.CaptureWidth, c.CaptureHeight)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be within 1..100 (got %d)", c.JPEGQuality)
	}

	switch c.DeviceKind {
	case "synthetic":
	case "replay":
		if c.ReplaySource == "" && c.ReplayStore != "azure" {
			return fmt.Errorf("REPLAY_SOURCE is required for replay devices")
		}
		switch c.ReplayStore {
		case "local", "http":
		case "azure":
			if c.AzureAccountName == "" || c.AzureAccountKey == "" || c.AzureContainer == "" {
				return fmt.Errorf("azure replay store requires AZURE_ACCOUNT_NAME, AZURE_ACCOUNT_KEY and AZURE_CONTAINER")
			}
		default:
			return fmt.Errorf("unsupported REPLAY_STORE: %q", c.ReplayStore)
		}
		if c.ReplayFrameInterval <= 0 {
			return fmt.Errorf("REPLAY_FRAME_INTERVAL must be > 0")
		}
	default:
		return fmt.Errorf("unsupported DEVICE_KIND: %q", c.DeviceKind)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
