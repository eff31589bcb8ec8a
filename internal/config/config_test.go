package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ANALYSIS_INTERVAL", "DEVICE_KIND", "JPEG_QUALITY", "SESSION_IDLE_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Expected defaults to load, got %v", err)
	}
	if cfg.AnalysisInterval != 250*time.Millisecond {
		t.Errorf("Expected 250ms analysis interval, got %s", cfg.AnalysisInterval)
	}
	if cfg.SessionIdleTimeout != 2*time.Minute {
		t.Errorf("Expected 2m session idle timeout, got %s", cfg.SessionIdleTimeout)
	}
	if cfg.CaptureWidth != 1920 || cfg.CaptureHeight != 1080 {
		t.Errorf("Expected HD capture hint, got %dx%d", cfg.CaptureWidth, cfg.CaptureHeight)
	}
	if cfg.DeviceKind != "synthetic" {
		t.Errorf("Expected synthetic device by default, got %q", cfg.DeviceKind)
	}
	if cfg.ServerAddress() != "0.0.0.0:8080" {
		t.Errorf("Unexpected server address %q", cfg.ServerAddress())
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("ANALYSIS_INTERVAL", "500ms")
	t.Setenv("JPEG_QUALITY", "80")
	t.Setenv("PORT", " 9090 ")
	t.Setenv("SESSION_IDLE_TIMEOUT", "45s")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.AnalysisInterval != 500*time.Millisecond {
		t.Errorf("Expected 500ms, got %s", cfg.AnalysisInterval)
	}
	if cfg.JPEGQuality != 80 {
		t.Errorf("Expected quality 80, got %d", cfg.JPEGQuality)
	}
	if cfg.SessionIdleTimeout != 45*time.Second {
		t.Errorf("Expected 45s idle timeout, got %s", cfg.SessionIdleTimeout)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"Bad port", map[string]string{"PORT": "70000"}},
		{"Bad quality", map[string]string{"JPEG_QUALITY": "0"}},
		{"Unknown device", map[string]string{"DEVICE_KIND": "webcam"}},
		{"Replay without source", map[string]string{"DEVICE_KIND": "replay", "REPLAY_STORE": "local"}},
		{"Azure without credentials", map[string]string{"DEVICE_KIND": "replay", "REPLAY_STORE": "azure"}},
		{"Unknown store", map[string]string{"DEVICE_KIND": "replay", "REPLAY_STORE": "ftp", "REPLAY_SOURCE": "x"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, key := range []string{"PORT", "JPEG_QUALITY", "DEVICE_KIND", "REPLAY_STORE", "REPLAY_SOURCE",
				"AZURE_ACCOUNT_NAME", "AZURE_ACCOUNT_KEY", "AZURE_CONTAINER"} {
				t.Setenv(key, "")
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadFromEnv(); err == nil {
				t.Error("Expected configuration error")
			}
		})
	}
}
