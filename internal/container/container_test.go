package container

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go-capture-guide/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 20,
		LogLevel:           "error",
		AnalysisInterval:   250 * time.Millisecond,
		RefreshInterval:    16 * time.Millisecond,
		SessionIdleTimeout: time.Minute,
		CaptureWidth:       320,
		CaptureHeight:      240,
		JPEGQuality:        80,
		DeviceKind:         "synthetic",
	}
}

func TestNewContainer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, err := NewContainer(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Shutdown()

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected metrics endpoint, got %d", w.Code)
	}
	if c.Config().CaptureWidth != 320 {
		t.Error("Expected container to keep the config")
	}
}

func TestNewContainer_Errors(t *testing.T) {
	badThresholds := filepath.Join(t.TempDir(), "thresholds.yaml")
	if err := os.WriteFile(badThresholds, []byte("portrait:\n  unknown_key: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"Missing thresholds file", func(c *config.Config) { c.ThresholdsFile = "/does/not/exist.yaml" }},
		{"Invalid thresholds file", func(c *config.Config) { c.ThresholdsFile = badThresholds }},
		{"Unknown device", func(c *config.Config) { c.DeviceKind = "usb" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(cfg)
			if _, err := NewContainer(cfg); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
