package validation

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "go-capture-guide/internal/errors"
)

func TestParseThresholds_PartialOverride(t *testing.T) {
	data := []byte("portrait:\n  min_brightness: 55\ndocument:\n  max_glare_ratio: 0.05\n")

	th, err := ParseThresholds(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if th.Portrait.MinBrightness != 55 {
		t.Errorf("Expected overridden portrait brightness 55, got %v", th.Portrait.MinBrightness)
	}
	if th.Portrait.MinDispersion != 15 {
		t.Errorf("Expected default dispersion to survive, got %v", th.Portrait.MinDispersion)
	}
	if th.Document.MaxGlareRatio != 0.05 {
		t.Errorf("Expected glare 0.05, got %v", th.Document.MaxGlareRatio)
	}
	if th.Document.MinFocusScore != 3.0 {
		t.Errorf("Expected default focus 3.0, got %v", th.Document.MinFocusScore)
	}
}

func TestParseThresholds_Empty(t *testing.T) {
	th, err := ParseThresholds([]byte("  \n"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if th != DefaultThresholds() {
		t.Errorf("Expected defaults, got %+v", th)
	}
}

func TestParseThresholds_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"Unknown key", "portrait:\n  min_contrast: 4\n"},
		{"Glare out of range", "document:\n  max_glare_ratio: 1.5\n"},
		{"Negative focus", "document:\n  min_focus_score: -1\n"},
		{"Not yaml", "portrait: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseThresholds([]byte(tc.data))
			if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestLoadThresholds(t *testing.T) {
	th, err := LoadThresholds("")
	if err != nil || th != DefaultThresholds() {
		t.Fatalf("Expected defaults for empty path, got %+v (%v)", th, err)
	}

	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	if err := os.WriteFile(path, []byte("document:\n  min_focus_score: 4.5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	th, err = LoadThresholds(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if th.Document.MinFocusScore != 4.5 {
		t.Errorf("Expected 4.5, got %v", th.Document.MinFocusScore)
	}

	if _, err := LoadThresholds(filepath.Join(t.TempDir(), "missing.yaml")); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error for missing file, got %v", err)
	}
}
