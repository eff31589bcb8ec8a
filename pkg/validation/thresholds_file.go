package validation

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "go-capture-guide/internal/errors"
)

// LoadThresholds reads a YAML calibration file. Keys that are absent keep
// their default values, so a file may tune a single limit. Every failure
// is a validation error.
//
//	portrait:
//	  min_brightness: 55
//	document:
//	  max_glare_ratio: 0.05
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return t, apperrors.NewValidationError("failed to read thresholds file", err)
	}
	return ParseThresholds(data)
}

// ParseThresholds decodes YAML over the defaults and validates the result
func ParseThresholds(data []byte) (Thresholds, error) {
	t := DefaultThresholds()
	if len(bytes.TrimSpace(data)) == 0 {
		return t, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return DefaultThresholds(), apperrors.NewValidationError("failed to parse thresholds", err)
	}
	if err := t.Validate(); err != nil {
		return DefaultThresholds(), apperrors.NewValidationError("thresholds out of range", err)
	}
	return t, nil
}
