package strategy

import (
	"go-capture-guide/internal/device"
	apperrors "go-capture-guide/internal/errors"
	"go-capture-guide/pkg/models"
	"go-capture-guide/pkg/validation"
)

// CaptureStrategy bundles everything that differs between capture modes.
// Sessions and samplers are written once against this type instead of
// carrying a code path per mode.
type CaptureStrategy struct {
	Mode       models.CaptureMode
	Region     models.TargetRegion
	Classifier validation.Classifier
	// Mirror flips frames horizontally before analysis and capture
	Mirror bool
	Facing device.Facing
}

// ForMode builds the strategy for a capture mode
func ForMode(mode models.CaptureMode, thresholds validation.Thresholds) (*CaptureStrategy, error) {
	classifier, err := validation.NewClassifier(mode, thresholds)
	if err != nil {
		return nil, apperrors.NewValidationError("unsupported capture mode", err)
	}

	switch mode {
	case models.ModePortrait:
		return &CaptureStrategy{
			Mode:       mode,
			Region:     models.PortraitRegion(),
			Classifier: classifier,
			Mirror:     true,
			Facing:     device.FacingUser,
		}, nil
	default:
		return &CaptureStrategy{
			Mode:       mode,
			Region:     models.DocumentRegion(),
			Classifier: classifier,
			Mirror:     false,
			Facing:     device.FacingEnvironment,
		}, nil
	}
}

// Constraints returns the device request for this mode with an HD hint
func (s *CaptureStrategy) Constraints(idealWidth, idealHeight int) device.Constraints {
	return device.Constraints{
		Facing:      s.Facing,
		IdealWidth:  idealWidth,
		IdealHeight: idealHeight,
	}
}
