package analyzer

import "go-capture-guide/pkg/models"

// MetricsCalculator turns a cropped pixel sample into frame metrics.
// Implementations must be pure and cheap enough to run every analysis tick.
type MetricsCalculator interface {
	Extract(sample PixelSample) models.FrameMetrics
}
