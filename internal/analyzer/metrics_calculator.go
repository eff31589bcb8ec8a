package analyzer

import (
	"math"
	"sync"

	"go-capture-guide/pkg/models"

	"gonum.org/v1/gonum/stat"
)

const (
	// Luma weights (ITU-R BT.601)
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114

	// GlareLuma is the near-saturation level above which a pixel counts as glare
	GlareLuma = 245.0
)

// metricsCalculator implements MetricsCalculator. It keeps no per-frame
// state; the pool only recycles luma scratch buffers.
type metricsCalculator struct {
	slicePool sync.Pool
}

// NewMetricsCalculator creates a new metrics calculator using Gonum
func NewMetricsCalculator() MetricsCalculator {
	return &metricsCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				s := make([]float64, 0, 64*1024)
				return &s
			},
		},
	}
}

// Luma returns the perceptual brightness of an 8-bit RGB triple
func Luma(r, g, b uint8) float64 {
	return lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)
}

// Extract computes brightness, dispersion, glare and focus over the sample.
func (mc *metricsCalculator) Extract(sample PixelSample) models.FrameMetrics {
	n := len(sample.Pixels)
	if n == 0 {
		return models.FrameMetrics{}
	}

	bufPtr := mc.slicePool.Get().(*[]float64)
	luma := (*bufPtr)[:0]
	defer func() {
		*bufPtr = luma[:0]
		mc.slicePool.Put(bufPtr)
	}()

	glare := 0
	for _, p := range sample.Pixels {
		l := Luma(p.R, p.G, p.B)
		if l > GlareLuma {
			glare++
		}
		luma = append(luma, l)
	}

	mean, std := stat.PopMeanStdDev(luma, nil)
	if math.IsNaN(std) {
		std = 0
	}

	return models.FrameMetrics{
		MeanBrightness:       mean,
		BrightnessDispersion: std,
		GlareRatio:           float64(glare) / float64(n),
		FocusScore:           focusScore(luma),
		SampleCount:          n,
	}
}

// focusScore is the mean absolute 1-D second difference along the sample
// stream. It is a cheap blur proxy, not a 2-D Laplacian: rows are
// concatenated, so row seams contribute a few spurious terms.
func focusScore(luma []float64) float64 {
	if len(luma) < 3 {
		return 0
	}
	var sum float64
	for i := 1; i < len(luma)-1; i++ {
		sum += math.Abs(luma[i-1] - 2*luma[i] + luma[i+1])
	}
	return sum / float64(len(luma)-2)
}
