package calibration

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"go-capture-guide/internal/analyzer"
	"go-capture-guide/internal/logger"
	"go-capture-guide/internal/overlay"
	"go-capture-guide/internal/storage"
	"go-capture-guide/internal/strategy"
	"go-capture-guide/pkg/models"
)

// FrameResult is the outcome for one recorded frame
type FrameResult struct {
	Key     string              `json:"key"`
	Metrics models.FrameMetrics `json:"metrics"`
	Verdict models.Verdict      `json:"verdict"`
}

// Report summarizes a calibration run
type Report struct {
	Mode    models.CaptureMode       `json:"mode"`
	Frames  []FrameResult            `json:"frames"`
	ByIssue map[models.IssueType]int `json:"by_issue"`
	Failed  []string                 `json:"failed,omitempty"`
}

// ReadyRatio returns the share of analyzed frames that were ready
func (r Report) ReadyRatio() float64 {
	if len(r.Frames) == 0 {
		return 0
	}
	return float64(r.ByIssue[models.IssueNone]) / float64(len(r.Frames))
}

// Options configures a calibration run
type Options struct {
	// OverlayDir receives one guide overlay PNG per frame when set
	OverlayDir string
	// Workers bounds concurrent frame fetches; zero means one per CPU
	Workers int
}

// Run replays every frame of store through the live analysis path of
// strat and classifies it. Frames are fetched concurrently and analyzed in
// store order; frames that cannot be fetched are reported and skipped.
func Run(ctx context.Context, store storage.FrameStore, strat *strategy.CaptureStrategy, opts Options) (*Report, error) {
	keys, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	if opts.OverlayDir != "" {
		if err := os.MkdirAll(opts.OverlayDir, 0o755); err != nil {
			return nil, fmt.Errorf("create overlay directory: %w", err)
		}
	}

	frames, fetchErrs := fetchAll(ctx, store, keys, opts.Workers)

	calc := analyzer.NewMetricsCalculator()
	report := &Report{Mode: strat.Mode, ByIssue: make(map[models.IssueType]int)}

	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		src, err := frames[i], fetchErrs[i]
		if err != nil {
			logger.WithError(err).WithField("key", key).Warn("Skipping unreadable frame")
			report.Failed = append(report.Failed, key)
			continue
		}

		frame := analyzer.RenderFrame(src, strat.Mirror)
		metrics := calc.Extract(analyzer.Crop(frame, strat.Region))
		verdict := strat.Classifier.Classify(metrics)

		report.Frames = append(report.Frames, FrameResult{Key: key, Metrics: metrics, Verdict: verdict})
		report.ByIssue[verdict.Issue]++

		logger.WithFields(logrus.Fields{
			"key":        key,
			"mode":       strat.Mode,
			"brightness": metrics.MeanBrightness,
			"dispersion": metrics.BrightnessDispersion,
			"glare":      metrics.GlareRatio,
			"focus":      metrics.FocusScore,
			"readiness":  verdict.Readiness.String(),
			"issue":      verdict.Issue,
		}).Info("Frame classified")

		if opts.OverlayDir != "" {
			if err := writeOverlay(opts.OverlayDir, i, key, overlay.Render(frame, strat.Region, verdict)); err != nil {
				return report, err
			}
		}
	}
	return report, nil
}

func fetchAll(ctx context.Context, store storage.FrameStore, keys []string, workers int) ([]image.Image, []error) {
	frames := make([]image.Image, len(keys))
	errs := make([]error, len(keys))

	pool := newWorkerPool(workers)
	pool.start()
	defer pool.close()

	for i, key := range keys {
		pool.submit(func() {
			frames[i], errs[i] = store.Fetch(ctx, key)
		})
	}
	pool.wait()
	return frames, errs
}

func writeOverlay(dir string, index int, key string, img image.Image) error {
	f, err := os.Create(filepath.Join(dir, overlayName(index, key)))
	if err != nil {
		return fmt.Errorf("create overlay: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode overlay: %w", err)
	}
	return nil
}

// overlayName derives a flat file name from a store key
func overlayName(index int, key string) string {
	base := filepath.Base(key)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%04d_%s.png", index, base)
}
