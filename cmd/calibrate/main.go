package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"go-capture-guide/internal/calibration"
	"go-capture-guide/internal/config"
	"go-capture-guide/internal/factory"
	"go-capture-guide/internal/logger"
	"go-capture-guide/internal/strategy"
	"go-capture-guide/pkg/models"
	"go-capture-guide/pkg/validation"
)

// calibrate replays recorded frames through the capture guide and reports
// how each one is classified, for tuning the thresholds file.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		logger.WithError(err).Fatal("Calibration failed")
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("calibrate", flag.ContinueOnError)
	var (
		modeFlag   = fs.String("mode", "portrait", "capture mode: portrait or document")
		storeKind  = fs.String("store", "local", "frame store: local, http or azure")
		source     = fs.String("source", "", "frame directory, comma separated URLs or blob prefix")
		thresholds = fs.String("thresholds", "", "YAML thresholds file (defaults when empty)")
		overlayDir = fs.String("overlay-dir", "", "write one guide overlay PNG per frame here")
		reportPath = fs.String("report", "", "write the JSON report here")
		workers    = fs.Int("workers", 4, "concurrent frame fetches")
		logLevel   = fs.String("log-level", "info", "log level")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger.SetLevel(*logLevel)

	mode, err := models.ParseCaptureMode(*modeFlag)
	if err != nil {
		return fmt.Errorf("invalid mode: %w", err)
	}

	t, err := validation.LoadThresholds(*thresholds)
	if err != nil {
		return fmt.Errorf("failed to load thresholds: %w", err)
	}

	strat, err := strategy.ForMode(mode, t)
	if err != nil {
		return fmt.Errorf("failed to build strategy: %w", err)
	}

	cfg := &config.Config{
		ReplaySource:     *source,
		AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),
		AzureContainer:   os.Getenv("AZURE_CONTAINER"),
	}
	store, err := factory.NewStorageFactory(cfg).CreateStorage(factory.StorageType(*storeKind))
	if err != nil {
		return fmt.Errorf("failed to create frame store: %w", err)
	}

	report, err := calibration.Run(ctx, store, strat, calibration.Options{OverlayDir: *overlayDir, Workers: *workers})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"mode":        report.Mode,
		"frames":      len(report.Frames),
		"failed":      len(report.Failed),
		"ready_ratio": report.ReadyRatio(),
		"by_issue":    report.ByIssue,
	}).Info("Calibration finished")

	if *reportPath != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		if err := os.WriteFile(*reportPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
