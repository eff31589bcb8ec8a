package main

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeChecker(t *testing.T, path string, a, b uint8) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			l := a
			if (x+y)%2 == 1 {
				l = b
			}
			img.SetRGBA(x, y, color.RGBA{l, l, l, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestRun_WritesReport(t *testing.T) {
	dir := t.TempDir()
	writeChecker(t, filepath.Join(dir, "a_sharp.png"), 110, 190)
	writeChecker(t, filepath.Join(dir, "b_dark.png"), 10, 30)
	reportPath := filepath.Join(t.TempDir(), "report.json")

	err := run(context.Background(), []string{
		"-mode", "document",
		"-store", "local",
		"-source", dir,
		"-report", reportPath,
		"-log-level", "error",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	var report struct {
		Mode    string         `json:"mode"`
		Frames  []struct{}     `json:"frames"`
		ByIssue map[string]int `json:"by_issue"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatal(err)
	}
	if report.Mode != "document" || len(report.Frames) != 2 {
		t.Errorf("Unexpected report %s", data)
	}
	if report.ByIssue["none"] != 1 || report.ByIssue["too_dark"] != 1 {
		t.Errorf("Expected one ready and one dark frame, got %v", report.ByIssue)
	}
}

func TestRun_InvalidArguments(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		name string
		args []string
	}{
		{"Unknown flag", []string{"-frames", "3"}},
		{"Unknown mode", []string{"-mode", "panorama", "-source", dir}},
		{"Unknown store", []string{"-store", "ftp", "-source", dir}},
		{"Missing thresholds file", []string{"-source", dir, "-thresholds", filepath.Join(dir, "missing.yaml")}},
		{"Missing frame directory", []string{"-source", filepath.Join(dir, "nope")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			args := append(tc.args, "-log-level", "error")
			if err := run(context.Background(), args); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
