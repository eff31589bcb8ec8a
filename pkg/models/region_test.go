package models

import (
	"image"
	"math"
	"testing"
)

func TestParseCaptureMode(t *testing.T) {
	testCases := []struct {
		input    string
		expected CaptureMode
		wantErr  bool
	}{
		{"portrait", ModePortrait, false},
		{" Document ", ModeDocument, false},
		{"selfie", "", true},
		{"", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			mode, err := ParseCaptureMode(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tc.input)
				}
				return
			}
			if err != nil || mode != tc.expected {
				t.Errorf("Expected %q, got %q (err %v)", tc.expected, mode, err)
			}
		})
	}
}

func TestDocumentRegion_AspectRatio(t *testing.T) {
	testCases := []struct {
		name          string
		width, height int
	}{
		{"Landscape HD", 1920, 1080},
		{"VGA", 640, 480},
		{"Portrait phone", 720, 1280},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := DocumentRegion().PixelBounds(tc.width, tc.height)
			if b.Empty() {
				t.Fatal("Expected non-empty bounds")
			}
			ratio := float64(b.Dx()) / float64(b.Dy())
			if math.Abs(ratio-IDCardAspectRatio) > 0.02 {
				t.Errorf("Expected aspect ~%.3f, got %.3f (%v)", IDCardAspectRatio, ratio, b)
			}
			if !b.In(image.Rect(0, 0, tc.width, tc.height)) {
				t.Errorf("Bounds %v escape the frame", b)
			}
		})
	}
}

func TestDocumentRegion_ClampsToFrameHeight(t *testing.T) {
	// A very wide, short frame forces the height clamp
	b := DocumentRegion().PixelBounds(2000, 400)
	if b.Dy() > 360 {
		t.Errorf("Expected height clamped to 90%% of frame, got %d", b.Dy())
	}
}

func TestPortraitRegion_Contains(t *testing.T) {
	region := PortraitRegion()
	bounds := region.PixelBounds(200, 200)

	testCases := []struct {
		name     string
		x, y     int
		expected bool
	}{
		{"Center", 100, 100, true},
		{"Top-left corner of box", bounds.Min.X, bounds.Min.Y, false},
		{"Bottom-right corner of box", bounds.Max.X - 1, bounds.Max.Y - 1, false},
		{"Left edge middle", bounds.Min.X, 100, true},
		{"Outside box", 5, 5, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := region.Contains(tc.x, tc.y, bounds); got != tc.expected {
				t.Errorf("Contains(%d,%d) = %v, expected %v", tc.x, tc.y, got, tc.expected)
			}
		})
	}
}

func TestDocumentRegion_RoundedCorners(t *testing.T) {
	region := DocumentRegion()
	bounds := region.PixelBounds(1000, 1000)

	if region.Contains(bounds.Min.X, bounds.Min.Y, bounds) {
		t.Error("Expected the extreme corner to be cut by the rounding")
	}
	if !region.Contains(bounds.Min.X, (bounds.Min.Y+bounds.Max.Y)/2, bounds) {
		t.Error("Expected the straight left edge to be inside")
	}
	if !region.Contains(bounds.Min.X+bounds.Dx()/2, bounds.Min.Y, bounds) {
		t.Error("Expected the straight top edge to be inside")
	}
}

func TestPixelBounds_EmptyFrame(t *testing.T) {
	if b := PortraitRegion().PixelBounds(0, 480); !b.Empty() {
		t.Errorf("Expected empty bounds, got %v", b)
	}
}

func TestInitialVerdict(t *testing.T) {
	v := InitialVerdict()
	if v.Ready() {
		t.Error("Initial verdict must not be ready")
	}
	if v.Issue != IssueInitializing {
		t.Errorf("Expected initializing issue, got %q", v.Issue)
	}
}
