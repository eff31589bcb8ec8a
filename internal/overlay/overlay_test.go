package overlay

import (
	"image"
	"image/color"
	"testing"

	"go-capture-guide/pkg/models"
)

func grayFrame(w, h int, l uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = l, l, l, 255
	}
	return img
}

func TestRender(t *testing.T) {
	frame := grayFrame(320, 240, 200)
	region := models.PortraitRegion()

	testCases := []struct {
		name    string
		verdict models.Verdict
		outline color.RGBA
	}{
		{"Ready", models.Verdict{Readiness: models.Ready, Message: "Hold still"}, ReadyColor},
		{"Not ready", models.Verdict{Readiness: models.NotReady, Message: "Too dark"}, WaitColor},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := Render(frame, region, tc.verdict)

			if out.Bounds() != frame.Bounds() {
				t.Fatalf("Expected %v, got %v", frame.Bounds(), out.Bounds())
			}
			// corner is outside the ellipse
			if got := out.RGBAAt(0, 0); got.R >= 200 {
				t.Errorf("Expected dimmed corner, got %v", got)
			}
			// center stays untouched
			if got := out.RGBAAt(160, 120); got != frame.RGBAAt(160, 120) {
				t.Errorf("Expected center unchanged, got %v", got)
			}
			// left edge of the ellipse on the center row
			bounds := region.PixelBounds(320, 240)
			if got := out.RGBAAt(bounds.Min.X, 120); got != tc.outline {
				t.Errorf("Expected outline %v, got %v", tc.outline, got)
			}
		})
	}

	if frame.RGBAAt(0, 0).R != 200 {
		t.Error("Render must not modify the source frame")
	}
}

func TestRender_GeometryIgnoresVerdict(t *testing.T) {
	frame := grayFrame(200, 120, 90)
	region := models.DocumentRegion()
	a := Render(frame, region, models.Verdict{Readiness: models.Ready})
	b := Render(frame, region, models.Verdict{Readiness: models.NotReady})

	for y := 0; y < 120; y++ {
		for x := 0; x < 200; x++ {
			pa, pb := a.RGBAAt(x, y), b.RGBAAt(x, y)
			if (pa == ReadyColor) != (pb == WaitColor) {
				t.Fatalf("Outline differs at (%d,%d)", x, y)
			}
		}
	}
}

func TestRender_Empty(t *testing.T) {
	out := Render(image.NewRGBA(image.Rect(0, 0, 0, 0)), models.PortraitRegion(), models.InitialVerdict())
	if !out.Bounds().Empty() {
		t.Errorf("Expected empty output, got %v", out.Bounds())
	}
}
