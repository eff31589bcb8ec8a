package analyzer

import (
	"image"
	"image/color"
	"testing"

	"go-capture-guide/pkg/models"
)

// createTestImage creates a simple test image for testing purposes
func createTestImage(width, height int, fillColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

// createIndexedImage gives every pixel a color derived from its position
func createIndexedImage(rect image.Rectangle) *image.RGBA {
	img := image.NewRGBA(rect)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), uint8(x ^ y), 255})
		}
	}
	return img
}

func TestRenderFrame_NoMirror(t *testing.T) {
	src := createIndexedImage(image.Rect(0, 0, 40, 30))

	dst := RenderFrame(src, false)

	if dst.Bounds() != src.Bounds() {
		t.Fatalf("Expected bounds %v, got %v", src.Bounds(), dst.Bounds())
	}
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			if dst.RGBAAt(x, y) != src.RGBAAt(x, y) {
				t.Fatalf("Pixel (%d,%d) differs: %v vs %v", x, y, dst.RGBAAt(x, y), src.RGBAAt(x, y))
			}
		}
	}
}

func TestRenderFrame_Mirror(t *testing.T) {
	src := createIndexedImage(image.Rect(0, 0, 41, 17))

	dst := RenderFrame(src, true)

	w := src.Bounds().Dx()
	for y := 0; y < 17; y++ {
		for x := 0; x < w; x++ {
			want := src.RGBAAt(w-1-x, y)
			if got := dst.RGBAAt(x, y); got != want {
				t.Fatalf("Pixel (%d,%d): expected %v, got %v", x, y, want, got)
			}
		}
	}
}

func TestRenderFrame_OffsetSource(t *testing.T) {
	src := createIndexedImage(image.Rect(10, 5, 30, 15))

	for _, mirror := range []bool{false, true} {
		dst := RenderFrame(src, mirror)
		if dst.Bounds() != image.Rect(0, 0, 20, 10) {
			t.Fatalf("Expected origin-anchored bounds, got %v", dst.Bounds())
		}
		for y := 0; y < 10; y++ {
			for x := 0; x < 20; x++ {
				sx := 10 + x
				if mirror {
					sx = 29 - x
				}
				if got, want := dst.RGBAAt(x, y), src.RGBAAt(sx, 5+y); got != want {
					t.Fatalf("mirror=%v pixel (%d,%d): expected %v, got %v", mirror, x, y, want, got)
				}
			}
		}
	}
}

func TestRenderFrame_MirrorTwiceIsIdentity(t *testing.T) {
	src := createIndexedImage(image.Rect(0, 0, 32, 24))

	back := RenderFrame(RenderFrame(src, true), true)

	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			if back.RGBAAt(x, y) != src.RGBAAt(x, y) {
				t.Fatalf("Pixel (%d,%d) not restored", x, y)
			}
		}
	}
}

func TestCrop_PortraitEllipse(t *testing.T) {
	frame := createTestImage(200, 100, color.RGBA{90, 90, 90, 255})
	region := models.PortraitRegion()

	sample := Crop(frame, region)

	if sample.Bounds != image.Rect(50, 15, 150, 85) {
		t.Fatalf("Unexpected region bounds %v", sample.Bounds)
	}
	box := sample.Bounds.Dx() * sample.Bounds.Dy()
	// An inscribed ellipse covers about pi/4 of its bounding box
	ratio := float64(len(sample.Pixels)) / float64(box)
	if ratio < 0.75 || ratio > 0.82 {
		t.Errorf("Expected ellipse coverage near 0.785, got %f", ratio)
	}
}

func TestCrop_OnlyInsideRegion(t *testing.T) {
	// Bright outside, dark inside: a correct crop sees only dark pixels
	frame := createTestImage(160, 120, color.RGBA{250, 250, 250, 255})
	region := models.PortraitRegion()
	bounds := region.PixelBounds(160, 120)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if region.Contains(x, y, bounds) {
				frame.Set(x, y, color.RGBA{20, 20, 20, 255})
			}
		}
	}

	sample := Crop(frame, region)
	m := NewMetricsCalculator().Extract(sample)

	if m.MeanBrightness > 20.5 {
		t.Errorf("Expected only inside pixels, mean brightness %f", m.MeanBrightness)
	}
	if m.GlareRatio != 0 {
		t.Errorf("Expected no glare from outside pixels, got %f", m.GlareRatio)
	}
}

func TestCrop_EmptyFrame(t *testing.T) {
	sample := Crop(image.NewRGBA(image.Rectangle{}), models.DocumentRegion())
	if len(sample.Pixels) != 0 {
		t.Errorf("Expected empty sample, got %d pixels", len(sample.Pixels))
	}
}
