package analyzer

import (
	"image"
	"image/color"

	"go-capture-guide/pkg/models"
)

// PixelSample is the set of frame pixels inside a target region, in
// row-major order, together with the region's pixel bounds.
type PixelSample struct {
	Bounds image.Rectangle
	Pixels []color.RGBA
}

// Crop collects the pixels of frame that fall inside region.
func Crop(frame *image.RGBA, region models.TargetRegion) PixelSample {
	fb := frame.Bounds()
	bounds := region.PixelBounds(fb.Dx(), fb.Dy()).Add(fb.Min)
	if bounds.Empty() {
		return PixelSample{Bounds: bounds}
	}

	pixels := make([]color.RGBA, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := frame.Pix[frame.PixOffset(bounds.Min.X, y):]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if !region.Contains(x, y, bounds) {
				continue
			}
			i := (x - bounds.Min.X) * 4
			pixels = append(pixels, color.RGBA{R: row[i], G: row[i+1], B: row[i+2], A: row[i+3]})
		}
	}
	return PixelSample{Bounds: bounds, Pixels: pixels}
}
