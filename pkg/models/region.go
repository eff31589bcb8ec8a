package models

import (
	"image"
	"math"
)

// RegionShape is the geometry of a target region
type RegionShape int

const (
	ShapeEllipse RegionShape = iota
	ShapeRoundedRect
)

// IDCardAspectRatio is the ID-1 card format (85.60 x 53.98 mm)
const IDCardAspectRatio = 1.585

// TargetRegion describes where the subject is expected, normalized to the
// frame. CenterX/Width are fractions of frame width, CenterY/Height of
// frame height. When AspectRatio is set the pixel height is derived from
// the pixel width instead of Height, clamped to MaxHeight.
type TargetRegion struct {
	Shape        RegionShape
	CenterX      float64
	CenterY      float64
	Width        float64
	Height       float64
	MaxHeight    float64
	AspectRatio  float64
	CornerRadius float64 // fraction of pixel width
}

// PortraitRegion is the face oval
func PortraitRegion() TargetRegion {
	return TargetRegion{
		Shape:   ShapeEllipse,
		CenterX: 0.5,
		CenterY: 0.5,
		Width:   0.5,
		Height:  0.7,
	}
}

// DocumentRegion is the ID card frame
func DocumentRegion() TargetRegion {
	return TargetRegion{
		Shape:        ShapeRoundedRect,
		CenterX:      0.5,
		CenterY:      0.5,
		Width:        0.85,
		MaxHeight:    0.9,
		AspectRatio:  IDCardAspectRatio,
		CornerRadius: 0.05,
	}
}

// PixelBounds resolves the region against a frame of the given size.
// The result is always inside the frame.
func (r TargetRegion) PixelBounds(width, height int) image.Rectangle {
	if width <= 0 || height <= 0 {
		return image.Rectangle{}
	}

	w := r.Width * float64(width)
	var h float64
	if r.AspectRatio > 0 {
		h = w / r.AspectRatio
		maxH := float64(height)
		if r.MaxHeight > 0 {
			maxH = r.MaxHeight * float64(height)
		}
		if h > maxH {
			h = maxH
			w = h * r.AspectRatio
		}
	} else {
		h = r.Height * float64(height)
	}

	cx := r.CenterX * float64(width)
	cy := r.CenterY * float64(height)
	rect := image.Rect(
		int(math.Round(cx-w/2)),
		int(math.Round(cy-h/2)),
		int(math.Round(cx+w/2)),
		int(math.Round(cy+h/2)),
	)
	return rect.Intersect(image.Rect(0, 0, width, height))
}

// Contains reports whether the pixel (x, y) lies inside the region shape,
// given the region's resolved pixel bounds. Pixel centers are tested.
func (r TargetRegion) Contains(x, y int, bounds image.Rectangle) bool {
	if !(image.Point{X: x, Y: y}).In(bounds) {
		return false
	}
	px := float64(x) + 0.5
	py := float64(y) + 0.5

	switch r.Shape {
	case ShapeEllipse:
		rx := float64(bounds.Dx()) / 2
		ry := float64(bounds.Dy()) / 2
		if rx == 0 || ry == 0 {
			return false
		}
		dx := (px - (float64(bounds.Min.X) + rx)) / rx
		dy := (py - (float64(bounds.Min.Y) + ry)) / ry
		return dx*dx+dy*dy <= 1
	case ShapeRoundedRect:
		radius := r.CornerRadius * float64(bounds.Dx())
		if half := float64(min(bounds.Dx(), bounds.Dy())) / 2; radius > half {
			radius = half
		}
		if radius <= 0 {
			return true
		}
		left := float64(bounds.Min.X) + radius
		right := float64(bounds.Max.X) - radius
		top := float64(bounds.Min.Y) + radius
		bottom := float64(bounds.Max.Y) - radius
		cx := math.Max(left, math.Min(px, right))
		cy := math.Max(top, math.Min(py, bottom))
		dx, dy := px-cx, py-cy
		return dx*dx+dy*dy <= radius*radius
	default:
		return true
	}
}
