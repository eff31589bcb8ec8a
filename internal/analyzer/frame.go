package analyzer

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// RenderFrame draws src at its native resolution into a fresh RGBA buffer
// anchored at the origin. With mirror set the buffer is flipped
// horizontally, the way a front camera preview is shown to the user.
// The sampler and the still capture both render through here.
func RenderFrame(src image.Image, mirror bool) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if b.Empty() {
		return dst
	}

	if !mirror {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}

	// dst.x = Max.X - src.x, dst.y = src.y - Min.Y; nearest neighbour keeps
	// the flip pixel exact.
	s2d := f64.Aff3{
		-1, 0, float64(b.Max.X),
		0, 1, float64(-b.Min.Y),
	}
	draw.NearestNeighbor.Transform(dst, s2d, src, b, draw.Src, nil)
	return dst
}
