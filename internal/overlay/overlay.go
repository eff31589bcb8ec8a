package overlay

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"go-capture-guide/internal/analyzer"
	"go-capture-guide/pkg/models"
)

var (
	// ReadyColor outlines the target region when capture is recommended
	ReadyColor = color.RGBA{0x2e, 0xcc, 0x71, 0xff}
	// WaitColor outlines the target region otherwise
	WaitColor = color.RGBA{0xf3, 0x9c, 0x12, 0xff}

	captionBackground = color.RGBA{0, 0, 0, 0xc0}
)

// dimFactor is applied to every channel outside the target region, in 1/256ths
const dimFactor = 100

// Render draws the capture guide over a copy of frame: everything outside
// the target region is dimmed, the region is outlined in the readiness
// color and the verdict message is captioned under it. frame itself is
// left untouched. Geometry depends only on the region and frame size.
func Render(frame image.Image, region models.TargetRegion, verdict models.Verdict) *image.RGBA {
	dst := analyzer.RenderFrame(frame, false)
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	if w == 0 || h == 0 {
		return dst
	}

	outline := WaitColor
	if verdict.Ready() {
		outline = ReadyColor
	}

	bounds := region.PixelBounds(w, h)
	thickness := max(2, w/320)
	inside := func(x, y int) bool {
		return image.Pt(x, y).In(bounds) && region.Contains(x, y, bounds)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := dst.PixOffset(x, y)
			if !inside(x, y) {
				dst.Pix[i] = uint8(int(dst.Pix[i]) * dimFactor >> 8)
				dst.Pix[i+1] = uint8(int(dst.Pix[i+1]) * dimFactor >> 8)
				dst.Pix[i+2] = uint8(int(dst.Pix[i+2]) * dimFactor >> 8)
				continue
			}
			if !inside(x-thickness, y) || !inside(x+thickness, y) ||
				!inside(x, y-thickness) || !inside(x, y+thickness) {
				dst.SetRGBA(x, y, outline)
			}
		}
	}

	drawCaption(dst, bounds, verdict.Message)
	return dst
}

// drawCaption centers msg on a dark band just below the region, or at the
// bottom edge when the region reaches it.
func drawCaption(dst *image.RGBA, region image.Rectangle, msg string) {
	if msg == "" {
		return
	}

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
	}

	fb := dst.Bounds()
	textW := d.MeasureString(msg).Ceil()
	lineH := face.Metrics().Height.Ceil()
	pad := 4

	top := min(region.Max.Y+pad, fb.Max.Y-lineH-2*pad)
	left := max(fb.Min.X, (fb.Dx()-textW)/2-pad)
	band := image.Rect(left, top, left+textW+2*pad, top+lineH+2*pad).Intersect(fb)
	draw.Draw(dst, band, image.NewUniform(captionBackground), image.Point{}, draw.Over)

	d.Dot = fixed.P(left+pad, top+pad+face.Metrics().Ascent.Ceil())
	d.DrawString(msg)
}
