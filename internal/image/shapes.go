package imagepkg

import (
	"image/color"
	"image/draw"

	"github.com/srwiley/rasterx"
)

// Rect is a rectangle in floating point pixel space.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

func (r Rect) W() float64 { return r.X1 - r.X0 }
func (r Rect) H() float64 { return r.Y1 - r.Y0 }

// Inset shrinks r by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{r.X0 + d, r.Y0 + d, r.X1 - d, r.Y1 - d}
}

// Box is a filled, optionally rounded rectangle.
type Box struct {
	Rect   Rect
	Radius float64
	Color  color.NRGBA
}

// FillBox rasterizes b onto dst with anti-aliasing, compositing over the
// existing pixels.
func FillBox(dst draw.Image, b Box) {
	bounds := dst.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	scanner := rasterx.NewScannerGV(w, h, dst, bounds)
	filler := rasterx.NewFiller(w, h, scanner)
	filler.SetColor(b.Color)
	r := b.Rect
	if b.Radius > 0 {
		rasterx.AddRoundRect(r.X0, r.Y0, r.X1, r.Y1, b.Radius, b.Radius, 0, rasterx.RoundGap, filler)
	} else {
		rasterx.AddRect(r.X0, r.Y0, r.X1, r.Y1, 0, filler)
	}
	filler.Draw()
}

// withAlpha returns c at the given opacity.
func withAlpha(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(float64(c.A)*opacity + 0.5)
	return c
}
