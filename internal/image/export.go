package imagepkg

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"regexp"

	"github.com/disintegration/imaging"
)

// ExportConfig controls how the live surface is cropped and upsampled.
type ExportConfig struct {
	// CropFraction is the centered share of the surface kept, 0 < f <= 1.
	CropFraction float64
	// OutputScale multiplies the cropped size of the exported image.
	OutputScale float64
}

// DefaultExportConfig keeps the middle 60% at twice the resolution.
var DefaultExportConfig = ExportConfig{CropFraction: 0.6, OutputScale: 2}

// Validate checks the ranges of both parameters.
func (c ExportConfig) Validate() error {
	if !(c.CropFraction > 0 && c.CropFraction <= 1) {
		return fmt.Errorf("crop_fraction must be in (0, 1], got %v", c.CropFraction)
	}
	if !(c.OutputScale > 0) || math.IsInf(c.OutputScale, 0) {
		return fmt.Errorf("output_scale must be positive, got %v", c.OutputScale)
	}
	return nil
}

// CropRect returns the centered crop of a w×h surface as
// (x, y, cropW, cropH).
func CropRect(w, h int, cfg ExportConfig) (x, y, cw, ch float64) {
	cw = float64(w) * cfg.CropFraction
	ch = float64(h) * cfg.CropFraction
	x = (float64(w) - cw) / 2
	y = (float64(h) - ch) / 2
	return x, y, cw, ch
}

// OutputSize returns the exported pixel size for a w×h surface.
func OutputSize(w, h int, cfg ExportConfig) (int, int) {
	_, _, cw, ch := CropRect(w, h, cfg)
	return int(math.Round(cw * cfg.OutputScale)), int(math.Round(ch * cfg.OutputScale))
}

// CoverRect places a bgW×bgH image over an outW×outH canvas so that it
// covers the canvas while preserving its aspect ratio, centered on the
// overflowing axis.
func CoverRect(bgW, bgH, outW, outH int) Rect {
	bgAspect := float64(bgW) / float64(bgH)
	outAspect := float64(outW) / float64(outH)
	if bgAspect > outAspect {
		// wider: match height, crop width
		dh := float64(outH)
		dw := dh * bgAspect
		x := (float64(outW) - dw) / 2
		return Rect{x, 0, x + dw, dh}
	}
	dw := float64(outW)
	dh := dw / bgAspect
	y := (float64(outH) - dh) / 2
	return Rect{0, y, dw, y + dh}
}

// Composite crops and upsamples src and draws it over bg. It reports false
// when there is nothing to export; bg may be nil.
func Composite(src, bg image.Image, cfg ExportConfig) (*image.NRGBA, bool) {
	if src == nil || cfg.Validate() != nil {
		return nil, false
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, false
	}
	outW, outH := OutputSize(b.Dx(), b.Dy(), cfg)
	if outW <= 0 || outH <= 0 {
		return nil, false
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, outW, outH))
	if bg != nil && !bg.Bounds().Empty() {
		bb := bg.Bounds()
		cr := CoverRect(bb.Dx(), bb.Dy(), outW, outH)
		scaled := imaging.Resize(bg, int(math.Round(cr.W())), int(math.Round(cr.H())), imaging.Lanczos)
		canvas = imaging.Paste(canvas, scaled, image.Pt(int(math.Round(cr.X0)), int(math.Round(cr.Y0))))
	}

	x, y, cw, ch := CropRect(b.Dx(), b.Dy(), cfg)
	crop := image.Rect(
		b.Min.X+int(math.Round(x)), b.Min.Y+int(math.Round(y)),
		b.Min.X+int(math.Round(x+cw)), b.Min.Y+int(math.Round(y+ch)),
	)
	layer := imaging.Resize(imaging.Crop(src, crop), outW, outH, imaging.Lanczos)
	return imaging.Overlay(canvas, layer, image.Pt(0, 0), 1.0), true
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var unsafeFilename = regexp.MustCompile(`[\x00-\x1f"\\/:*?<>|]`)

// ExportFilename names the download after the applied name.
func ExportFilename(applied string) string {
	name := unsafeFilename.ReplaceAllString(applied, "_")
	if name == "" {
		name = "card"
	}
	return "lanyard-" + name + ".png"
}
