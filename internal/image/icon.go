package imagepkg

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// DecodeIcon rasterizes an SVG or decodes a raster icon, fitting it inside
// a size×size box with its aspect ratio preserved.
func DecodeIcon(data []byte, size int) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("icon size must be positive, got %d", size)
	}
	if isSVG(data) {
		return rasterizeSVG(data, size)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode icon: %w", err)
	}
	if b := img.Bounds(); b.Dx() >= b.Dy() {
		return imaging.Resize(img, size, 0, imaging.Lanczos), nil
	}
	return imaging.Resize(img, 0, size, imaging.Lanczos), nil
}

func isSVG(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}

func rasterizeSVG(data []byte, size int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		w, h = 1, 1
	}
	tw, th := size, size
	if w > h {
		th = int(float64(size) * h / w)
	} else if h > w {
		tw = int(float64(size) * w / h)
	}
	tw, th = max(tw, 1), max(th, 1)

	icon.SetTarget(0, 0, float64(tw), float64(th))
	img := image.NewNRGBA(image.Rect(0, 0, tw, th))
	scanner := rasterx.NewScannerGV(tw, th, img, img.Bounds())
	raster := rasterx.NewDasher(tw, th, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}
