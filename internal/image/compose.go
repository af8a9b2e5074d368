package imagepkg

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Badge sheet geometry.
const (
	badgeMargin = 48
	badgeCardH  = 900
	badgeQRSize = 360
)

// ComposeBadge lays out a printable sheet: the card on the left, the share
// QR code on the right, both vertically centered over the theme background.
// qr may be nil.
func ComposeBadge(card, qr image.Image, bg color.NRGBA) *image.NRGBA {
	cb := card.Bounds()
	cardW := max(1, cb.Dx()*badgeCardH/max(cb.Dy(), 1))

	w := badgeMargin + cardW + badgeMargin
	if qr != nil {
		w += badgeQRSize + badgeMargin
	}
	h := badgeMargin + badgeCardH + badgeMargin
	canvas := imaging.New(w, h, bg)

	c := imaging.Resize(card, cardW, badgeCardH, imaging.Lanczos)
	canvas = imaging.Overlay(canvas, c, image.Pt(badgeMargin, badgeMargin), 1.0)

	if qr != nil {
		q := imaging.Resize(qr, badgeQRSize, badgeQRSize, imaging.NearestNeighbor)
		x := badgeMargin + cardW + badgeMargin
		y := (h - badgeQRSize) / 2
		canvas = imaging.Paste(canvas, q, image.Pt(x, y))
	}
	return canvas
}
