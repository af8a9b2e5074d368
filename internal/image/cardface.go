package imagepkg

import (
	"image"
	"image/color"
	"image/draw"
)

// Card face template, in logical pixels.
const (
	CardFaceSize     = 512
	CardFaceIconSize = 128
	cardFacePad      = 32.0
	cardFaceNameSize = 24.0
	// CardFacePlaceholder is shown until a name is typed.
	CardFacePlaceholder = "YOUR NAME"
)

var (
	cardFaceBackground = color.NRGBA{0, 0, 0, 255}
	cardFaceForeground = color.NRGBA{255, 255, 255, 255}
)

// CardFaceText is the text printed on the card face for name.
func CardFaceText(name string) string {
	if name == "" {
		return CardFacePlaceholder
	}
	return Upper(name)
}

// RenderCardFace draws the card texture: a black square with the icon in
// the middle and the name along the bottom, at scale times the logical
// size. icon may be nil; it should already be rasterized at
// CardFaceIconSize*scale.
func RenderCardFace(fonts *Fonts, icon image.Image, name string, scale float64) (*image.NRGBA, error) {
	fs := newFaceSet(fonts)
	defer fs.Close()

	size := int(CardFaceSize * scale)
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(cardFaceBackground), image.Point{}, draw.Src)

	fontSize := cardFaceNameSize * scale
	face, err := fs.get(true, fontSize)
	if err != nil {
		return nil, err
	}
	text := CardFaceText(name)
	tracking := 0.1 * fontSize
	lineH := fontSize * lineNormal
	pad := cardFacePad * scale
	nameTop := float64(size) - pad - lineH
	x := (float64(size) - measure(face, text, tracking)) / 2
	drawText(img, face, x, baseline(face, nameTop, lineH), text, tracking, cardFaceForeground)

	if icon != nil {
		ib := icon.Bounds()
		cx, cy := size/2, int((pad+nameTop)/2)
		at := image.Pt(cx-ib.Dx()/2, cy-ib.Dy()/2)
		draw.Draw(img, ib.Sub(ib.Min).Add(at), icon, ib.Min, draw.Over)
	}
	return img, nil
}
