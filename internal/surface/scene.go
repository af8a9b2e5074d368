package surface

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	imagepkg "github.com/youruser/lanyard/internal/image"
)

// Viewport is the pixel size of a scene frame.
type Viewport struct {
	Width  int
	Height int
}

// DefaultViewport matches a desktop-sized canvas.
var DefaultViewport = Viewport{Width: 1280, Height: 720}

// Scene proportions, relative to the viewport height.
const (
	sceneCardTop    = 0.3
	sceneCardHeight = 0.5
	sceneCardAspect = 0.7
	sceneRadius     = 0.06
	sceneStrapWidth = 0.22
	sceneClipHeight = 0.05
)

var (
	strapColor = color.NRGBA{0x1f, 0x1f, 0x1f, 0xff}
	clipColor  = color.NRGBA{0x9a, 0x9a, 0x9a, 0xff}
	blankCard  = color.NRGBA{0x00, 0x00, 0x00, 0xff}
)

// CardScene is a flat, in-process stand-in for the 3D lanyard scene: a strap
// hanging from the top edge holding the textured card, on a transparent
// canvas.
type CardScene struct {
	frame *image.NRGBA
}

// NewSceneFactory returns a Factory producing CardScenes of size vp.
func NewSceneFactory(vp Viewport) Factory {
	return func(tex Texture) (Surface, error) {
		return NewCardScene(vp, tex.Image), nil
	}
}

// NewCardScene draws the scene once; the frame does not change afterwards.
func NewCardScene(vp Viewport, texture image.Image) *CardScene {
	if vp.Width <= 0 || vp.Height <= 0 {
		vp = DefaultViewport
	}
	w, h := float64(vp.Width), float64(vp.Height)
	frame := image.NewNRGBA(image.Rect(0, 0, vp.Width, vp.Height))

	ch := h * sceneCardHeight
	cw := ch * sceneCardAspect
	card := imagepkg.Rect{X0: (w - cw) / 2, Y0: h * sceneCardTop, X1: (w + cw) / 2, Y1: h*sceneCardTop + ch}
	sw := cw * sceneStrapWidth
	cx := w / 2

	imagepkg.FillBox(frame, imagepkg.Box{
		Rect:  imagepkg.Rect{X0: cx - sw/2, Y0: 0, X1: cx + sw/2, Y1: card.Y0},
		Color: strapColor,
	})
	imagepkg.FillBox(frame, imagepkg.Box{
		Rect:   imagepkg.Rect{X0: cx - sw/2, Y0: card.Y0 - h*sceneClipHeight, X1: cx + sw/2, Y1: card.Y0 + h*sceneClipHeight/2},
		Radius: sw / 6,
		Color:  clipColor,
	})

	radius := cw * sceneRadius
	if texture == nil {
		imagepkg.FillBox(frame, imagepkg.Box{Rect: card, Radius: radius, Color: blankCard})
		return &CardScene{frame: frame}
	}

	// map the texture onto the card, clipped to its rounded outline
	dst := image.Rect(int(card.X0), int(card.Y0), int(card.X1), int(card.Y1))
	face := imaging.Fill(texture, dst.Dx(), dst.Dy(), imaging.Center, imaging.Lanczos)
	mask := image.NewAlpha(frame.Bounds())
	imagepkg.FillBox(mask, imagepkg.Box{Rect: card, Radius: radius, Color: color.NRGBA{A: 0xff}})
	draw.DrawMask(frame, dst, face, image.Point{}, mask, dst.Min, draw.Over)

	return &CardScene{frame: frame}
}

func (s *CardScene) Frame() (image.Image, bool) {
	if s.frame == nil {
		return nil, false
	}
	return s.frame, true
}

func (s *CardScene) Dispose() {
	s.frame = nil
}
