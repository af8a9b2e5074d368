// Package capture rasterizes the offscreen card template into a texture for
// the render surface.
package capture

import (
	"context"
	"image"
	"log/slog"
	"sync/atomic"

	imagepkg "github.com/youruser/lanyard/internal/image"
)

// Supersample is the factor the template is rasterized at.
const Supersample = 2

// Template is the state of the offscreen card template. Generation is a
// ticket from Reserve; zero takes a fresh one at capture time.
type Template struct {
	Name       string
	Generation uint64
}

// Artifact is one captured texture.
type Artifact struct {
	Image      image.Image
	PNG        []byte
	Generation uint64
}

// Rasterizer turns the template into a bitmap of
// imagepkg.CardFaceSize*Supersample pixels square.
type Rasterizer interface {
	Rasterize(ctx context.Context, t Template) (image.Image, error)
}

// Service captures textures on demand. Every capture carries a generation
// ticket taken before rasterizing, so consumers can drop results that finish
// after a newer capture.
type Service struct {
	raster  Rasterizer
	onReady func(Artifact)
	log     *slog.Logger
	seq     atomic.Uint64
}

// NewService returns a capture service that hands finished textures to
// onReady. onReady may be nil.
func NewService(r Rasterizer, onReady func(Artifact), log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{raster: r, onReady: onReady, log: log}
}

// Reserve hands out the next generation ticket. Callers that commit state
// under their own lock reserve there, so ticket order matches commit order.
func (s *Service) Reserve() uint64 {
	return s.seq.Add(1)
}

// CaptureTexture rasterizes t. On failure it logs, skips the callback and
// reports false.
func (s *Service) CaptureTexture(ctx context.Context, t Template) (Artifact, bool) {
	gen := t.Generation
	if gen == 0 {
		gen = s.Reserve()
	}
	if s.raster == nil {
		s.log.Warn("capture skipped: no template rasterizer", "generation", gen)
		return Artifact{}, false
	}
	img, err := s.raster.Rasterize(ctx, t)
	if err != nil {
		s.log.Warn("capture failed", "generation", gen, "error", err)
		return Artifact{}, false
	}
	data, err := imagepkg.EncodePNG(img)
	if err != nil {
		s.log.Warn("capture encode failed", "generation", gen, "error", err)
		return Artifact{}, false
	}
	a := Artifact{Image: img, PNG: data, Generation: gen}
	s.log.Debug("texture captured", "generation", gen, "bytes", len(data))
	if s.onReady != nil {
		s.onReady(a)
	}
	return a, true
}

// Generation returns the last ticket handed out.
func (s *Service) Generation() uint64 {
	return s.seq.Load()
}
