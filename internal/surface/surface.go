// Package surface defines the contract of the live render surface the card
// texture is shown on, and hosts one surface per session.
package surface

import (
	"image"
	"log/slog"
	"sync"
)

// Texture is a card texture tagged with its capture generation.
type Texture struct {
	Image      image.Image
	Generation uint64
}

// Surface is a live pixel-producing scene.
type Surface interface {
	// Frame returns the pixels of the current frame.
	Frame() (image.Image, bool)
	// Dispose releases the surface; it is not used afterwards.
	Dispose()
}

// Factory creates a surface showing tex. tex.Image is nil for the initial,
// untextured surface.
type Factory func(tex Texture) (Surface, error)

// Host owns the current surface and recreates it whenever a newer texture
// arrives.
type Host struct {
	create Factory
	log    *slog.Logger

	mu      sync.Mutex
	current Surface
	gen     uint64
}

// NewHost returns a host that has not created a surface yet.
func NewHost(create Factory, log *slog.Logger) *Host {
	if log == nil {
		log = slog.Default()
	}
	return &Host{create: create, log: log}
}

// Apply shows tex if it is newer than the displayed texture. Stale textures
// are dropped and Apply reports false.
func (h *Host) Apply(tex Texture) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if tex.Generation <= h.gen {
		h.log.Debug("stale texture dropped", "generation", tex.Generation, "current", h.gen)
		return false
	}
	next, err := h.create(tex)
	if err != nil {
		h.log.Warn("surface create failed", "generation", tex.Generation, "error", err)
		return false
	}
	if h.current != nil {
		h.current.Dispose()
	}
	h.current = next
	h.gen = tex.Generation
	return true
}

// Frame reads the pixels of the current surface, creating the untextured
// surface on first use.
func (h *Host) Frame() (image.Image, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil {
		s, err := h.create(Texture{})
		if err != nil {
			h.log.Warn("surface create failed", "error", err)
			return nil, false
		}
		h.current = s
	}
	return h.current.Frame()
}

// Generation returns the generation of the displayed texture, 0 if none.
func (h *Host) Generation() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gen
}

// Close disposes the current surface.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current != nil {
		h.current.Dispose()
		h.current = nil
	}
}
