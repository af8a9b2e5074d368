// Package control coordinates the name field, the Apply action and the
// texture capture of one card session.
package control

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/youruser/lanyard/internal/capture"
	imagepkg "github.com/youruser/lanyard/internal/image"
)

const (
	// MaxCharacters bounds the draft name.
	MaxCharacters = 20
	// NearLimit is the character count at which the counter turns amber.
	NearLimit = MaxCharacters - 5
)

// State is the coordinator state.
type State int

const (
	Idle State = iota
	Dirty
	Capturing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dirty:
		return "dirty"
	case Capturing:
		return "capturing"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Capturer captures the card template for a name. Reserve hands out the
// generation ticket a capture is published under.
type Capturer interface {
	Reserve() uint64
	CaptureTexture(ctx context.Context, t capture.Template) (capture.Artifact, bool)
}

// FrameSource exposes the pixels of the live render surface.
type FrameSource interface {
	Frame() (image.Image, bool)
}

// Status is the view model of the control surface.
type Status struct {
	Draft     string `json:"draft"`
	Applied   string `json:"applied"`
	Count     int    `json:"count"`
	Max       int    `json:"max"`
	NearLimit bool   `json:"near_limit"`
	AtLimit   bool   `json:"at_limit"`
	CanApply  bool   `json:"can_apply"`
	State     State  `json:"state"`
}

// Coordinator is the state machine over Idle, Dirty and Capturing.
//
// Overlapping Apply calls are not rejected: each reserves its capture ticket
// while committing and the surface keeps the newest, so the last commit wins.
type Coordinator struct {
	capturer Capturer
	surface  FrameSource
	export   imagepkg.ExportConfig
	log      *slog.Logger

	mu       sync.Mutex
	draft    string
	applied  string
	inflight int
}

// New returns an idle coordinator with both names set to initial.
func New(c Capturer, surface FrameSource, export imagepkg.ExportConfig, initial string, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	if utf8.RuneCountInString(initial) > MaxCharacters {
		initial = ""
	}
	return &Coordinator{capturer: c, surface: surface, export: export, log: log, draft: initial, applied: initial}
}

func (c *Coordinator) stateLocked() State {
	switch {
	case c.inflight > 0:
		return Capturing
	case c.draft != c.applied:
		return Dirty
	}
	return Idle
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Status returns the draft, counters and affordances.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := utf8.RuneCountInString(c.draft)
	return Status{
		Draft:     c.draft,
		Applied:   c.applied,
		Count:     n,
		Max:       MaxCharacters,
		NearLimit: n >= NearLimit,
		AtLimit:   n >= MaxCharacters,
		CanApply:  c.draft != c.applied,
		State:     c.stateLocked(),
	}
}

// Edit replaces the draft. Values longer than MaxCharacters are rejected
// and leave the draft unchanged.
func (c *Coordinator) Edit(value string) bool {
	if utf8.RuneCountInString(value) > MaxCharacters {
		return false
	}
	c.mu.Lock()
	c.draft = value
	c.mu.Unlock()
	return true
}

// Apply commits the draft and captures it. It is a no-op returning false
// when the draft equals the applied name.
func (c *Coordinator) Apply(ctx context.Context) bool {
	c.mu.Lock()
	if c.draft == c.applied {
		c.mu.Unlock()
		return false
	}
	name := c.draft
	c.applied = name
	gen := c.capturer.Reserve()
	c.inflight++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inflight--
		c.mu.Unlock()
	}()

	if _, ok := c.capturer.CaptureTexture(ctx, capture.Template{Name: name, Generation: gen}); !ok {
		c.log.Warn("apply: texture not captured", "name", name, "generation", gen)
	}
	return true
}

// KeyEnter is the Enter key in the name field. It applies whenever the draft
// differs from the applied name, including while a capture is in flight.
func (c *Coordinator) KeyEnter(ctx context.Context) bool {
	return c.Apply(ctx)
}

// Export composites the live surface over bg. It reports false, producing
// nothing, when the surface has no frame.
func (c *Coordinator) Export(bg image.Image) (img image.Image, filename string, ok bool) {
	return c.ExportFrom(nil, bg)
}

// ExportFrom is Export with an externally rendered frame. A nil frame reads
// the hosted surface.
func (c *Coordinator) ExportFrom(frame, bg image.Image) (image.Image, string, bool) {
	if frame == nil && c.surface != nil {
		frame, _ = c.surface.Frame()
	}
	if frame == nil {
		c.log.Debug("export skipped: no surface frame")
		return nil, "", false
	}
	out, ok := imagepkg.Composite(frame, bg, c.export)
	if !ok {
		return nil, "", false
	}
	c.mu.Lock()
	applied := c.applied
	c.mu.Unlock()
	return out, imagepkg.ExportFilename(applied), true
}
