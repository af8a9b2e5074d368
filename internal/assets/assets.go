// Package assets holds the session-scoped image assets: the card icon and
// the export background.
package assets

import (
	"context"
	_ "embed"
	"image"
	"log/slog"
	"sync"

	imagepkg "github.com/youruser/lanyard/internal/image"
)

//go:embed static/icon.svg
var defaultIcon []byte

// DefaultIcon returns the embedded card icon SVG.
func DefaultIcon() []byte {
	return defaultIcon
}

// LoadIcon reads the icon at src, falling back to the embedded icon when src
// is empty. Errors are returned so callers can log and continue without it.
func LoadIcon(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return defaultIcon, nil
	}
	return imagepkg.ReadSource(ctx, src)
}

// Background is the export background image. It is loaded once,
// asynchronously, and is read-only afterwards.
type Background struct {
	src  string
	log  *slog.Logger
	once sync.Once
	done chan struct{}

	mu  sync.RWMutex
	img image.Image
}

// NewBackground returns an unloaded background for src. An empty src never
// becomes available.
func NewBackground(src string, log *slog.Logger) *Background {
	if log == nil {
		log = slog.Default()
	}
	return &Background{src: src, log: log, done: make(chan struct{})}
}

// Init starts loading the background. Calls after the first are no-ops.
func (b *Background) Init(ctx context.Context) {
	b.once.Do(func() {
		go b.load(ctx)
	})
}

func (b *Background) load(ctx context.Context) {
	defer close(b.done)
	if b.src == "" {
		b.log.Info("export background not configured")
		return
	}
	img, err := imagepkg.DownloadImage(ctx, b.src)
	if err != nil {
		b.log.Warn("export background unavailable", "src", b.src, "error", err)
		return
	}
	b.mu.Lock()
	b.img = img
	b.mu.Unlock()
	b.log.Info("export background loaded", "src", b.src, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
}

// Get returns the background if it has finished loading.
func (b *Background) Get() (image.Image, bool) {
	if b == nil {
		return nil, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.img, b.img != nil
}

// Wait blocks until loading finished or ctx is done, then returns Get.
// Init must have been called.
func (b *Background) Wait(ctx context.Context) (image.Image, bool) {
	select {
	case <-b.done:
	case <-ctx.Done():
	}
	return b.Get()
}
