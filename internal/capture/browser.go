package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	imagepkg "github.com/youruser/lanyard/internal/image"
)

var cardTemplate = template.Must(template.New("card").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>
html, body { margin: 0; padding: 0; background: transparent; }
#card {
  width: {{.Size}}px; height: {{.Size}}px; box-sizing: border-box;
  display: flex; flex-direction: column; align-items: center; justify-content: space-between;
  padding: 32px; background-color: #000000; font-family: "Geist Mono", monospace;
}
#icon { flex: 1; display: flex; align-items: center; justify-content: center; }
#icon img { width: {{.IconSize}}px; height: {{.IconSize}}px; }
#name { width: 100%; text-align: center; }
#name span {
  color: #ffffff; font-size: 24px; font-weight: bold; letter-spacing: 0.1em;
  text-transform: uppercase; font-family: "Geist Mono", monospace;
}
</style></head><body>
<div id="card">
  <div></div>
  <div id="icon">{{if .IconSrc}}<img src="{{.IconSrc}}" alt="" crossorigin="anonymous">{{end}}</div>
  <div id="name"><span>{{.Name}}</span></div>
</div>
</body></html>`))

// BrowserConfig configures the headless Chrome rasterizer.
type BrowserConfig struct {
	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty launches a local headless Chrome.
	RemoteURL string
	// Timeout bounds one capture. Default: 15s.
	Timeout time.Duration
	Logger  *slog.Logger
}

// BrowserRasterizer renders the template as HTML in headless Chrome and
// screenshots it at Supersample device pixels per CSS pixel.
type BrowserRasterizer struct {
	cfg     BrowserConfig
	iconSrc template.URL

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// NewBrowserRasterizer prepares a rasterizer; Chrome starts on first use.
// iconRef may be an http(s) URL, which the page loads directly, or empty to
// inline iconData as a data URL.
func NewBrowserRasterizer(cfg BrowserConfig, iconRef string, iconData []byte) *BrowserRasterizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := &BrowserRasterizer{cfg: cfg}
	switch {
	case strings.HasPrefix(iconRef, "http://") || strings.HasPrefix(iconRef, "https://"):
		r.iconSrc = template.URL(iconRef)
	case len(iconData) > 0:
		r.iconSrc = template.URL(dataURL(iconData))
	}
	return r
}

func dataURL(data []byte) string {
	mime := http.DetectContentType(data)
	if bytes.Contains(data, []byte("<svg")) {
		mime = "image/svg+xml"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// renderHTML returns the template document for t.
func (r *BrowserRasterizer) renderHTML(t Template) (string, error) {
	var buf bytes.Buffer
	err := cardTemplate.Execute(&buf, struct {
		Size, IconSize int
		IconSrc        template.URL
		Name           string
	}{
		Size:     imagepkg.CardFaceSize,
		IconSize: imagepkg.CardFaceIconSize,
		IconSrc:  r.iconSrc,
		Name:     nameOrPlaceholder(t.Name),
	})
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

func nameOrPlaceholder(name string) string {
	if name == "" {
		return imagepkg.CardFacePlaceholder
	}
	return name
}

func (r *BrowserRasterizer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	wsURL := r.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		r.lnch = l
		r.cfg.Logger.Info("browser: launched local chrome", "url", wsURL)
	}
	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	r.browser = b
	return b, nil
}

func (r *BrowserRasterizer) Rasterize(ctx context.Context, t Template) (image.Image, error) {
	doc, err := r.renderHTML(t)
	if err != nil {
		return nil, err
	}
	b, err := r.connect()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	defer page.Close()

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             imagepkg.CardFaceSize,
		Height:            imagepkg.CardFaceSize,
		DeviceScaleFactor: Supersample,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: viewport: %w", err)
	}
	if err := page.SetDocumentContent(doc); err != nil {
		return nil, fmt.Errorf("browser: set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		r.cfg.Logger.Warn("browser: wait load", "error", err)
	}
	el, err := page.Element("#card")
	if err != nil {
		return nil, fmt.Errorf("browser: find template: %w", err)
	}
	shot, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("browser: decode screenshot: %w", err)
	}
	return img, nil
}

// Close shuts down the browser and any Chrome it launched.
func (r *BrowserRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.lnch != nil {
		r.lnch.Cleanup()
		r.lnch = nil
	}
	return err
}
