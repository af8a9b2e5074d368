// Package config loads the lanyard service configuration.
//
// Values start from DefaultConfig, are overlaid by an optional TOML file and
// then by LANYARD_* environment variables, and are validated last.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	imagepkg "github.com/youruser/lanyard/internal/image"
	"github.com/youruser/lanyard/internal/session"
	"github.com/youruser/lanyard/internal/surface"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LANYARD_"

// Capture backends.
const (
	BackendNative  = "native"
	BackendBrowser = "browser"
)

// Config is the top-level configuration.
type Config struct {
	Server   ServerConfig   `toml:"server" envPrefix:"SERVER_"`
	Event    EventConfig    `toml:"event" envPrefix:"EVENT_"`
	Fonts    FontsConfig    `toml:"fonts" envPrefix:"FONTS_"`
	Assets   AssetsConfig   `toml:"assets" envPrefix:"ASSETS_"`
	Capture  CaptureConfig  `toml:"capture" envPrefix:"CAPTURE_"`
	Export   ExportConfig   `toml:"export" envPrefix:"EXPORT_"`
	Viewport ViewportConfig `toml:"viewport" envPrefix:"VIEWPORT_"`
	Session  SessionConfig  `toml:"session" envPrefix:"SESSION_"`
	Log      LogConfig      `toml:"log" envPrefix:"LOG_"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `toml:"addr" env:"ADDR"`
	// PublicURL is the origin share links and QR codes point at.
	PublicURL string `toml:"public_url" env:"PUBLIC_URL"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// EventConfig is the branding printed on previews and the card.
type EventConfig struct {
	Title   string `toml:"title" env:"TITLE"`
	Tagline string `toml:"tagline" env:"TAGLINE"`
	City    string `toml:"city" env:"CITY"`
	Date    string `toml:"date" env:"DATE"`
}

// Event converts to the renderer's event.
func (e EventConfig) Event() imagepkg.Event {
	return imagepkg.Event{Title: e.Title, Tagline: e.Tagline, City: e.City, Date: e.Date}
}

// FontsConfig points at custom TTF, OTF or WOFF2 files. Empty paths use the
// built-in Go Mono faces.
type FontsConfig struct {
	Regular string `toml:"regular" env:"REGULAR"`
	Bold    string `toml:"bold" env:"BOLD"`
}

// AssetsConfig locates the card icon and the export background. Both accept
// a local path or an http(s) URL.
type AssetsConfig struct {
	Icon       string `toml:"icon" env:"ICON"`
	Background string `toml:"background" env:"BACKGROUND"`
}

// CaptureConfig selects the template rasterizer.
type CaptureConfig struct {
	// Backend is "native" or "browser".
	Backend string `toml:"backend" env:"BACKEND"`
	// BrowserURL is a DevTools websocket of a running browser. Empty launches
	// a local one.
	BrowserURL string `toml:"browser_url" env:"BROWSER_URL"`
	// Timeout bounds one capture.
	Timeout time.Duration `toml:"timeout" env:"TIMEOUT"`
}

// ExportConfig sizes the exported still.
type ExportConfig struct {
	// CropFraction is the centered square crop as a share of the shorter
	// frame side.
	CropFraction float64 `toml:"crop_fraction" env:"CROP_FRACTION"`
	// OutputScale multiplies the crop for the output size.
	OutputScale float64 `toml:"output_scale" env:"OUTPUT_SCALE"`
}

// Export converts to the compositor's settings.
func (e ExportConfig) Export() imagepkg.ExportConfig {
	return imagepkg.ExportConfig{CropFraction: e.CropFraction, OutputScale: e.OutputScale}
}

// ViewportConfig is the render surface size in pixels.
type ViewportConfig struct {
	Width  int `toml:"width" env:"WIDTH"`
	Height int `toml:"height" env:"HEIGHT"`
}

// Viewport converts to the scene viewport.
func (v ViewportConfig) Viewport() surface.Viewport {
	return surface.Viewport{Width: v.Width, Height: v.Height}
}

// SessionConfig bounds the in-memory card sessions.
type SessionConfig struct {
	TTL time.Duration `toml:"ttl" env:"TTL"`
	// MaxSessions caps live sessions; the least recently used one is
	// evicted to make room.
	MaxSessions int `toml:"max_sessions" env:"MAX_SESSIONS"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level" env:"LEVEL"`
	// File is the log file path. Empty logs to stderr.
	File string `toml:"file" env:"FILE"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb" env:"MAX_SIZE_MB"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	ev := imagepkg.DefaultEvent
	ex := imagepkg.DefaultExportConfig
	vp := surface.DefaultViewport
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			PublicURL:       "http://localhost:8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Event:    EventConfig{Title: ev.Title, Tagline: ev.Tagline, City: ev.City, Date: ev.Date},
		Capture:  CaptureConfig{Backend: BackendNative, Timeout: 15 * time.Second},
		Export:   ExportConfig{CropFraction: ex.CropFraction, OutputScale: ex.OutputScale},
		Viewport: ViewportConfig{Width: vp.Width, Height: vp.Height},
		Session:  SessionConfig{TTL: session.DefaultTTL, MaxSessions: session.DefaultMaxSessions},
		Log:      LogConfig{Level: "info", MaxSizeMB: 10},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path or a missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	if !strings.HasPrefix(c.Server.PublicURL, "http://") && !strings.HasPrefix(c.Server.PublicURL, "https://") {
		return fmt.Errorf("invalid server.public_url %q: must be an http(s) URL", c.Server.PublicURL)
	}

	switch c.Capture.Backend {
	case BackendNative, BackendBrowser:
	default:
		return fmt.Errorf("invalid capture.backend %q: must be native or browser", c.Capture.Backend)
	}
	if c.Capture.Timeout <= 0 {
		return fmt.Errorf("capture.timeout must be > 0, got %s", c.Capture.Timeout)
	}

	if err := c.Export.Export().Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be > 0, got %s", c.Session.TTL)
	}
	if c.Session.MaxSessions <= 0 {
		return fmt.Errorf("session.max_sessions must be > 0, got %d", c.Session.MaxSessions)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}
	return nil
}

// ShareURL joins the public origin and a path.
func (c *Config) ShareURL(path string) string {
	return strings.TrimRight(c.Server.PublicURL, "/") + path
}
