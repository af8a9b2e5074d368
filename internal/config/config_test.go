package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imagepkg "github.com/youruser/lanyard/internal/image"
	"github.com/youruser/lanyard/internal/surface"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lanyard.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		noFile  bool
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:   "defaults without file",
			noFile: true,
			check: func(t *testing.T, cfg *Config) {
				def := DefaultConfig()
				assert.Equal(t, def, cfg)
				assert.Equal(t, "v0 IRL", cfg.Event.Title)
				assert.Equal(t, 0.6, cfg.Export.CropFraction)
				assert.Equal(t, imagepkg.DefaultExportConfig, cfg.Export.Export())
				assert.Equal(t, surface.DefaultViewport, cfg.Viewport.Viewport())
			},
		},
		{
			name: "file overrides",
			config: `
[server]
addr = ":9090"
public_url = "https://lanyard.example.com"

[event]
city = "MONTERREY"

[export]
crop_fraction = 0.5
output_scale = 3

[session]
ttl = "5m"
max_sessions = 50
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ":9090", cfg.Server.Addr)
				assert.Equal(t, "MONTERREY", cfg.Event.City)
				assert.Equal(t, "v0 IRL", cfg.Event.Title)
				assert.Equal(t, 0.5, cfg.Export.CropFraction)
				assert.Equal(t, 3.0, cfg.Export.OutputScale)
				assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
				assert.Equal(t, 50, cfg.Session.MaxSessions)
				assert.Equal(t, imagepkg.ExportConfig{CropFraction: 0.5, OutputScale: 3}, cfg.Export.Export())
			},
		},
		{
			name:   "env beats file",
			config: "[capture]\nbackend = \"native\"\n",
			env: map[string]string{
				"LANYARD_CAPTURE_BACKEND":     "browser",
				"LANYARD_CAPTURE_BROWSER_URL": "ws://chrome:9222",
				"LANYARD_LOG_LEVEL":           "debug",
				"LANYARD_VIEWPORT_WIDTH":      "800",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, BackendBrowser, cfg.Capture.Backend)
				assert.Equal(t, "ws://chrome:9222", cfg.Capture.BrowserURL)
				assert.Equal(t, "debug", cfg.Log.Level)
				assert.Equal(t, 800, cfg.Viewport.Width)
				assert.Equal(t, surface.Viewport{Width: 800, Height: surface.DefaultViewport.Height}, cfg.Viewport.Viewport())
			},
		},
		{
			name:    "malformed toml",
			config:  "[server\naddr=",
			wantErr: true,
		},
		{
			name:    "invalid backend",
			config:  "[capture]\nbackend = \"webgl\"\n",
			wantErr: true,
		},
		{
			name:    "crop out of range",
			config:  "[export]\ncrop_fraction = 1.5\n",
			wantErr: true,
		},
		{
			name:    "bad env value",
			noFile:  true,
			env:     map[string]string{"LANYARD_SESSION_TTL": "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "missing.toml")
			if !tt.noFile {
				path = writeConfig(t, tt.config)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"relative public url", func(c *Config) { c.Server.PublicURL = "lanyard.example.com" }},
		{"zero capture timeout", func(c *Config) { c.Capture.Timeout = 0 }},
		{"zero output scale", func(c *Config) { c.Export.OutputScale = 0 }},
		{"empty viewport", func(c *Config) { c.Viewport.Height = 0 }},
		{"negative ttl", func(c *Config) { c.Session.TTL = -time.Second }},
		{"no session room", func(c *Config) { c.Session.MaxSessions = 0 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"zero log size", func(c *Config) { c.Log.MaxSizeMB = 0 }},
	}
	require.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestShareURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.PublicURL = "https://lanyard.example.com/"
	assert.Equal(t, "https://lanyard.example.com/lanyard?u=abc", cfg.ShareURL("/lanyard?u=abc"))
}
