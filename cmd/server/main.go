// Package main starts the lanyard HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/youruser/lanyard/internal/api"
	"github.com/youruser/lanyard/internal/assets"
	"github.com/youruser/lanyard/internal/capture"
	"github.com/youruser/lanyard/internal/config"
	imagepkg "github.com/youruser/lanyard/internal/image"
	"github.com/youruser/lanyard/internal/logger"
	"github.com/youruser/lanyard/internal/session"
	"github.com/youruser/lanyard/internal/surface"
)

func main() {
	configPath := flag.String("config", "lanyard.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	// PORT is honored for platforms that only set that
	if port := os.Getenv("PORT"); port != "" && os.Getenv(config.EnvPrefix+"SERVER_ADDR") == "" {
		cfg.Server.Addr = ":" + port
	}

	lg, closer := logger.New(cfg.Log.File, logger.ParseLevel(cfg.Log.Level), cfg.Log.MaxSizeMB)
	defer closer.Close()
	slog.SetDefault(lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		logger.Fail(lg, "server stopped", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, lg *slog.Logger) error {
	fonts, err := imagepkg.LoadFonts(cfg.Fonts.Regular, cfg.Fonts.Bold)
	if err != nil {
		return fmt.Errorf("load fonts: %w", err)
	}

	raster, err := newRasterizer(ctx, cfg, fonts, lg)
	if err != nil {
		return err
	}
	if c, ok := raster.(io.Closer); ok {
		defer c.Close()
	}

	bg := assets.NewBackground(cfg.Assets.Background, lg)
	bg.Init(ctx)

	store := session.NewStore(session.Options{
		TTL:         cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxSessions,
		Rasterizer:  raster,
		Surfaces:    surface.NewSceneFactory(cfg.Viewport.Viewport()),
		Export:      cfg.Export.Export(),
		Logger:      lg,
	})
	defer store.Close()

	gin.SetMode(gin.ReleaseMode)
	engine := api.NewEngine(api.NewServer(api.Options{
		Renderer:       imagepkg.NewRenderer(fonts, cfg.Event.Event()),
		Sessions:       store,
		Background:     bg,
		PublicURL:      cfg.Server.PublicURL,
		CaptureTimeout: cfg.Capture.Timeout,
		Logger:         lg,
	}))
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("listening", "addr", cfg.Server.Addr, "capture", cfg.Capture.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		lg.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		t := time.NewTicker(cfg.Session.TTL / 2)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				if n := store.Sweep(); n > 0 {
					logger.Trace(lg, "sessions swept", "expired", n, "live", store.Len())
				}
			}
		}
	})
	return g.Wait()
}

func newRasterizer(ctx context.Context, cfg *config.Config, fonts *imagepkg.Fonts, lg *slog.Logger) (capture.Rasterizer, error) {
	icon, err := assets.LoadIcon(ctx, cfg.Assets.Icon)
	if err != nil {
		// the card still renders without its icon
		lg.Warn("icon unavailable", "src", cfg.Assets.Icon, "error", err)
		icon = nil
	}
	switch cfg.Capture.Backend {
	case config.BackendBrowser:
		return capture.NewBrowserRasterizer(capture.BrowserConfig{
			RemoteURL: cfg.Capture.BrowserURL,
			Timeout:   cfg.Capture.Timeout,
			Logger:    lg,
		}, cfg.Assets.Icon, icon), nil
	case config.BackendNative:
		return capture.NewNativeRasterizer(fonts, icon, lg), nil
	}
	return nil, fmt.Errorf("unknown capture backend %q", cfg.Capture.Backend)
}
