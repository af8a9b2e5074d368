// Package api exposes the previews, tokens and card sessions over HTTP.
package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/youruser/lanyard/internal/assets"
	imagepkg "github.com/youruser/lanyard/internal/image"
	"github.com/youruser/lanyard/internal/logger"
	"github.com/youruser/lanyard/internal/session"
)

// Options wires the server's collaborators.
type Options struct {
	Renderer       *imagepkg.Renderer
	Sessions       *session.Store
	Background     *assets.Background
	PublicURL      string
	CaptureTimeout time.Duration
	Logger         *slog.Logger
}

// Server holds the handlers' shared state.
type Server struct {
	renderer       *imagepkg.Renderer
	sessions       *session.Store
	background     *assets.Background
	publicURL      string
	captureTimeout time.Duration
	log            *slog.Logger
}

// NewServer returns a Server for opts.
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	timeout := opts.CaptureTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Server{
		renderer:       opts.Renderer,
		sessions:       opts.Sessions,
		background:     opts.Background,
		publicURL:      opts.PublicURL,
		captureTimeout: timeout,
		log:            log,
	}
}

// NewEngine returns a gin engine with request logging, panic recovery and
// every route registered.
func NewEngine(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(logger.Gin(s.log), gin.Recovery())
	s.RegisterRoutes(r)
	return r
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	lanyard := r.Group("/lanyard")
	{
		lanyard.GET("/opengraph-image", s.previewHandler(imagepkg.PresetOG))
		lanyard.GET("/twitter-image", s.previewHandler(imagepkg.PresetSocial))
	}

	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.GET("/token", s.tokenHandler)
		api.GET("/token/decode", decodeHandler)
		api.GET("/qr", s.qrHandler)
		api.GET("/preview/:preset", s.presetHandler)
	}

	card := api.Group("/card", s.withSession)
	{
		card.GET("", cardStatus)
		card.PUT("/draft", cardDraft)
		card.POST("/apply", s.cardApply)
		card.POST("/key", s.cardKey)
		card.GET("/texture.png", cardTexture)
		card.GET("/frame.png", cardFrame)
		card.GET("/export.png", s.cardExport)
		card.POST("/export", s.cardExportUpload)
		card.GET("/badge.png", s.cardBadge)
	}
}
