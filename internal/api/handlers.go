package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/youruser/lanyard/internal/identity"
	imagepkg "github.com/youruser/lanyard/internal/image"
	"github.com/youruser/lanyard/internal/token"
)

const (
	defaultQRSize = 400
	previewCache  = "public, max-age=31536000, immutable, no-transform"
)

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// shareURL is the page a token links to.
func (s *Server) shareURL(tok string) string {
	return strings.TrimRight(s.publicURL, "/") + "/lanyard?u=" + url.QueryEscape(tok)
}

// previewHandler renders the social preview for the token in ?u=. Missing
// or malformed tokens render the default attendee.
func (s *Server) previewHandler(p imagepkg.Preset) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.renderPreview(c, p)
	}
}

func (s *Server) presetHandler(c *gin.Context) {
	p, ok := imagepkg.PresetByName(c.Param("preset"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown preset"})
		return
	}
	s.renderPreview(c, p)
}

func (s *Server) renderPreview(c *gin.Context, p imagepkg.Preset) {
	id := identity.OrDefault(token.DecodePtr(c.Query("u")))
	etag := fmt.Sprintf(`"%s-%s"`, p.Name, token.Encode(id))
	c.Header("ETag", etag)
	c.Header("Cache-Control", previewCache)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	b, err := s.renderer.RenderPNG(&id, p)
	if err != nil {
		s.log.Error("preview render failed", "preset", p.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

// tokenHandler encodes ?username= and ?variant= into a share token.
func (s *Server) tokenHandler(c *gin.Context) {
	variant := identity.Dark
	if v := c.Query("variant"); v != "" {
		var ok bool
		if variant, ok = identity.ParseVariant(v); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "variant must be dark or light"})
			return
		}
	}
	id := identity.OrDefault(&identity.Identity{Username: c.Query("username"), Variant: variant})
	tok := token.Encode(id)
	c.JSON(http.StatusOK, gin.H{"token": tok, "url": s.shareURL(tok)})
}

func decodeHandler(c *gin.Context) {
	id, ok := token.Decode(c.Query("u"))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "username": id.Username, "variant": id.Variant})
}

// qrHandler returns a PNG QR code of the share page for ?u=. Without a
// valid token it links to the default attendee.
func (s *Server) qrHandler(c *gin.Context) {
	tok := c.Query("u")
	if _, ok := token.Decode(tok); !ok {
		tok = token.Encode(identity.Default)
	}
	size := defaultQRSize
	if v, err := strconv.Atoi(c.Query("size")); err == nil {
		size = v
	}
	b, err := imagepkg.GenerateQRPNG(s.shareURL(tok), size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}
