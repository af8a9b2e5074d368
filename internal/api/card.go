package api

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"github.com/youruser/lanyard/internal/control"
	"github.com/youruser/lanyard/internal/identity"
	imagepkg "github.com/youruser/lanyard/internal/image"
	"github.com/youruser/lanyard/internal/session"
	"github.com/youruser/lanyard/internal/token"
)

const (
	// SessionCookie carries the card session id.
	SessionCookie = "lanyard_session"

	sessionKey     = "lanyard.session"
	maxUploadBytes = 16 << 20
)

// withSession attaches the caller's card session, starting one when the
// cookie is missing or expired.
func (s *Server) withSession(c *gin.Context) {
	id, _ := c.Cookie(SessionCookie)
	sess, created := s.sessions.GetOrCreate(id)
	if created {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sess.ID, 0, "/", "", false, true)
	}
	c.Set(sessionKey, sess)
	c.Next()
}

func sessionOf(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func cardStatus(c *gin.Context) {
	c.JSON(http.StatusOK, sessionOf(c).Coordinator.Status())
}

type draftRequest struct {
	Name string `json:"name"`
}

// cardDraft replaces the draft name. Over-long names are refused and the
// previous draft is kept.
func cardDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	co := sessionOf(c).Coordinator
	if !co.Edit(req.Name) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  fmt.Sprintf("name longer than %d characters", control.MaxCharacters),
			"status": co.Status(),
		})
		return
	}
	c.JSON(http.StatusOK, co.Status())
}

func (s *Server) captureContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.captureTimeout)
}

func (s *Server) cardApply(c *gin.Context) {
	ctx, cancel := s.captureContext(c)
	defer cancel()
	co := sessionOf(c).Coordinator
	applied := co.Apply(ctx)
	c.JSON(http.StatusOK, gin.H{"applied": applied, "status": co.Status()})
}

type keyRequest struct {
	Key string `json:"key" binding:"required"`
}

// cardKey forwards key presses in the name field. Only Enter does anything.
func (s *Server) cardKey(c *gin.Context) {
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	co := sessionOf(c).Coordinator
	applied := false
	if req.Key == "Enter" {
		ctx, cancel := s.captureContext(c)
		defer cancel()
		applied = co.KeyEnter(ctx)
	}
	c.JSON(http.StatusOK, gin.H{"applied": applied, "status": co.Status()})
}

func cardTexture(c *gin.Context) {
	a, ok := sessionOf(c).Texture()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", a.PNG)
}

func cardFrame(c *gin.Context) {
	frame, ok := sessionOf(c).Surface.Frame()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	writePNG(c, frame, "")
}

func (s *Server) backgroundImage() image.Image {
	bg, _ := s.background.Get()
	return bg
}

// cardExport downloads the in-process scene composited over the background.
func (s *Server) cardExport(c *gin.Context) {
	img, name, ok := sessionOf(c).Coordinator.Export(s.backgroundImage())
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	writePNG(c, img, name)
}

// cardExportUpload composites a client-rendered frame, sent as the "frame"
// form file or as a raw image body.
func (s *Server) cardExportUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	frame, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	img, name, ok := sessionOf(c).Coordinator.ExportFrom(frame, s.backgroundImage())
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	writePNG(c, img, name)
}

func readUpload(c *gin.Context) (image.Image, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("frame")
		if err != nil {
			return nil, err
		}
		return decodeFormFile(fh)
	}
	return imagepkg.DecodeFrame(c.Request.Body, imagepkg.MaxFrameSide)
}

func decodeFormFile(fh *multipart.FileHeader) (image.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return imagepkg.DecodeFrame(f, imagepkg.MaxFrameSide)
}

// cardBadge lays the captured texture next to a QR code of the share page
// for the applied name.
func (s *Server) cardBadge(c *gin.Context) {
	sess := sessionOf(c)
	a, ok := sess.Texture()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	variant, ok := identity.ParseVariant(c.DefaultQuery("variant", string(identity.Dark)))
	if !ok {
		variant = identity.Dark
	}
	id := identity.OrDefault(&identity.Identity{Username: sess.Coordinator.Status().Applied, Variant: variant})

	var qr image.Image
	if q, err := imagepkg.GenerateQRImage(s.shareURL(token.Encode(id)), 512); err == nil {
		qr = q
	} else {
		s.log.Warn("badge qr failed", "error", err)
	}
	sheet := imagepkg.ComposeBadge(a.Image, qr, identity.ThemeFor(variant).Background)
	writePNG(c, sheet, "")
}

func writePNG(c *gin.Context, img image.Image, attachment string) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode failed"})
		return
	}
	if attachment != "" {
		c.Header("Content-Disposition", `attachment; filename="`+attachment+`"`)
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
