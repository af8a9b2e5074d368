package api

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/lanyard/internal/assets"
	"github.com/youruser/lanyard/internal/capture"
	imagepkg "github.com/youruser/lanyard/internal/image"
	"github.com/youruser/lanyard/internal/session"
	"github.com/youruser/lanyard/internal/surface"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fonts, err := imagepkg.DefaultFonts()
	require.NoError(t, err)

	store := session.NewStore(session.Options{
		Rasterizer: capture.NewNativeRasterizer(fonts, assets.DefaultIcon(), nil),
		Surfaces:   surface.NewSceneFactory(surface.Viewport{Width: 200, Height: 100}),
		Export:     imagepkg.DefaultExportConfig,
	})
	t.Cleanup(store.Close)

	return NewEngine(NewServer(Options{
		Renderer:   imagepkg.NewRenderer(fonts, imagepkg.DefaultEvent),
		Sessions:   store,
		Background: assets.NewBackground("", nil),
		PublicURL:  "https://lanyard.example.com/",
	}))
}

type client struct {
	t      *testing.T
	r      *gin.Engine
	cookie *http.Cookie
}

func (c *client) do(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == SessionCookie {
			c.cookie = ck
		}
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, "", nil)
}

func (c *client) json(method, path, body string) *httptest.ResponseRecorder {
	return c.do(method, path, "application/json", strings.NewReader(body))
}

func decodePNG(t *testing.T, w *httptest.ResponseRecorder) image.Image {
	t.Helper()
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	return img
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	c := &client{t: t, r: newTestEngine(t)}
	w := c.get("/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestOpenGraphImageLightADA(t *testing.T) {
	c := &client{t: t, r: newTestEngine(t)}

	w := c.get("/lanyard/opengraph-image?u=djBnZGw6bGlnaHQ6QURB")
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	assert.Equal(t, `"og-djBnZGw6bGlnaHQ6QURB"`, etag)
	assert.Contains(t, w.Header().Get("Cache-Control"), "immutable")

	img := decodePNG(t, w)
	assert.Equal(t, image.Rect(0, 0, 1200, 630), img.Bounds())
	assert.Equal(t, color.NRGBA{0xfa, 0xfa, 0xfa, 0xff}, color.NRGBAModel.Convert(img.At(2, 2)))

	req := httptest.NewRequest(http.MethodGet, "/lanyard/opengraph-image?u=djBnZGw6bGlnaHQ6QURB", nil)
	req.Header.Set("If-None-Match", etag)
	nm := httptest.NewRecorder()
	c.r.ServeHTTP(nm, req)
	assert.Equal(t, http.StatusNotModified, nm.Code)
	assert.Zero(t, nm.Body.Len())
}

func TestTwitterImageFallsBackToDefault(t *testing.T) {
	c := &client{t: t, r: newTestEngine(t)}

	for _, u := range []string{"", "%25%25%25", "aGVsbG8"} {
		w := c.get("/lanyard/twitter-image?u=" + u)
		require.Equal(t, http.StatusOK, w.Code, u)
		img := decodePNG(t, w)
		assert.Equal(t, image.Rect(0, 0, 1200, 600), img.Bounds())
		assert.Equal(t, color.NRGBA{0x0a, 0x0a, 0x0a, 0xff}, color.NRGBAModel.Convert(img.At(2, 2)))
	}
}

func TestPresetRoute(t *testing.T) {
	c := &client{t: t, r: newTestEngine(t)}
	assert.Equal(t, http.StatusOK, c.get("/api/preview/social").Code)
	assert.Equal(t, http.StatusNotFound, c.get("/api/preview/square").Code)
}

func TestTokenRoundTrip(t *testing.T) {
	c := &client{t: t, r: newTestEngine(t)}

	w := c.get("/api/token?username=ADA&variant=light")
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeJSON(t, w)
	assert.Equal(t, "djBnZGw6bGlnaHQ6QURB", out["token"])
	assert.Equal(t, "https://lanyard.example.com/lanyard?u=djBnZGw6bGlnaHQ6QURB", out["url"])

	w = c.get("/api/token/decode?u=djBnZGw6bGlnaHQ6QURB")
	assert.JSONEq(t, `{"valid":true,"username":"ADA","variant":"light"}`, w.Body.String())

	w = c.get("/api/token/decode?u=nope")
	assert.JSONEq(t, `{"valid":false}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, c.get("/api/token?username=ADA&variant=sepia").Code)
}

func TestQR(t *testing.T) {
	c := &client{t: t, r: newTestEngine(t)}
	w := c.get("/api/qr?u=djBnZGw6bGlnaHQ6QURB&size=256")
	require.Equal(t, http.StatusOK, w.Code)
	img := decodePNG(t, w)
	assert.GreaterOrEqual(t, img.Bounds().Dx(), 256)
}

func TestCardFlow(t *testing.T) {
	c := &client{t: t, r: newTestEngine(t)}

	w := c.get("/api/card")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, c.cookie)
	status := decodeJSON(t, w)
	assert.Equal(t, "idle", status["state"])

	w = c.json(http.MethodPut, "/api/card/draft", `{"name":"`+strings.Repeat("x", 21)+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = c.json(http.MethodPut, "/api/card/draft", `{"name":"Ada"}`)
	require.Equal(t, http.StatusOK, w.Code)
	status = decodeJSON(t, w)
	assert.Equal(t, "dirty", status["state"])
	assert.Equal(t, true, status["can_apply"])

	assert.Equal(t, http.StatusNoContent, c.get("/api/card/texture.png").Code)
	assert.Equal(t, http.StatusNoContent, c.get("/api/card/badge.png").Code)

	w = c.json(http.MethodPost, "/api/card/key", `{"key":"Enter"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeJSON(t, w)["applied"])

	w = c.json(http.MethodPost, "/api/card/apply", `{}`)
	assert.Equal(t, false, decodeJSON(t, w)["applied"])

	w = c.get("/api/card/texture.png")
	require.Equal(t, http.StatusOK, w.Code)
	tex := decodePNG(t, w)
	size := imagepkg.CardFaceSize * capture.Supersample
	assert.Equal(t, image.Rect(0, 0, size, size), tex.Bounds())

	w = c.get("/api/card/frame.png")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, image.Rect(0, 0, 200, 100), decodePNG(t, w).Bounds())

	w = c.get("/api/card/export.png")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="lanyard-Ada.png"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, image.Rect(0, 0, 240, 120), decodePNG(t, w).Bounds())

	w = c.get("/api/card/badge.png?variant=light")
	require.Equal(t, http.StatusOK, w.Code)
	decodePNG(t, w)
}

func TestCardSessionsAreIsolated(t *testing.T) {
	r := newTestEngine(t)
	a := &client{t: t, r: r}
	b := &client{t: t, r: r}

	a.json(http.MethodPut, "/api/card/draft", `{"name":"Ada"}`)
	w := b.get("/api/card")
	assert.Equal(t, "", decodeJSON(t, w)["draft"])
	assert.NotEqual(t, a.cookie.Value, b.cookie.Value)
}

func TestCardExportUpload(t *testing.T) {
	c := &client{t: t, r: newTestEngine(t)}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(50, 50, color.NRGBA{0, 0, 255, 255})))

	w := c.do(http.MethodPost, "/api/card/export", "image/png", &buf)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="lanyard-card.png"`, w.Header().Get("Content-Disposition"))
	img := decodePNG(t, w)
	assert.Equal(t, image.Rect(0, 0, 60, 60), img.Bounds())
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, color.NRGBAModel.Convert(img.At(30, 30)))

	w = c.do(http.MethodPost, "/api/card/export", "image/png", strings.NewReader("not an image"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCardExportRejectsOversizedFrame(t *testing.T) {
	c := &client{t: t, r: newTestEngine(t)}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(2, 2, color.NRGBA{0, 0, 255, 255})))
	data := buf.Bytes()
	// declare a 6000x6000 canvas in the IHDR chunk
	binary.BigEndian.PutUint32(data[16:20], 6000)
	binary.BigEndian.PutUint32(data[20:24], 6000)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	w := c.do(http.MethodPost, "/api/card/export", "image/png", bytes.NewReader(data))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too large")
}
