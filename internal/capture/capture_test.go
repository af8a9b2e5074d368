package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/lanyard/internal/assets"
	imagepkg "github.com/youruser/lanyard/internal/image"
)

type fakeRasterizer struct {
	err   error
	names []string
}

func (f *fakeRasterizer) Rasterize(_ context.Context, t Template) (image.Image, error) {
	f.names = append(f.names, t.Name)
	if f.err != nil {
		return nil, f.err
	}
	return image.NewNRGBA(image.Rect(0, 0, 4, 4)), nil
}

func TestCaptureTextureGenerations(t *testing.T) {
	var got []Artifact
	s := NewService(&fakeRasterizer{}, func(a Artifact) { got = append(got, a) }, nil)

	a1, ok := s.CaptureTexture(context.Background(), Template{Name: "ada"})
	require.True(t, ok)
	a2, ok := s.CaptureTexture(context.Background(), Template{Name: "grace"})
	require.True(t, ok)

	assert.Equal(t, uint64(1), a1.Generation)
	assert.Equal(t, uint64(2), a2.Generation)
	assert.NotEmpty(t, a1.PNG)
	require.Len(t, got, 2)
	assert.Equal(t, a2.Generation, got[1].Generation)
	assert.Equal(t, uint64(2), s.Generation())
}

func TestCaptureUsesReservedGeneration(t *testing.T) {
	s := NewService(&fakeRasterizer{}, nil, nil)

	first := s.Reserve()
	second := s.Reserve()
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)

	// a capture finishing late keeps the ticket it reserved
	b, ok := s.CaptureTexture(context.Background(), Template{Name: "grace", Generation: second})
	require.True(t, ok)
	a, ok := s.CaptureTexture(context.Background(), Template{Name: "ada", Generation: first})
	require.True(t, ok)
	assert.Equal(t, uint64(2), b.Generation)
	assert.Equal(t, uint64(1), a.Generation)

	c, ok := s.CaptureTexture(context.Background(), Template{Name: "linus"})
	require.True(t, ok)
	assert.Equal(t, uint64(3), c.Generation)
}

func TestCaptureFailureSkipsCallback(t *testing.T) {
	called := false
	r := &fakeRasterizer{err: errors.New("no template")}
	s := NewService(r, func(Artifact) { called = true }, nil)

	_, ok := s.CaptureTexture(context.Background(), Template{Name: "ada"})
	assert.False(t, ok)
	assert.False(t, called)

	// tickets stay monotonic across failures
	r.err = nil
	a, ok := s.CaptureTexture(context.Background(), Template{Name: "ada"})
	require.True(t, ok)
	assert.Equal(t, uint64(2), a.Generation)
}

func TestCaptureWithoutRasterizer(t *testing.T) {
	s := NewService(nil, nil, nil)
	_, ok := s.CaptureTexture(context.Background(), Template{})
	assert.False(t, ok)
}

func TestNativeRasterizer(t *testing.T) {
	fonts, err := imagepkg.DefaultFonts()
	require.NoError(t, err)
	r := NewNativeRasterizer(fonts, assets.DefaultIcon(), nil)
	require.NotNil(t, r.icon)

	img, err := r.Rasterize(context.Background(), Template{Name: "ada"})
	require.NoError(t, err)
	size := imagepkg.CardFaceSize * Supersample
	assert.Equal(t, image.Rect(0, 0, size, size), img.Bounds())

	// corners are the black card background
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, color.NRGBAModel.Convert(img.At(1, 1)))
	// the icon sits in the middle of the card
	_, g, _, _ := img.At(size/2-100, size/2-60).RGBA()
	assert.NotZero(t, g)
}

func TestNativeRasterizerMissingIcon(t *testing.T) {
	fonts, err := imagepkg.DefaultFonts()
	require.NoError(t, err)

	r := NewNativeRasterizer(fonts, []byte("garbage"), nil)
	assert.Nil(t, r.icon)
	img, err := r.Rasterize(context.Background(), Template{})
	require.NoError(t, err)
	assert.Equal(t, imagepkg.CardFaceSize*Supersample, img.Bounds().Dx())
}

func TestNativeRasterizerCancelled(t *testing.T) {
	fonts, err := imagepkg.DefaultFonts()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewNativeRasterizer(fonts, nil, nil).Rasterize(ctx, Template{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBrowserTemplateHTML(t *testing.T) {
	r := NewBrowserRasterizer(BrowserConfig{}, "", assets.DefaultIcon())
	doc, err := r.renderHTML(Template{Name: `<b>ada</b>`})
	require.NoError(t, err)
	assert.Contains(t, doc, "&lt;b&gt;ada&lt;/b&gt;")
	assert.Contains(t, doc, "data:image/svg+xml;base64,")
	assert.Contains(t, doc, "width: 512px")

	doc, err = r.renderHTML(Template{})
	require.NoError(t, err)
	assert.Contains(t, doc, imagepkg.CardFacePlaceholder)

	remote := NewBrowserRasterizer(BrowserConfig{}, "https://cdn.example.com/icon.svg", nil)
	doc, err = remote.renderHTML(Template{Name: "ada"})
	require.NoError(t, err)
	assert.Contains(t, doc, `src="https://cdn.example.com/icon.svg"`)
	assert.True(t, strings.Contains(doc, `crossorigin="anonymous"`))
}

func TestBrowserRasterizer(t *testing.T) {
	if os.Getenv("LANYARD_TEST_BROWSER") == "" {
		t.Skip("set LANYARD_TEST_BROWSER=1 to run against headless Chrome")
	}
	r := NewBrowserRasterizer(BrowserConfig{}, "", assets.DefaultIcon())
	defer r.Close()

	img, err := r.Rasterize(context.Background(), Template{Name: "ada"})
	require.NoError(t, err)
	assert.Equal(t, imagepkg.CardFaceSize*Supersample, img.Bounds().Dx())
}
