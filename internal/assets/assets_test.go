package assets

import (
	"context"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackgroundLoadsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, imaging.New(16, 9, color.NRGBA{10, 20, 30, 255})))
	require.NoError(t, f.Close())

	bg := NewBackground(path, nil)
	_, ok := bg.Get()
	assert.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bg.Init(ctx)
	bg.Init(ctx)

	img, ok := bg.Wait(ctx)
	require.True(t, ok)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestBackgroundMissingDegrades(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bg := NewBackground(filepath.Join(t.TempDir(), "nope.webp"), nil)
	bg.Init(ctx)
	_, ok := bg.Wait(ctx)
	assert.False(t, ok)

	empty := NewBackground("", nil)
	empty.Init(ctx)
	_, ok = empty.Wait(ctx)
	assert.False(t, ok)

	var nilBG *Background
	_, ok = nilBG.Get()
	assert.False(t, ok)
}

func TestLoadIcon(t *testing.T) {
	b, err := LoadIcon(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, string(b), "<svg")

	_, err = LoadIcon(context.Background(), filepath.Join(t.TempDir(), "missing.svg"))
	assert.Error(t, err)
}
