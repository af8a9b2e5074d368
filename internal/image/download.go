package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/youruser/lanyard/internal/util"
)

// ReadSource returns the bytes behind src, which is either an http(s) URL
// or a local file path.
func ReadSource(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return util.GetBytes(ctx, src)
	}
	return os.ReadFile(src)
}

// DownloadImage loads and decodes a PNG, JPEG, GIF or WebP image from src.
func DownloadImage(ctx context.Context, src string) (image.Image, error) {
	body, err := ReadSource(ctx, src)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(body), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", src, err)
	}
	return img, nil
}

// MaxFrameSide bounds either side of an uploaded frame.
const MaxFrameSide = 4096

// ErrFrameTooLarge is returned by DecodeFrame for oversized images.
var ErrFrameTooLarge = errors.New("image too large")

// DecodeFrame decodes an uploaded frame after checking the dimensions its
// header declares, so a small file cannot claim a huge canvas.
func DecodeFrame(r io.Reader, maxSide int) (image.Image, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxSide || cfg.Height > maxSide {
		return nil, fmt.Errorf("%w: %dx%d exceeds %dx%d", ErrFrameTooLarge, cfg.Width, cfg.Height, maxSide, maxSide)
	}
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}
