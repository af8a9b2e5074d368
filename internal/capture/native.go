package capture

import (
	"context"
	"image"
	"log/slog"

	imagepkg "github.com/youruser/lanyard/internal/image"
)

// NativeRasterizer draws the template in-process.
type NativeRasterizer struct {
	fonts *imagepkg.Fonts
	icon  image.Image
}

// NewNativeRasterizer decodes iconData once at the supersampled size. A nil
// or undecodable icon is logged and the card renders without it.
func NewNativeRasterizer(fonts *imagepkg.Fonts, iconData []byte, log *slog.Logger) *NativeRasterizer {
	r := &NativeRasterizer{fonts: fonts}
	if len(iconData) == 0 {
		return r
	}
	icon, err := imagepkg.DecodeIcon(iconData, imagepkg.CardFaceIconSize*Supersample)
	if err != nil {
		if log == nil {
			log = slog.Default()
		}
		log.Warn("card icon unavailable", "error", err)
		return r
	}
	r.icon = icon
	return r
}

func (r *NativeRasterizer) Rasterize(ctx context.Context, t Template) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imagepkg.RenderCardFace(r.fonts, r.icon, t.Name, Supersample)
}
