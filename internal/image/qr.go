package imagepkg

import (
	"fmt"
	"image"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	MinQRSize = 64
	MaxQRSize = 2048
)

// ClampQRSize keeps a requested QR edge inside the supported range.
func ClampQRSize(size int) int {
	return min(max(size, MinQRSize), MaxQRSize)
}

// GenerateQRPNG returns PNG bytes of a QR code linking to a shared card.
func GenerateQRPNG(shareURL string, size int) ([]byte, error) {
	b, err := qrcode.Encode(shareURL, qrcode.Medium, ClampQRSize(size))
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return b, nil
}

// GenerateQRImage returns the QR code as an image for further composition.
func GenerateQRImage(shareURL string, size int) (image.Image, error) {
	q, err := qrcode.New(shareURL, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return q.Image(ClampQRSize(size)), nil
}
