// Package qr renders QR codes pointing at defect detail pages.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// PNGSize is the rendered edge length in pixels.
const PNGSize = 256

// Renderer produces QR code images for URLs. The HTTP layer depends on
// this interface so tests can swap the encoder out.
type Renderer interface {
	RenderPNG(url string) ([]byte, error)
}

// Encoder renders QR codes with skip2/go-qrcode.
type Encoder struct{}

// NewEncoder returns the default renderer.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// RenderPNG encodes the URL into a PNG image.
func (e *Encoder) RenderPNG(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, PNGSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
