// Package media derives schema previews from background images.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const previewQuality = 75

// ErrEmptyImage is returned when there is nothing to decode.
var ErrEmptyImage = errors.New("empty image")

// PreviewRenderer turns a schema background into a small grayscale WebP
// over which topo paths stay readable.
type PreviewRenderer struct {
	width int
}

// NewPreviewRenderer renders previews at most width pixels wide.
func NewPreviewRenderer(width int) *PreviewRenderer {
	if width <= 0 {
		width = 480
	}
	return &PreviewRenderer{width: width}
}

// Render decodes content (JPEG, PNG, GIF, BMP or TIFF) and returns the
// preview as WebP. Images narrower than the configured width keep their size.
func (p *PreviewRenderer) Render(content []byte) ([]byte, error) {
	if len(content) == 0 {
		return nil, ErrEmptyImage
	}
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode background: %w", err)
	}

	var out image.Image = imaging.Grayscale(img)
	if out.Bounds().Dx() > p.width {
		out = imaging.Resize(out, p.width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, out, &webp.Options{Quality: previewQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
