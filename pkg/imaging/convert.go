// Package imaging normalizes downloaded assets to JPEG.
//
// Civitai serves a mix of JPEG, PNG and WebP; every asset is re-encoded as a
// quality-controlled JPEG under a single extension so filenames stay
// deterministic. Sources with an alpha channel are flattened onto a white
// background first, since JPEG has no transparency.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	_ "image/png" // register PNG decoder

	_ "golang.org/x/image/webp" // register WebP decoder
)

// DefaultQuality matches the original pipeline's JPEG quality setting
const DefaultQuality = 85

// ToJPEG decodes an image payload and re-encodes it as JPEG at the given
// quality (1-95). Transparent sources are flattened onto white.
func ToJPEG(data []byte, quality int) ([]byte, error) {
	if quality <= 0 {
		quality = DefaultQuality
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img = flatten(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg (source %s): %w", format, err)
	}

	return buf.Bytes(), nil
}

// flatten composites an image with transparency onto a white background.
// Already-opaque images pass through untouched.
func flatten(img image.Image) image.Image {
	type opaquer interface {
		Opaque() bool
	}
	if o, ok := img.(opaquer); ok && o.Opaque() {
		return img
	}

	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)
	return flat
}
