package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	// Register decoders for image.Decode.
	_ "image/png"

	"github.com/nfnt/resize"
)

// ThumbnailWidth is the width of generated thumbnails in pixels.
const ThumbnailWidth = 320

// Thumbnail decodes a jpeg or png image and re-encodes it as a jpeg scaled
// to width, keeping the aspect ratio. Smaller images are not enlarged.
func Thumbnail(data []byte, width uint) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if uint(img.Bounds().Dx()) > width {
		img = resize.Resize(width, 0, img, resize.Lanczos3)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
