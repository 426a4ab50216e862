package filehandler

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultPreviewMaxDimension is the maximum dimension (width or height) for previews.
const DefaultPreviewMaxDimension = 512

// GeneratePreview creates a downscaled copy of an image for local display.
// Returns the preview bytes, MIME type, and any error.
//
// Strategy:
//   - Decodable formats (JPEG, PNG, GIF, WebP, BMP, TIFF): resize with
//     CatmullRom; JPEG sources stay JPEG, everything else becomes PNG
//   - Anything Go cannot decode (HEIC/HEIF): original bytes unchanged
func GeneratePreview(data []byte, mimeType string, maxDimension int) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}
	if maxDimension <= 0 {
		maxDimension = DefaultPreviewMaxDimension
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Warn().
			Err(err).
			Str("mime_type", mimeType).
			Msg("Cannot decode image, falling back to original bytes for preview")
		return data, mimeType, nil
	}

	bounds := img.Bounds()
	origWidth, origHeight := bounds.Dx(), bounds.Dy()
	newWidth, newHeight := calculateThumbnailDimensions(origWidth, origHeight, maxDimension)

	// Small JPEG/PNG sources are served as-is.
	if newWidth == origWidth && newHeight == origHeight && (format == "jpeg" || format == "png") {
		return data, "image/" + format, nil
	}

	var src image.Image = img
	if newWidth != origWidth || newHeight != origHeight {
		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		src = resized
	}

	var buf bytes.Buffer
	outType := "image/png"
	if format == "jpeg" {
		outType = "image/jpeg"
		err = jpeg.Encode(&buf, src, &jpeg.Options{Quality: 85})
	} else {
		err = png.Encode(&buf, src)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode preview: %w", err)
	}

	log.Debug().
		Str("format", format).
		Int("orig_width", origWidth).
		Int("orig_height", origHeight).
		Int("new_width", newWidth).
		Int("new_height", newHeight).
		Int("output_size", buf.Len()).
		Msg("Preview generated")

	return buf.Bytes(), outType, nil
}

// DecodeDimensions reads only the image header. ok is false for formats Go
// cannot decode.
func DecodeDimensions(data []byte) (width, height int, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// calculateThumbnailDimensions calculates new dimensions maintaining aspect ratio.
func calculateThumbnailDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}

	if width > height {
		newHeight := int(float64(height) * float64(maxDimension) / float64(width))
		return maxDimension, max(newHeight, 1)
	}

	newWidth := int(float64(width) * float64(maxDimension) / float64(height))
	return max(newWidth, 1), maxDimension
}
