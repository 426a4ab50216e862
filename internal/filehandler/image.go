package filehandler

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// ImageMetadata is the EXIF summary shown next to the selected image.
type ImageMetadata struct {
	DateTaken time.Time
	HasDate   bool

	CameraMake  string
	CameraModel string
}

// ExtractImageMetadata decodes EXIF metadata from r. Only the metadata
// blocks are read; imagemeta detects the container (JPEG, HEIC, TIFF) from
// the header.
func ExtractImageMetadata(r io.ReadSeeker) (*ImageMetadata, error) {
	exifData, err := imagemeta.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	metadata := &ImageMetadata{
		CameraMake:  strings.TrimSpace(exifData.Make),
		CameraModel: strings.TrimSpace(exifData.Model),
	}

	// DateTimeOriginal > CreateDate
	if t := exifData.DateTimeOriginal(); !t.IsZero() {
		metadata.DateTaken = t
		metadata.HasDate = true
	} else if t := exifData.CreateDate(); !t.IsZero() {
		metadata.DateTaken = t
		metadata.HasDate = true
	}

	log.Debug().
		Bool("has_date", metadata.HasDate).
		Str("camera", metadata.Camera()).
		Msg("Image metadata extraction complete")

	return metadata, nil
}

// ExtractImageMetadataBytes is ExtractImageMetadata over an in-memory file.
func ExtractImageMetadataBytes(data []byte) (*ImageMetadata, error) {
	return ExtractImageMetadata(bytes.NewReader(data))
}

// Camera joins make and model, dropping the make when the model repeats it.
func (m *ImageMetadata) Camera() string {
	if m == nil {
		return ""
	}
	if m.CameraMake != "" && strings.HasPrefix(strings.ToLower(m.CameraModel), strings.ToLower(m.CameraMake)) {
		return m.CameraModel
	}
	return strings.TrimSpace(m.CameraMake + " " + m.CameraModel)
}

// Summary returns a one-line description, or "" when nothing is known.
func (m *ImageMetadata) Summary() string {
	if m == nil {
		return ""
	}
	var parts []string
	if camera := m.Camera(); camera != "" {
		parts = append(parts, camera)
	}
	if m.HasDate {
		parts = append(parts, m.DateTaken.Format("Jan 2, 2006 3:04 PM"))
	}
	return strings.Join(parts, " · ")
}
