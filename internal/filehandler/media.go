// Package filehandler provides image file handling for the edit studio:
// MIME type resolution, EXIF summaries and preview downscaling.
//
// Metadata extraction is pure Go (evanoberholster/imagemeta). Preview
// generation decodes with the standard library plus golang.org/x/image
// decoders; formats Go cannot decode (HEIC/HEIF) fall back to the original
// bytes.
package filehandler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
)

// SupportedImageExtensions defines the file extensions offered by the picker
// and their declared MIME types.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// GetMIMEType returns the MIME type for a given file extension.
func GetMIMEType(ext string) (string, error) {
	if mimeType, ok := SupportedImageExtensions[strings.ToLower(ext)]; ok {
		return mimeType, nil
	}
	return "", fmt.Errorf("unsupported file extension: %s", ext)
}

// IsImage returns true if the file extension corresponds to a supported image.
func IsImage(ext string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return ok
}

// IsImageMIME reports whether a declared type is an image type. Matching is
// on the "image/" prefix, so any image subtype is accepted.
func IsImageMIME(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/")
}

// DetectMIMEType returns the declared type of a file: the extension table
// first, then content sniffing. Parameters such as charset are dropped.
func DetectMIMEType(name string, data []byte) string {
	if mimeType, err := GetMIMEType(filepath.Ext(name)); err == nil {
		return mimeType
	}
	if len(data) == 0 {
		return "application/octet-stream"
	}
	sniffed := http.DetectContentType(data)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	return strings.TrimSpace(sniffed)
}

// ImagePatterns returns glob patterns for every supported extension, sorted.
func ImagePatterns() []string {
	patterns := make([]string, 0, len(SupportedImageExtensions))
	for ext := range SupportedImageExtensions {
		patterns = append(patterns, "*"+ext)
	}
	sort.Strings(patterns)
	return patterns
}

// ImageExtensions returns the supported extensions, sorted.
func ImageExtensions() []string {
	exts := make([]string, 0, len(SupportedImageExtensions))
	for ext := range SupportedImageExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
