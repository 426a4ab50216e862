package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fpang/warm-edit-studio/internal/apperr"
	"github.com/fpang/warm-edit-studio/internal/filehandler"
	"github.com/rs/zerolog/log"
)

// ResolveImageFile checks that the path exists, is a regular file and has a
// supported image extension, then returns the absolute path.
func ResolveImageFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("no image path given")
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("image not found: %s", path)
		}
		return "", fmt.Errorf("failed to access image: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not an image: %s", path)
	}
	if !filehandler.IsImage(filepath.Ext(path)) {
		return "", fmt.Errorf("unsupported image type %q (supported: %v)", filepath.Ext(path), filehandler.ImageExtensions())
	}

	if absPath, err := filepath.Abs(path); err == nil {
		path = absPath
	}
	return path, nil
}

// ValidateAndResolveFile is ResolveImageFile that exits fatally on failure.
func ValidateAndResolveFile(path string) string {
	resolved, err := ResolveImageFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Invalid image path")
	}
	return resolved
}

// ExitCode maps a workflow error to a process exit code: 0 for nil, 2 for
// invalid input, 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if apperr.Is(err, apperr.KindInvalidInput) {
		return 2
	}
	return 1
}

// HandleSessionError logs a workflow error with a message matching its kind.
func HandleSessionError(err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Error().Err(err).Msg("Unexpected error")
		return
	}
	switch appErr.Kind {
	case apperr.KindInvalidInput:
		log.Error().Str("reason", appErr.Message).Msg("Nothing was sent to the edit service")
	case apperr.KindRequestRejected:
		log.Error().Err(err).Int("status", appErr.StatusCode).Msg("Edit service rejected the request")
	case apperr.KindTransportFailure:
		log.Error().Err(err).Msg("Could not reach the edit service. Check EDIT_API_URL and your connection")
	default:
		log.Error().Err(err).Msg("Edit failed")
	}
}
