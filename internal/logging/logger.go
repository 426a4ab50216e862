package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultLogFileName is the file the interactive UI logs to when no --log-file is given.
const DefaultLogFileName = "edit-studio.log"

// Init initializes the global logger writing to w.
// EDIT_STUDIO_LOG_LEVEL controls the log level: debug, info, warn, error (default: info)
func Init(w io.Writer) {
	zerolog.SetGlobalLevel(levelFromEnv())

	// Color escapes only make sense on a terminal; log files stay plain.
	noColor := w != os.Stderr && w != os.Stdout
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, NoColor: noColor})
}

// OpenFile opens path for appending so the interactive UI can keep the
// terminal free of log output. An empty path selects DefaultLogFileName in
// the OS temp directory.
func OpenFile(path string) (*os.File, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), DefaultLogFileName)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func levelFromEnv() zerolog.Level {
	switch os.Getenv("EDIT_STUDIO_LOG_LEVEL") {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
