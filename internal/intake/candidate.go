package intake

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fpang/warm-edit-studio/internal/filehandler"
	"github.com/rs/zerolog/log"
)

// Candidate is a file offered by the user before validation: picked,
// dropped, pasted or passed on the command line.
type Candidate struct {
	Name     string
	MIMEType string
	Data     []byte
	// Path is set when the candidate was read from disk.
	Path string
}

// NewCandidate builds a candidate from in-memory bytes. The declared type
// comes from the name's extension, falling back to content sniffing.
func NewCandidate(name string, data []byte) *Candidate {
	return &Candidate{
		Name:     filepath.Base(name),
		MIMEType: filehandler.DetectMIMEType(name, data),
		Data:     data,
	}
}

// CandidateFromPath reads a candidate from disk. Only I/O problems are
// errors here; type and size checks happen in SelectFile.
func CandidateFromPath(path string) (*Candidate, error) {
	log.Debug().Str("path", path).Msg("Loading candidate file")

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	c := NewCandidate(path, data)
	c.Path = path
	return c, nil
}

// Size returns the candidate size in bytes.
func (c *Candidate) Size() int64 {
	return int64(len(c.Data))
}
