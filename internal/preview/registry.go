// Package preview manages locally resolvable preview handles for the
// selected source image.
//
// A Handle is created from the source bytes, downscaled for display, and
// must be released exactly once. While live it is served by Server at
// /preview/{id}; after release the id answers 404 and the bytes are dropped.
package preview

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fpang/warm-edit-studio/internal/filehandler"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Scheme is used for handle URLs when no preview server is running.
const Scheme = "preview://"

// maxReleasedIDs bounds how many released ids are remembered for
// ErrReleased. Older ids answer ErrUnknownHandle instead.
const maxReleasedIDs = 256

var (
	// ErrReleased is returned when a handle is released a second time.
	ErrReleased = errors.New("preview handle already released")
	// ErrUnknownHandle is returned for handles this registry never issued.
	ErrUnknownHandle = errors.New("unknown preview handle")
)

// Handle is a reference to a live preview.
type Handle struct {
	ID       string
	URL      string
	MIMEType string
	// Width and Height are zero when the source could not be decoded.
	Width  int
	Height int
	Size   int
}

type entry struct {
	handle Handle
	data   []byte
}

// Registry issues and releases preview handles. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	maxDim   int
	baseURL  string
	live     map[string]*entry
	released map[string]struct{}
	order    []string
}

// NewRegistry creates a registry producing previews no larger than maxDim
// on either side.
func NewRegistry(maxDim int) *Registry {
	if maxDim <= 0 {
		maxDim = filehandler.DefaultPreviewMaxDimension
	}
	return &Registry{
		maxDim:   maxDim,
		live:     make(map[string]*entry),
		released: make(map[string]struct{}),
	}
}

// SetBaseURL sets the origin used for handle URLs created afterwards.
// Existing handles keep their URL.
func (r *Registry) SetBaseURL(base string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.baseURL = strings.TrimRight(base, "/")
}

// Create generates a preview for data and returns a live handle.
func (r *Registry) Create(name, mimeType string, data []byte) (Handle, error) {
	previewData, previewType, err := filehandler.GeneratePreview(data, mimeType, r.maxDim)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to generate preview for %s: %w", name, err)
	}
	width, height, _ := filehandler.DecodeDimensions(previewData)

	id := uuid.NewString()

	r.mu.Lock()
	url := Scheme + id
	if r.baseURL != "" {
		url = r.baseURL + "/preview/" + id
	}
	h := Handle{
		ID:       id,
		URL:      url,
		MIMEType: previewType,
		Width:    width,
		Height:   height,
		Size:     len(previewData),
	}
	r.live[id] = &entry{handle: h, data: previewData}
	liveCount := len(r.live)
	r.mu.Unlock()

	log.Debug().
		Str("id", id).
		Str("name", name).
		Str("mime_type", previewType).
		Int("live", liveCount).
		Msg("Preview handle created")

	return h, nil
}

// Release frees the handle. A second release returns ErrReleased and frees
// nothing.
func (r *Registry) Release(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.live[h.ID]; !ok {
		if _, done := r.released[h.ID]; done {
			return ErrReleased
		}
		return ErrUnknownHandle
	}
	delete(r.live, h.ID)
	r.markReleased(h.ID)

	log.Debug().Str("id", h.ID).Int("live", len(r.live)).Msg("Preview handle released")
	return nil
}

// ReleaseAll frees every live handle and returns how many were freed.
func (r *Registry) ReleaseAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.live)
	for id := range r.live {
		delete(r.live, id)
		r.markReleased(id)
	}
	return n
}

// markReleased records id, forgetting the oldest ids past maxReleasedIDs.
// Callers hold r.mu.
func (r *Registry) markReleased(id string) {
	r.released[id] = struct{}{}
	r.order = append(r.order, id)
	for len(r.order) > maxReleasedIDs {
		delete(r.released, r.order[0])
		r.order = r.order[1:]
	}
}

// Live returns the number of live handles.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// Lookup returns the preview bytes for a live id.
func (r *Registry) Lookup(id string) (data []byte, mimeType string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.live[id]
	if !ok {
		return nil, "", false
	}
	return e.data, e.handle.MIMEType, true
}
