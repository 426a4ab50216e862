// Package intake owns the source image side of an edit: file selection,
// the drag/drop adapter, the preview handle lifecycle and prompt validation.
//
// The controller keeps exactly one live preview handle per selected image.
// Every path that replaces or discards the image releases the previous
// handle, including Close.
package intake

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fpang/warm-edit-studio/internal/apperr"
	"github.com/fpang/warm-edit-studio/internal/filehandler"
	"github.com/fpang/warm-edit-studio/internal/preview"
	"github.com/rs/zerolog/log"
)

// Status lines set by the intake side.
const (
	MsgChooseImage = "Please choose an image file."
	MsgSelected    = "Lovely choice! Add a prompt and we will craft it."
	MsgUnreadable  = "We couldn't read that image. Try again with a different file."
)

// DefaultMaxBytes bounds accepted uploads.
const DefaultMaxBytes int64 = 10 << 20

// ErrClosed is returned by SelectFile after Close.
var ErrClosed = errors.New("intake controller closed")

// SourceImage is the accepted image. At most one exists at a time.
type SourceImage struct {
	Name     string
	MIMEType string
	Data     []byte
	Path     string
	Metadata *filehandler.ImageMetadata
	// Width and Height are zero for formats that cannot be decoded locally.
	Width  int
	Height int
}

// Size returns the image size in bytes.
func (s *SourceImage) Size() int64 {
	return int64(len(s.Data))
}

// PreviewResource creates and releases preview handles.
type PreviewResource interface {
	Create(name, mimeType string, data []byte) (preview.Handle, error)
	Release(h preview.Handle) error
}

// Observer receives intake events. It is called without the controller lock
// held, so it may call back into the controller.
type Observer interface {
	// SourceReplaced is called after a new image was accepted.
	SourceReplaced()
	// InputsChanged reports whether both image and prompt are valid.
	InputsChanged(ready bool)
	// Notify sets the user-facing status line.
	Notify(status string)
}

// Controller is the intake controller. Safe for concurrent use.
type Controller struct {
	previews PreviewResource
	maxBytes int64
	observer Observer

	mu       sync.Mutex
	source   *SourceImage
	handle   *preview.Handle
	prompt   string
	dragging bool
	closed   bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxBytes sets the upload size limit.
func WithMaxBytes(n int64) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithObserver registers the observer, usually the edit session controller.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// NewController creates an intake controller backed by previews.
func NewController(previews PreviewResource, opts ...Option) *Controller {
	c := &Controller{
		previews: previews,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SelectFile validates a candidate and, if acceptable, makes it the source
// image. Rejected candidates return an *apperr.Error of kind
// KindInvalidInput and leave the source, handle and prompt unchanged.
func (c *Controller) SelectFile(candidate *Candidate) error {
	if err := c.validate(candidate); err != nil {
		log.Info().Err(err).Msg("Candidate rejected")
		c.notify(err.Message)
		return err
	}

	src := &SourceImage{
		Name:     candidate.Name,
		MIMEType: candidate.MIMEType,
		Data:     candidate.Data,
		Path:     candidate.Path,
	}
	src.Width, src.Height, _ = filehandler.DecodeDimensions(src.Data)
	if meta, err := filehandler.ExtractImageMetadataBytes(src.Data); err != nil {
		log.Debug().Err(err).Str("name", src.Name).Msg("No EXIF metadata, continuing without it")
	} else {
		src.Metadata = meta
	}

	h, err := c.previews.Create(src.Name, src.MIMEType, src.Data)
	if err != nil {
		log.Warn().Err(err).Str("name", src.Name).Msg("Preview generation failed")
		c.notify(MsgUnreadable)
		return &apperr.Error{Kind: apperr.KindInvalidInput, Message: MsgUnreadable, Err: err}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.releaseHandle(h)
		return ErrClosed
	}
	old := c.handle
	c.source = src
	c.handle = &h
	ready := c.readyLocked()
	c.mu.Unlock()

	if old != nil {
		c.releaseHandle(*old)
	}

	log.Info().
		Str("name", src.Name).
		Str("mime_type", src.MIMEType).
		Str("size", humanize.Bytes(uint64(src.Size()))).
		Str("preview", h.URL).
		Msg("Source image selected")

	if c.observer != nil {
		c.observer.SourceReplaced()
		c.observer.InputsChanged(ready)
		c.observer.Notify(MsgSelected)
	}
	return nil
}

func (c *Controller) validate(candidate *Candidate) *apperr.Error {
	if candidate == nil {
		return apperr.InvalidInput(MsgChooseImage)
	}
	if !filehandler.IsImageMIME(candidate.MIMEType) {
		return apperr.InvalidInput(MsgChooseImage)
	}
	if len(candidate.Data) == 0 {
		return apperr.InvalidInput(MsgUnreadable)
	}
	if candidate.Size() > c.maxBytes {
		return apperr.InvalidInput(fmt.Sprintf("That image is over %s. Try a smaller file.", humanize.Bytes(uint64(c.maxBytes))))
	}
	return nil
}

// DragEnter marks a drag in progress.
func (c *Controller) DragEnter() {
	c.setDragging(true)
}

// DragOver keeps the drag flag set while the pointer moves.
func (c *Controller) DragOver() {
	c.setDragging(true)
}

// DragLeave clears the drag flag.
func (c *Controller) DragLeave() {
	c.setDragging(false)
}

// Drop clears the drag flag and selects the first candidate. Extra
// candidates are ignored. An empty drop changes nothing.
func (c *Controller) Drop(candidates []*Candidate) error {
	c.setDragging(false)
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) > 1 {
		log.Debug().Int("count", len(candidates)).Msg("Multiple files dropped, using the first")
	}
	return c.SelectFile(candidates[0])
}

func (c *Controller) setDragging(v bool) {
	c.mu.Lock()
	c.dragging = v
	c.mu.Unlock()
}

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// SetPrompt stores the prompt verbatim.
func (c *Controller) SetPrompt(text string) {
	c.mu.Lock()
	changed := c.prompt != text
	c.prompt = text
	ready := c.readyLocked()
	c.mu.Unlock()

	if changed && c.observer != nil {
		c.observer.InputsChanged(ready)
	}
}

// Prompt returns the raw prompt text.
func (c *Controller) Prompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt
}

// PromptValid reports whether the prompt is non-empty after trimming.
func (c *Controller) PromptValid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return promptValid(c.prompt)
}

// Ready reports whether both a source image and a valid prompt exist.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyLocked()
}

func (c *Controller) readyLocked() bool {
	return c.source != nil && promptValid(c.prompt)
}

func promptValid(s string) bool {
	return strings.TrimSpace(s) != ""
}

// Source returns the current source image, or nil.
func (c *Controller) Source() *SourceImage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// Preview returns the live preview handle for the current source.
func (c *Controller) Preview() (preview.Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle == nil {
		return preview.Handle{}, false
	}
	return *c.handle, true
}

// Close releases the live preview handle and discards the source image.
// Calling Close more than once is a no-op.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	h := c.handle
	c.handle = nil
	c.source = nil
	c.mu.Unlock()

	if h == nil {
		return nil
	}
	return c.previews.Release(*h)
}

func (c *Controller) releaseHandle(h preview.Handle) {
	if err := c.previews.Release(h); err != nil {
		log.Warn().Err(err).Str("id", h.ID).Msg("Failed to release preview handle")
	}
}

func (c *Controller) notify(status string) {
	if c.observer != nil {
		c.observer.Notify(status)
	}
}
