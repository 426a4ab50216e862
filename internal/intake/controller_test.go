package intake

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/fpang/warm-edit-studio/internal/apperr"
	"github.com/fpang/warm-edit-studio/internal/preview"
)

type recordingObserver struct {
	replaced int
	ready    []bool
	statuses []string
}

func (o *recordingObserver) SourceReplaced()          { o.replaced++ }
func (o *recordingObserver) InputsChanged(ready bool) { o.ready = append(o.ready, ready) }
func (o *recordingObserver) Notify(status string)     { o.statuses = append(o.statuses, status) }

func (o *recordingObserver) lastStatus() string {
	if len(o.statuses) == 0 {
		return ""
	}
	return o.statuses[len(o.statuses)-1]
}

func isLive(reg *preview.Registry, h preview.Handle) bool {
	_, _, ok := reg.Lookup(h.ID)
	return ok
}

func pngData(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 10))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *preview.Registry, *recordingObserver) {
	t.Helper()
	reg := preview.NewRegistry(64)
	obs := &recordingObserver{}
	c := NewController(reg, append([]Option{WithObserver(obs)}, opts...)...)
	return c, reg, obs
}

func TestSelectFileRejectsInvalidCandidates(t *testing.T) {
	tests := []struct {
		name       string
		candidate  *Candidate
		wantStatus string
	}{
		{"nil", nil, MsgChooseImage},
		{"text file", &Candidate{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("hi")}, MsgChooseImage},
		{"pdf", &Candidate{Name: "doc.pdf", MIMEType: "application/pdf", Data: []byte("%PDF")}, MsgChooseImage},
		{"empty image", &Candidate{Name: "empty.png", MIMEType: "image/png"}, MsgUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, reg, obs := newTestController(t)

			err := c.SelectFile(tt.candidate)
			if !apperr.Is(err, apperr.KindInvalidInput) {
				t.Fatalf("SelectFile() error = %v, want InvalidInput", err)
			}
			if c.Source() != nil {
				t.Error("Source() set after rejected candidate")
			}
			if _, ok := c.Preview(); ok || reg.Live() != 0 {
				t.Errorf("preview created for rejected candidate (live=%d)", reg.Live())
			}
			if obs.replaced != 0 {
				t.Error("observer told about replacement for rejected candidate")
			}
			if obs.lastStatus() != tt.wantStatus {
				t.Errorf("status = %q, want %q", obs.lastStatus(), tt.wantStatus)
			}
		})
	}
}

func TestSelectFileRejectsOversized(t *testing.T) {
	c, reg, _ := newTestController(t, WithMaxBytes(16))

	err := c.SelectFile(NewCandidate("big.png", pngData(t)))
	if !apperr.Is(err, apperr.KindInvalidInput) {
		t.Fatalf("SelectFile() error = %v, want InvalidInput", err)
	}
	if reg.Live() != 0 || c.Source() != nil {
		t.Error("oversized candidate changed state")
	}
}

func TestSelectFileKeepsPreviousOnRejection(t *testing.T) {
	c, reg, _ := newTestController(t)

	if err := c.SelectFile(NewCandidate("a.png", pngData(t))); err != nil {
		t.Fatalf("SelectFile() error: %v", err)
	}
	before, _ := c.Preview()

	if err := c.SelectFile(&Candidate{Name: "x.txt", MIMEType: "text/plain", Data: []byte("x")}); err == nil {
		t.Fatal("expected rejection")
	}

	after, ok := c.Preview()
	if !ok || after.ID != before.ID || !isLive(reg, after) {
		t.Error("rejected candidate disturbed the existing preview")
	}
	if c.Source().Name != "a.png" {
		t.Errorf("Source().Name = %q, want a.png", c.Source().Name)
	}
}

func TestSelectFileReplacesAndReleases(t *testing.T) {
	c, reg, obs := newTestController(t)
	var handles []preview.Handle

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		if err := c.SelectFile(NewCandidate(name, pngData(t))); err != nil {
			t.Fatalf("SelectFile(%s) error: %v", name, err)
		}
		h, ok := c.Preview()
		if !ok {
			t.Fatalf("no preview after selecting %s", name)
		}
		handles = append(handles, h)

		if reg.Live() != 1 {
			t.Errorf("after %s: live handles = %d, want exactly 1", name, reg.Live())
		}
	}

	for _, h := range handles[:2] {
		if err := reg.Release(h); !errors.Is(err, preview.ErrReleased) {
			t.Errorf("superseded handle %s: Release() = %v, want ErrReleased", h.ID, err)
		}
	}
	if c.Source().Name != "c.png" || c.Source().Width != 20 {
		t.Errorf("Source() = %+v, want c.png 20px wide", c.Source())
	}
	if obs.replaced != 3 || obs.lastStatus() != MsgSelected {
		t.Errorf("observer replaced=%d status=%q", obs.replaced, obs.lastStatus())
	}
}

func TestCloseReleasesOnce(t *testing.T) {
	c, reg, _ := newTestController(t)
	if err := c.SelectFile(NewCandidate("a.png", pngData(t))); err != nil {
		t.Fatalf("SelectFile() error: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	if reg.Live() != 0 {
		t.Errorf("live handles after Close = %d, want 0", reg.Live())
	}
	if err := c.SelectFile(NewCandidate("b.png", pngData(t))); !errors.Is(err, ErrClosed) {
		t.Errorf("SelectFile() after Close = %v, want ErrClosed", err)
	}
	if reg.Live() != 0 {
		t.Errorf("SelectFile after Close leaked a handle")
	}
}

func TestDragAndDrop(t *testing.T) {
	c, _, _ := newTestController(t)

	c.DragEnter()
	c.DragOver()
	if !c.Dragging() {
		t.Fatal("Dragging() = false during drag")
	}
	if c.Source() != nil {
		t.Fatal("drag changed the source image")
	}
	c.DragLeave()
	if c.Dragging() {
		t.Fatal("Dragging() = true after DragLeave")
	}

	c.DragEnter()
	err := c.Drop([]*Candidate{
		NewCandidate("first.png", pngData(t)),
		NewCandidate("second.png", pngData(t)),
	})
	if err != nil {
		t.Fatalf("Drop() error: %v", err)
	}
	if c.Dragging() {
		t.Error("Dragging() = true after Drop")
	}
	if c.Source().Name != "first.png" {
		t.Errorf("Source().Name = %q, want first.png", c.Source().Name)
	}

	c.DragEnter()
	if err := c.Drop(nil); err != nil {
		t.Errorf("empty Drop() error: %v", err)
	}
	if c.Dragging() || c.Source().Name != "first.png" {
		t.Error("empty drop should only clear the drag flag")
	}
}

func TestPromptValidity(t *testing.T) {
	tests := []struct {
		prompt string
		valid  bool
	}{
		{"", false},
		{"   ", false},
		{"\n\t", false},
		{"make it warm", true},
		{"  add a hat  ", true},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			c, _, _ := newTestController(t)
			c.SetPrompt(tt.prompt)
			if c.Prompt() != tt.prompt {
				t.Errorf("Prompt() = %q, want verbatim %q", c.Prompt(), tt.prompt)
			}
			if c.PromptValid() != tt.valid {
				t.Errorf("PromptValid() = %v, want %v", c.PromptValid(), tt.valid)
			}
		})
	}
}

func TestReadyNotifications(t *testing.T) {
	c, _, obs := newTestController(t)

	c.SetPrompt("add a rainbow")
	if c.Ready() {
		t.Error("Ready() = true without an image")
	}
	if err := c.SelectFile(NewCandidate("a.png", pngData(t))); err != nil {
		t.Fatalf("SelectFile() error: %v", err)
	}
	if !c.Ready() {
		t.Error("Ready() = false with image and prompt")
	}
	c.SetPrompt("  ")

	want := []bool{false, true, false}
	if len(obs.ready) != len(want) {
		t.Fatalf("InputsChanged calls = %v, want %v", obs.ready, want)
	}
	for i := range want {
		if obs.ready[i] != want[i] {
			t.Errorf("InputsChanged[%d] = %v, want %v", i, obs.ready[i], want[i])
		}
	}
}

func TestCandidateFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, pngData(t), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := CandidateFromPath(path)
	if err != nil {
		t.Fatalf("CandidateFromPath() error: %v", err)
	}
	if c.Name != "photo.png" || c.MIMEType != "image/png" || c.Path != path {
		t.Errorf("candidate = %+v", c)
	}

	if _, err := CandidateFromPath(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := CandidateFromPath(dir); err == nil {
		t.Error("expected error for directory")
	}
}

func TestNewCandidateSniffsUnknownExtension(t *testing.T) {
	c := NewCandidate("clipboard", pngData(t))
	if c.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", c.MIMEType)
	}
}
