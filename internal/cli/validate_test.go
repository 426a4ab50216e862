package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fpang/warm-edit-studio/internal/apperr"
)

func TestResolveImageFile(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "photo.PNG")
	txt := filepath.Join(dir, "notes.txt")
	for _, p := range []string{img, txt} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"image", img, false},
		{"text file", txt, true},
		{"directory", dir, true},
		{"missing", filepath.Join(dir, "missing.png"), true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveImageFile(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveImageFile(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if !tt.wantErr && !filepath.IsAbs(got) {
				t.Errorf("ResolveImageFile() = %q, want absolute path", got)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"invalid input", apperr.InvalidInput("x"), 2},
		{"rejected", apperr.Rejected(500, "x", nil), 1},
		{"transport", apperr.Transport("x", nil), 1},
		{"plain", errors.New("x"), 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("%s: ExitCode() = %d, want %d", tt.name, got, tt.want)
		}
	}
}
