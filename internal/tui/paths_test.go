package tui

import (
	"reflect"
	"testing"
)

func TestSplitDroppedPaths(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"blank", "   \n", nil},
		{"plain", "/tmp/a.png", []string{"/tmp/a.png"}},
		{"trailing space", "/tmp/a.png ", []string{"/tmp/a.png"}},
		{"escaped spaces", `/tmp/my\ photo.png`, []string{"/tmp/my photo.png"}},
		{"single quoted", "'/tmp/my photo.png'", []string{"/tmp/my photo.png"}},
		{"double quoted", `"/tmp/my photo.png"`, []string{"/tmp/my photo.png"}},
		{"several", "/tmp/a.png '/tmp/b c.png'\n/tmp/d.png", []string{"/tmp/a.png", "/tmp/b c.png", "/tmp/d.png"}},
		{"file url", "file:///tmp/my%20photo.png", []string{"/tmp/my photo.png"}},
		{"empty quotes dropped", "'' /tmp/a.png", []string{"/tmp/a.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitDroppedPaths(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitDroppedPaths(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
