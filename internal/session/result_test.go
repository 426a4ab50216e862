package session

import "testing"

func TestResolveResult(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{"relative with slash", "http://host", "/static/out.png", "http://host/static/out.png"},
		{"relative without slash", "http://host", "static/out.png", "http://host/static/out.png"},
		{"base trailing slash", "http://host/", "/static/out.png", "http://host/static/out.png"},
		{"base with path", "https://api.example.com/v1/", "files/x.png", "https://api.example.com/v1/files/x.png"},
		{"absolute http", "http://host", "https://cdn.example.com/x.png", "https://cdn.example.com/x.png"},
		{"protocol relative", "http://host", "//cdn.example.com/x.png", "//cdn.example.com/x.png"},
		{"data url", "http://host", "data:image/png;base64,iVBORw0KGgo=", "data:image/png;base64,iVBORw0KGgo="},
		{"upper case data url", "http://host", "DATA:image/png;base64,AA==", "DATA:image/png;base64,AA=="},
		{"malformed escape", "http://host", "/out%zz.png", "http://host/out%zz.png"},
		{"empty", "http://host", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveResult(tt.base, tt.ref)
			if got != tt.want {
				t.Errorf("ResolveResult(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
			}
			if again := ResolveResult(tt.base, got); again != got {
				t.Errorf("not idempotent: %q then %q", got, again)
			}
		})
	}
}

func TestEditResultIsDataURL(t *testing.T) {
	if !(EditResult{Reference: "data:image/png;base64,AA=="}).IsDataURL() {
		t.Error("IsDataURL() = false for data URL")
	}
	if (EditResult{Reference: "/static/out.png"}).IsDataURL() {
		t.Error("IsDataURL() = true for path")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Idle, "idle"},
		{Ready, "ready"},
		{Submitting, "submitting"},
		{Succeeded, "succeeded"},
		{Failed, "failed"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
	if !Succeeded.Terminal() || !Failed.Terminal() || Submitting.Terminal() {
		t.Error("Terminal() wrong")
	}
}
