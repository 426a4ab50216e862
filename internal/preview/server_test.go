package preview

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandleHealth(t *testing.T) {
	srv := NewServer("127.0.0.1:0", NewRegistry(64))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestHandlePreviewLifecycle(t *testing.T) {
	reg := NewRegistry(64)
	srv := NewServer("127.0.0.1:0", reg)

	h, err := reg.Create("x.png", "image/png", pngBytes(t, 16, 16))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview/"+h.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("live preview status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
	if rec.Body.Len() != h.Size {
		t.Errorf("body length = %d, want %d", rec.Body.Len(), h.Size)
	}

	if err := reg.Release(h); err != nil {
		t.Fatalf("Release() error: %v", err)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview/"+h.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("released preview status = %d, want 404", rec.Code)
	}
}

func TestHandlePreviewRejectsPost(t *testing.T) {
	srv := NewServer("127.0.0.1:0", NewRegistry(64))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/preview/abc", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestServerStartSetsBaseURL(t *testing.T) {
	reg := NewRegistry(64)
	srv := NewServer("127.0.0.1:0", reg)

	base, err := srv.Start()
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if srv.BaseURL() != base {
		t.Errorf("BaseURL() = %q, want %q", srv.BaseURL(), base)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	h, err := reg.Create("x.png", "image/png", pngBytes(t, 8, 8))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if !strings.HasPrefix(h.URL, base+"/preview/") {
		t.Fatalf("URL = %q, want prefix %q", h.URL, base+"/preview/")
	}

	resp, err := http.Get(h.URL)
	if err != nil {
		t.Fatalf("GET %s: %v", h.URL, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || len(data) != h.Size {
		t.Errorf("GET preview = %d with %d bytes, want 200 with %d", resp.StatusCode, len(data), h.Size)
	}
}
