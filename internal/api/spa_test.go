package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestWithSPA_ServesStaticAndIndex(t *testing.T) {
	webDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(webDir, "index.html"), []byte("INDEX"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(webDir, "favicon.svg"), []byte("ICON"), 0o644); err != nil {
		t.Fatalf("write favicon: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(webDir, "assets"), 0o755); err != nil {
		t.Fatalf("mkdir assets: %v", err)
	}
	if err := os.WriteFile(filepath.Join(webDir, "assets", "app-1a2b.js"), []byte("APP"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("API"))
	})
	h := WithSPA(apiHandler, webDir)

	tests := []struct {
		name  string
		path  string
		body  string
		cache string
	}{
		{name: "api passthrough", path: "/api/health", body: "API"},
		{name: "root index", path: "/", body: "INDEX", cache: "no-store"},
		{name: "root file", path: "/favicon.svg", body: "ICON", cache: "no-store"},
		{name: "fingerprinted asset", path: "/assets/app-1a2b.js", body: "APP", cache: "public, max-age=31536000, immutable"},
		{name: "client route", path: "/accounts/prop-firm", body: "INDEX", cache: "no-store"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rr.Code)
			}
			if rr.Body.String() != tc.body {
				t.Fatalf("expected body %q, got %q", tc.body, rr.Body.String())
			}
			if got := rr.Header().Get("Cache-Control"); got != tc.cache {
				t.Fatalf("expected cache %q, got %q", tc.cache, got)
			}
		})
	}
}

func TestWithSPA_IndexMissing(t *testing.T) {
	h := WithSPA(http.NotFoundHandler(), t.TempDir())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if rr.Body.String() != "index.html not found" {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
}
