package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"tradejournal/pkg/journal"
)

func setupRouterWithLogger(t *testing.T, logger *slog.Logger) http.Handler {
	t.Helper()
	core, err := journal.OpenWithOptions(journal.Options{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("open core: %v", err)
	}
	t.Cleanup(func() { _ = core.Close() })
	return NewRouter(core)
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func useDefaultLogger(t *testing.T, logger *slog.Logger) {
	t.Helper()
	oldDefault := slog.Default()
	slog.SetDefault(logger)
	t.Cleanup(func() { slog.SetDefault(oldDefault) })
}

func TestNewRouterLogsRequestCompleted(t *testing.T) {
	var buf bytes.Buffer
	router := setupRouterWithLogger(t, bufferLogger(&buf))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("User-Agent", "journal-test-agent")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusOK)

	logs := buf.String()
	for _, want := range []string{
		"http request completed",
		"method=GET",
		"path=/api/health",
		"level=DEBUG",
		"route=/api/health",
		"status=200",
		"request_id=",
		"duration_ms=",
		"user_agent=journal-test-agent",
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %q in logs, got %q", want, logs)
		}
	}
}

func TestNewRouterLogsWarnForBadRequest(t *testing.T) {
	var buf bytes.Buffer
	router := setupRouterWithLogger(t, bufferLogger(&buf))

	rr := doRequest(router, http.MethodDelete, "/api/accounts/default", nil)
	expectStatus(t, rr, http.StatusBadRequest)

	logs := buf.String()
	if !strings.Contains(logs, "level=WARN") || !strings.Contains(logs, "status=400") {
		t.Fatalf("expected warn log with status, got %q", logs)
	}
	if !strings.Contains(logs, "error_code=VALIDATION_ERROR") {
		t.Fatalf("expected error code in log, got %q", logs)
	}
	if !strings.Contains(logs, `error_message="VALIDATION_ERROR: the default account cannot be deleted`) {
		t.Fatalf("expected error message in log, got %q", logs)
	}
}

func TestNewRouterRecoversPanicWithStructuredLog(t *testing.T) {
	var buf bytes.Buffer
	useDefaultLogger(t, bufferLogger(&buf))

	router := NewRouter(nil)
	rr := doRequest(router, http.MethodGet, "/api/accounts", nil)
	expectStatus(t, rr, http.StatusInternalServerError)
	body := parseJSON(t, rr)
	if body["error_code"] != string(journal.ErrCodeInternal) || body["message"] != "internal server error" {
		t.Fatalf("expected structured error response, got %v", body)
	}

	logs := buf.String()
	for _, want := range []string{"panic recovered", "request_id=", "level=ERROR", "status=500"} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %q in logs, got %q", want, logs)
		}
	}
}

func TestNewRouterUsesCoreLoggerForRequestLogs(t *testing.T) {
	var buf bytes.Buffer
	router := setupRouterWithLogger(t, bufferLogger(&buf))

	var defaultBuf bytes.Buffer
	useDefaultLogger(t, bufferLogger(&defaultBuf))

	rr := doRequest(router, http.MethodGet, "/api/health", nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(buf.String(), "http request completed") {
		t.Fatalf("expected logs written through core logger, got %q", buf.String())
	}
	if defaultBuf.Len() != 0 {
		t.Fatalf("expected no log written to slog default, got %q", defaultBuf.String())
	}
}

func TestAccessLevel(t *testing.T) {
	tests := []struct {
		name   string
		status int
		route  string
		slow   bool
		want   slog.Level
	}{
		{name: "ok", status: http.StatusOK, route: "/api/trades", want: slog.LevelInfo},
		{name: "quiet poll", status: http.StatusOK, route: "/api/health", want: slog.LevelDebug},
		{name: "slow", status: http.StatusOK, route: "/api/health", slow: true, want: slog.LevelWarn},
		{name: "client error", status: http.StatusNotFound, route: "/api/trades/{id}", want: slog.LevelWarn},
		{name: "quiet route failing", status: http.StatusServiceUnavailable, route: "/api/storage", want: slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := accessLevel(tt.status, tt.route, tt.slow); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRecordErrorWithoutRecorder(t *testing.T) {
	rr := httptest.NewRecorder()
	recordError(rr, journal.ErrCodeInternal, "ignored")
	writeError(rr, http.StatusBadRequest, "plain")
	if rr.Code != http.StatusBadRequest || parseJSON(t, rr)["error"] != "plain" {
		t.Fatalf("unexpected response: %d %s", rr.Code, rr.Body.String())
	}
}
