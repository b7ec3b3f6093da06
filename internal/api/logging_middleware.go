package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tradejournal/pkg/journal"
)

// slowRequestThreshold marks requests worth a warning even when they succeed.
// AI generation routes are exempt.
const slowRequestThreshold = 2 * time.Second

// quietRoutes are polled by the desktop shell; successful hits log at debug.
var quietRoutes = map[string]bool{
	"/api/health":     true,
	"/api/storage":    true,
	"/api/migrations": true,
}

var generationRoutes = map[string]bool{
	"/api/trades/{id}/analysis":  true,
	"/api/tools/market-analysis": true,
	"/api/quote":                 true,
}

// errorRecorder is implemented by the response writer the request logger
// installs; error writers report what they sent.
type errorRecorder interface {
	RecordError(code journal.ErrorCode, message string)
}

type accessRecorder struct {
	middleware.WrapResponseWriter
	errorCode    journal.ErrorCode
	errorMessage string
}

func (w *accessRecorder) RecordError(code journal.ErrorCode, message string) {
	w.errorCode = code
	w.errorMessage = message
}

func recordError(w http.ResponseWriter, code journal.ErrorCode, message string) {
	if rec, ok := w.(errorRecorder); ok {
		rec.RecordError(code, message)
	}
}

func requestLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &accessRecorder{WrapResponseWriter: middleware.NewWrapResponseWriter(w, r.ProtoMajor)}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			status := rec.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			attrs := []any{
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"query", r.URL.RawQuery,
				"status", status,
				"bytes", rec.BytesWritten(),
				"duration_ms", elapsed.Milliseconds(),
				"remote_ip", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			}
			if rec.errorCode != "" {
				attrs = append(attrs, "error_code", string(rec.errorCode))
			}
			if rec.errorMessage != "" {
				attrs = append(attrs, "error_message", rec.errorMessage)
			}
			slow := elapsed >= slowRequestThreshold && !generationRoutes[route]
			if slow {
				attrs = append(attrs, "slow", true)
			}
			logger.Log(r.Context(), accessLevel(status, route, slow), "http request completed", attrs...)
		})
	}
}

func accessLevel(status int, route string, slow bool) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest, slow:
		return slog.LevelWarn
	case quietRoutes[route]:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func recoveryLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				logger.Error("panic recovered",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", fmt.Sprint(recovered),
					"stack", string(debug.Stack()),
				)
				if sw, ok := w.(interface{ Status() int }); ok && sw.Status() != 0 {
					return
				}
				writeErrorResponse(w, r, http.StatusInternalServerError, journal.NewError(journal.ErrCodeInternal, "internal server error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}
