package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tradejournal/pkg/journal"
)

func TestWriteErrorResponse(t *testing.T) {
	t.Run("structured error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		err := fmt.Errorf("handler: %w", journal.NewError(journal.ErrCodeNotFound, "missing"))
		writeErrorResponse(rr, nil, http.StatusInternalServerError, err)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rr.Code)
		}
		var resp ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ErrorCode != string(journal.ErrCodeNotFound) || resp.Code != http.StatusNotFound || resp.Message != "missing" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("plain error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeErrorResponse(rr, nil, http.StatusBadRequest, errors.New("bad input"))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rr.Code)
		}
		var resp ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ErrorCode != "" || resp.Message != "bad input" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})
}

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code journal.ErrorCode
		want int
	}{
		{name: "invalid", code: journal.ErrCodeInvalidInput, want: http.StatusBadRequest},
		{name: "validation", code: journal.ErrCodeValidation, want: http.StatusBadRequest},
		{name: "not found", code: journal.ErrCodeNotFound, want: http.StatusNotFound},
		{name: "duplicate", code: journal.ErrCodeDuplicate, want: http.StatusConflict},
		{name: "store unavailable", code: journal.ErrCodeStoreUnavailable, want: http.StatusServiceUnavailable},
		{name: "external", code: journal.ErrCodeExternal, want: http.StatusBadGateway},
		{name: "migration", code: journal.ErrCodeMigration, want: http.StatusInternalServerError},
		{name: "database", code: journal.ErrCodeDatabase, want: http.StatusInternalServerError},
		{name: "default", code: journal.ErrorCode("UNKNOWN"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapErrorCodeToHTTPStatus(tt.code); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
