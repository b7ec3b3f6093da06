package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"tradejournal/pkg/journal"
)

// ErrorResponse represents an error API response with structured information.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeErrorResponse writes err with the HTTP status mapped from its code.
// Unclassified errors use fallbackStatus.
func writeErrorResponse(w http.ResponseWriter, r *http.Request, fallbackStatus int, err error) {
	response := ErrorResponse{
		Code:    fallbackStatus,
		Message: err.Error(),
	}
	var jErr *journal.Error
	if errors.As(err, &jErr) {
		response.ErrorCode = string(jErr.Code)
		response.Code = mapErrorCodeToHTTPStatus(jErr.Code)
		response.Message = jErr.Message
	}
	if r != nil {
		response.RequestID = middleware.GetReqID(r.Context())
	}
	recordError(w, journal.ErrorCode(response.ErrorCode), err.Error())
	writeJSON(w, response.Code, response)
}

// mapErrorCodeToHTTPStatus maps business error codes to HTTP status codes.
func mapErrorCodeToHTTPStatus(code journal.ErrorCode) int {
	switch code {
	case journal.ErrCodeInvalidInput, journal.ErrCodeValidation:
		return http.StatusBadRequest
	case journal.ErrCodeNotFound:
		return http.StatusNotFound
	case journal.ErrCodeDuplicate:
		return http.StatusConflict
	case journal.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case journal.ErrCodeExternal:
		return http.StatusBadGateway
	case journal.ErrCodeDatabase, journal.ErrCodeMigration, journal.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
