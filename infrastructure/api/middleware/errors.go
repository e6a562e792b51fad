// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/embedware/vectord/domain/embedding"
	"github.com/embedware/vectord/infrastructure/api/v1/dto"
)

// Error codes for failures that originate at the HTTP boundary rather than
// in the domain.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeModelLoad      = "MODEL_LOAD_ERROR"
	CodeEncoding       = "ENCODING_ERROR"
	CodeTimeout        = "TIMEOUT_EXCEEDED"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to an HTTP status and the error envelope. Messages
// describe limits and identifiers only; request text is never echoed back.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	status, code, message := classify(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"status", status,
			"code", code,
			"path", r.URL.Path,
			"error", err,
		)
	} else {
		logger.DebugContext(r.Context(), "request rejected",
			"status", status,
			"code", code,
			"path", r.URL.Path,
		)
	}

	WriteJSON(w, status, dto.ErrorResponse{
		Error: dto.ErrorDetail{Code: code, Message: message},
	})
}

// WriteInvalidRequest reports a malformed request body.
func WriteInvalidRequest(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, dto.ErrorResponse{
		Error: dto.ErrorDetail{Code: CodeInvalidRequest, Message: message},
	})
}

func classify(err error) (status int, code, message string) {
	var verr *embedding.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, string(verr.Code()), verr.Message()
	}

	var lerr *embedding.LoadError
	if errors.As(err, &lerr) {
		return http.StatusInternalServerError, CodeModelLoad, lerr.Error()
	}

	var terr *embedding.TimeoutError
	if errors.As(err, &terr) {
		return http.StatusGatewayTimeout, CodeTimeout, terr.Error()
	}

	if errors.Is(err, embedding.ErrEncode) {
		return http.StatusInternalServerError, CodeEncoding, "encoding failed"
	}

	return http.StatusInternalServerError, CodeInternalError, "internal error"
}
