package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/code-payments/moderation-gateway/moderation"
)

const (
	CodeInvalidRequest   = "invalid_request"
	CodeValidation       = "validation_error"
	CodeUpstream         = "upstream_error"
	CodeInternal         = "internal_error"
	CodeCanceled         = "request_canceled"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeNotFound         = "not_found"
)

// StatusClientClosedRequest is reported when the client went away before the
// upstream calls finished.
const StatusClientClosedRequest = 499

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	// The status line is already out; nothing useful can be done on failure.
	_ = json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Error: ErrorInfo{Code: code, Message: message}})
}

// writeModerationError maps a moderation failure to a response and logs it.
func writeModerationError(w http.ResponseWriter, log *zap.Logger, err error) {
	var ue *moderation.UpstreamError
	switch {
	case errors.Is(err, context.Canceled):
		log.Info("Request canceled by client", zap.Error(err))
		WriteError(w, StatusClientClosedRequest, CodeCanceled, "request canceled")
	case errors.Is(err, moderation.ErrEmptyImage):
		WriteError(w, http.StatusUnprocessableEntity, CodeValidation, err.Error())
	case errors.As(err, &ue):
		log.Error("Upstream moderation service failed", zap.String("service", ue.Service), zap.Error(ue.Err))
		WriteError(w, http.StatusBadGateway, CodeUpstream, ue.Service+" request failed")
	default:
		log.Error("Moderation failed", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}
