package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/tendant/portfolio-content/pkg/portfolio"
)

// errUploadTooLarge is returned when a write request exceeds the body limit
var errUploadTooLarge = errors.New("upload too large")

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes a failure
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps a service error onto an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge, "upload_too_large"
	case errors.Is(err, portfolio.ErrConcurrentUpdate):
		return http.StatusConflict, "concurrent_update"
	case errors.Is(err, portfolio.ErrMissingRequiredAsset):
		return http.StatusBadRequest, "missing_required_asset"
	case errors.Is(err, portfolio.ErrUnsupportedMedia):
		return http.StatusBadRequest, "unsupported_media"
	case errors.Is(err, portfolio.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, portfolio.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, portfolio.ErrExternalServiceNoResult):
		return http.StatusNotFound, "no_result"
	case errors.Is(err, portfolio.ErrExternalServiceUnavailable):
		return http.StatusServiceUnavailable, "external_service_unavailable"
	case errors.Is(err, portfolio.ErrStorageFailure):
		return http.StatusInternalServerError, "storage_failure"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError renders err. Server-side failures are logged and their detail
// is kept out of the response.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.logger.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
		message = "An internal server error occurred"
	} else {
		h.logger.DebugContext(r.Context(), msg, "error", err, "status", status)
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// formError classifies a body parsing failure.
func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return errUploadTooLarge
	}
	return fmt.Errorf("%w: malformed form: %v", portfolio.ErrInvalidInput, err)
}
