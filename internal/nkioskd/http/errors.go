package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/netboard/netboard-kiosk/internal/nkioskd/errors"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/kiosk"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/ratelimit"
)

// apiError is the JSON body carried by every non-2xx response
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError maps any error to an HTTP status and JSON body
func writeError(w http.ResponseWriter, err error, defaultStatus int, logger *slog.Logger) {
	status, body := mapError(err, defaultStatus)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if encodeErr := json.NewEncoder(w).Encode(body); encodeErr != nil {
		logger.Error("failed to write error response",
			"error", encodeErr,
			"originalError", err,
		)
	}
}

// mapError converts domain errors to HTTP statuses. Coded errors keep
// their code and message in the body; bare validation errors surface
// their own text; everything else stays opaque.
func mapError(err error, defaultStatus int) (int, apiError) {
	body := apiError{Error: "INTERNAL", Message: "An unexpected error occurred"}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		body.Error = appErr.Code
		body.Message = appErr.Message
	}

	var (
		invalidView  kiosk.ErrInvalidViewMode
		restricted   kiosk.ErrViewRestricted
		invalidClock kiosk.ErrInvalidClock
		invalidPIN   kiosk.ErrInvalidPIN
		closed       kiosk.ErrClosed
	)

	switch {
	case errors.As(err, &invalidView),
		errors.As(err, &invalidClock),
		errors.As(err, &invalidPIN),
		errors.Is(err, apperrors.ErrInvalidInput):
		if body.Error == "INTERNAL" {
			body = apiError{Error: "INVALID_INPUT", Message: err.Error()}
		}
		return http.StatusBadRequest, body

	case errors.As(err, &restricted):
		return http.StatusConflict, body

	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, body

	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, body

	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, body

	case errors.Is(err, ratelimit.ErrLimitExceeded):
		body.Error = "RATE_LIMITED"
		body.Message = "Too many requests"
		return http.StatusTooManyRequests, body

	case errors.As(err, &closed):
		return http.StatusServiceUnavailable, body

	default:
		return defaultStatus, body
	}
}
