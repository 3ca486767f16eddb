package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mindmatters/mindmatters-api/internal/auth"
	"github.com/mindmatters/mindmatters-api/internal/http/respond"
	"github.com/mindmatters/mindmatters-api/internal/middleware"
	"github.com/mindmatters/mindmatters-api/internal/validation"
)

const maxBodyBytes = 1 << 20

var errInvalidJSON = errors.New("invalid JSON payload")

// decodeJSON reads one JSON object from the body. An empty body decodes as {}
// so missing fields surface as validation errors rather than parse errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidJSON
	}
	return nil
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged with full detail and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		respond.ErrorDetail(w, http.StatusBadRequest, verr)
	case errors.Is(err, errInvalidJSON):
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload")
	case errors.Is(err, auth.ErrConflict):
		respond.Error(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrUnauthorized):
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, auth.ErrInvalidToken):
		respond.Error(w, http.StatusBadRequest, "Invalid or expired token")
	default:
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
