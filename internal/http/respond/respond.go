package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the shape of every failed response.
type ErrorBody struct {
	Error any `json:"error"`
}

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("respond: encode payload failed", slog.String("error", err.Error()))
	}
}

// Error writes {"error": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// ErrorDetail writes {"error": detail} for structured problems such as
// field-level validation failures.
func ErrorDetail(w http.ResponseWriter, status int, detail any) {
	JSON(w, status, ErrorBody{Error: detail})
}

// Success writes {"success": true}.
func Success(w http.ResponseWriter) {
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}
