package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindmatters/mindmatters-api/internal/http/respond"
)

// Pinger checks a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler returns uptime and basic status.
type HealthHandler struct {
	startedAt time.Time
	db        Pinger
	logger    *slog.Logger
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, db: db, logger: logger}
}

// Register wires the handler into the router.
func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startedAt).Truncate(time.Second).String()

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.logger.WarnContext(r.Context(), "health check: database unreachable", slog.String("error", err.Error()))
		respond.JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"uptime": uptime,
		})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": uptime,
	})
}
