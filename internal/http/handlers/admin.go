package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindmatters/mindmatters-api/internal/http/respond"
	"github.com/mindmatters/mindmatters-api/internal/middleware"
	"github.com/mindmatters/mindmatters-api/internal/models"
	"github.com/mindmatters/mindmatters-api/internal/models/dto"
	"github.com/mindmatters/mindmatters-api/internal/storage"
)

// AdminHandler lists sign-in history and profiles. Admin role only.
type AdminHandler struct {
	signins  storage.SignInStore
	profiles storage.ProfileStore
	verifier middleware.TokenVerifier
	logger   *slog.Logger
}

func NewAdminHandler(signins storage.SignInStore, profiles storage.ProfileStore, verifier middleware.TokenVerifier, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{signins: signins, profiles: profiles, verifier: verifier, logger: logger}
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.verifier), middleware.RequireAdmin)
		r.Get("/entries", h.handleEntries)
		r.Get("/profiles", h.handleProfiles)
	})
}

func (h *AdminHandler) handleEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.signins.ListSignIns(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if entries == nil {
		entries = []models.SignInEntry{}
	}
	respond.JSON(w, http.StatusOK, dto.EntriesResponse{Entries: entries})
}

func (h *AdminHandler) handleProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.ListProfiles(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if profiles == nil {
		profiles = []models.ProfileEntry{}
	}
	respond.JSON(w, http.StatusOK, dto.ProfilesResponse{Profiles: profiles})
}
