package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mindmatters/mindmatters-api/internal/http/respond"
	"github.com/mindmatters/mindmatters-api/internal/middleware"
	"github.com/mindmatters/mindmatters-api/internal/models"
	"github.com/mindmatters/mindmatters-api/internal/models/dto"
	"github.com/mindmatters/mindmatters-api/internal/storage"
	"github.com/mindmatters/mindmatters-api/internal/validation"
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	users    storage.UserStore
	profiles storage.ProfileStore
	verifier middleware.TokenVerifier
	logger   *slog.Logger
}

func NewProfileHandler(users storage.UserStore, profiles storage.ProfileStore, verifier middleware.TokenVerifier, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{users: users, profiles: profiles, verifier: verifier, logger: logger}
}

func (h *ProfileHandler) Register(r chi.Router) {
	r.Route("/profile", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.verifier))
		r.Get("/me", h.handleGet)
		r.Put("/me", h.handleUpdate)
	})
}

func (h *ProfileHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	user, err := h.users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	profile, err := h.profiles.FindProfile(r.Context(), user.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.ProfileResponse{User: dto.NewUserResponse(user), Profile: profile})
}

func (h *ProfileHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	var req dto.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	verr := validation.New()
	name := strings.TrimSpace(req.Name)
	if !validation.MinLen(name, 1) {
		verr.Field("name", "is required")
	}
	age, err := parseAge(req.Age)
	if err != nil {
		verr.Field("age", err.Error())
	}
	if err := verr.Err(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	profile := models.Profile{
		Age:           age,
		Locality:      req.Locality,
		PersonalNotes: deref(req.PersonalNotes),
		Goals:         deref(req.Goals),
	}
	user, saved, err := h.profiles.UpdateProfile(r.Context(), claims.UserID, name, profile)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.ProfileResponse{User: dto.NewUserResponse(user), Profile: saved})
}

func (h *ProfileHandler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "User not found")
		return
	}
	writeError(w, r, h.logger, err)
}

// parseAge accepts a non-negative integer or a string of digits. Absent and
// null mean no age.
func parseAge(raw json.RawMessage) (*int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil || !digitsOnly.MatchString(text) {
			return nil, errors.New("must be a whole number")
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, errors.New("must be a whole number")
		}
		text = n.String()
	}

	age, err := strconv.Atoi(text)
	if err != nil {
		return nil, errors.New("must be a whole number")
	}
	if age < 0 {
		return nil, errors.New("must be at least 0")
	}
	return &age, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
