package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindmatters/mindmatters-api/internal/auth"
	"github.com/mindmatters/mindmatters-api/internal/http/respond"
	"github.com/mindmatters/mindmatters-api/internal/middleware"
	"github.com/mindmatters/mindmatters-api/internal/models/dto"
	"github.com/mindmatters/mindmatters-api/internal/storage"
)

const (
	actionLogout = "logout"
	actionMe     = "me"
)

// Authenticator is the credential authority as seen by HTTP.
type Authenticator interface {
	Signup(ctx context.Context, in auth.SignupInput) (auth.Session, error)
	Login(ctx context.Context, in auth.LoginInput) (auth.Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	VerifySessionToken(token string) (*auth.Claims, error)
}

// AuthHandler owns the action-selected auth endpoints.
type AuthHandler struct {
	authority Authenticator
	users     storage.UserStore
	logger    *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authority Authenticator, users storage.UserStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authority: authority, users: users, logger: logger}
}

// Register attaches auth routes. The action is taken from the path
// (/auth/login) or from the query (/auth?action=login).
func (h *AuthHandler) Register(r chi.Router) {
	requireAuth := middleware.RequireAuth(h.authority)

	r.Post("/auth", h.handleQueryAction)
	r.Post("/auth/{action}", h.handlePathAction)
	r.With(requireAuth).Get("/auth/me", h.handleMe)
	r.Get("/auth", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") != actionMe {
			respond.Error(w, http.StatusBadRequest, "Invalid action")
			return
		}
		requireAuth(http.HandlerFunc(h.handleMe)).ServeHTTP(w, r)
	})
}

func (h *AuthHandler) handleQueryAction(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, r.URL.Query().Get("action"))
}

func (h *AuthHandler) handlePathAction(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, chi.URLParam(r, "action"))
}

func (h *AuthHandler) dispatch(w http.ResponseWriter, r *http.Request, action string) {
	switch action {
	case auth.ActionSignup:
		h.handleSignup(w, r)
	case auth.ActionLogin:
		h.handleLogin(w, r)
	case actionLogout:
		// Sessions are stateless; the client discards its token.
		respond.Success(w)
	case auth.ActionForgotPassword:
		h.handleForgotPassword(w, r)
	case auth.ActionResetPassword:
		h.handleResetPassword(w, r)
	default:
		respond.Error(w, http.StatusBadRequest, "Invalid action")
	}
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	session, err := h.authority.Signup(r.Context(), auth.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.SessionResponse{Token: session.Token, User: dto.NewUserResponse(session.User)})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	session, err := h.authority.Login(r.Context(), auth.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.SessionResponse{Token: session.Token, User: dto.NewUserResponse(session.User)})
}

func (h *AuthHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.authority.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.Success(w)
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.authority.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.Success(w)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := h.users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.MeResponse{User: dto.NewUserResponse(user)})
}
