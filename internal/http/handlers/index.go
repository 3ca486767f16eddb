package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindmatters/mindmatters-api/internal/http/respond"
)

type endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

type indexDocument struct {
	Message string              `json:"message"`
	Health  string              `json:"health"`
	Auth    map[string]endpoint `json:"auth"`
	Profile map[string]endpoint `json:"profile"`
	Admin   map[string]endpoint `json:"admin"`
}

var index = indexDocument{
	Message: "MindMatters API",
	Health:  "/health",
	Auth: map[string]endpoint{
		"signup":         {http.MethodPost, "/auth/signup"},
		"login":          {http.MethodPost, "/auth/login"},
		"logout":         {http.MethodPost, "/auth/logout"},
		"forgotPassword": {http.MethodPost, "/auth/forgot-password"},
		"resetPassword":  {http.MethodPost, "/auth/reset-password"},
		"me":             {http.MethodGet, "/auth/me"},
	},
	Profile: map[string]endpoint{
		"get":    {http.MethodGet, "/profile/me"},
		"update": {http.MethodPut, "/profile/me"},
	},
	Admin: map[string]endpoint{
		"entries":  {http.MethodGet, "/admin/entries"},
		"profiles": {http.MethodGet, "/admin/profiles"},
	},
}

// RegisterIndex serves the API index document on GET /.
func RegisterIndex(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, index)
	})
}
