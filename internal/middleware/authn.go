package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mindmatters/mindmatters-api/internal/auth"
	"github.com/mindmatters/mindmatters-api/internal/http/respond"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	VerifySessionToken(token string) (*auth.Claims, error)
}

type claimsKey struct{}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the verified claims in the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			claims, err := verifier.VerifySessionToken(token)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin must run after RequireAuth. Non-admins get 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !claims.IsAdmin() {
			respond.Error(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithClaims returns ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok && claims != nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
