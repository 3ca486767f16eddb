package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mindmatters/mindmatters-api/internal/http/respond"
)

// preflightMaxAge is how long, in seconds, browsers may cache a preflight.
const preflightMaxAge = "600"

// corsCandidates are the methods a preflight may be granted, in the order
// they are advertised.
var corsCandidates = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// DefaultCORSHeaders are the request headers the API reads.
var DefaultCORSHeaders = []string{"Authorization", "Content-Type", RequestIDHeader}

// CORSPolicy describes which browser origins may call the API.
type CORSPolicy struct {
	// Origins lists allowed origins; "*" allows any without credentials.
	Origins []string
	// Headers the browser may send. Empty means DefaultCORSHeaders.
	Headers []string
}

type originSet struct {
	any     bool
	allowed map[string]struct{}
}

func newOriginSet(origins []string) originSet {
	set := originSet{allowed: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		if origin == "*" {
			set.any = true
			continue
		}
		set.allowed[strings.ToLower(strings.TrimRight(origin, "/"))] = struct{}{}
	}
	return set
}

func (s originSet) permits(origin string) bool {
	if origin == "" {
		return false
	}
	if s.any {
		return true
	}
	_, ok := s.allowed[strings.ToLower(origin)]
	return ok
}

// CORS grants allowed origins access and answers OPTIONS itself. The methods
// a preflight advertises come from what routes registers for the requested
// path, so a grant never names a method the server would answer with 405.
// OPTIONS for a path with no routes is a 404.
func CORS(policy CORSPolicy, routes chi.Routes) func(http.Handler) http.Handler {
	origins := newOriginSet(policy.Origins)
	headers := policy.Headers
	if len(headers) == 0 {
		headers = DefaultCORSHeaders
	}
	allowHeaders := strings.Join(headers, ", ")
	exposeHeaders := strings.Join([]string{RequestIDHeader, "Retry-After"}, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			granted := origins.permits(origin)
			h := w.Header()
			h.Add("Vary", "Origin")
			if granted {
				if origins.any {
					h.Set("Access-Control-Allow-Origin", "*")
				} else {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				h.Set("Access-Control-Expose-Headers", exposeHeaders)
			}

			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			methods := routedMethods(routes, r.URL.Path)
			if len(methods) == 0 {
				respond.Error(w, http.StatusNotFound, "Not found")
				return
			}
			allow := strings.Join(methods, ", ")
			h.Set("Allow", allow+", "+http.MethodOptions)
			if granted && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				h.Set("Access-Control-Allow-Methods", allow)
				h.Set("Access-Control-Allow-Headers", allowHeaders)
				h.Set("Access-Control-Max-Age", preflightMaxAge)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func routedMethods(routes chi.Routes, path string) []string {
	var methods []string
	for _, method := range corsCandidates {
		if routes.Match(chi.NewRouteContext(), method, path) {
			methods = append(methods, method)
		}
	}
	return methods
}
