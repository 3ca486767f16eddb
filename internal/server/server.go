package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mindmatters/mindmatters-api/internal/auth"
	"github.com/mindmatters/mindmatters-api/internal/config"
	"github.com/mindmatters/mindmatters-api/internal/http/handlers"
	"github.com/mindmatters/mindmatters-api/internal/metrics"
	"github.com/mindmatters/mindmatters-api/internal/middleware"
	"github.com/mindmatters/mindmatters-api/internal/storage"
)

// Deps is everything the HTTP layer is built from.
type Deps struct {
	Config    config.Config
	Store     storage.Store
	Authority *auth.Authority
	Metrics   *metrics.Collector
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner   *http.Server
	limiter *middleware.RateLimiter
}

// New wires up middleware, routes, and returns a ready server. Every route
// is served both at the root and under /api.
func New(deps Deps) *Server {
	limiter := middleware.NewRateLimiter(middleware.PerMinute(deps.Config.RateLimitPerMinute), deps.Logger)

	r := chi.NewRouter()
	r.Use(deps.middlewares(r)...)

	health := handlers.NewHealthHandler(time.Now(), deps.Store, deps.Logger)
	authH := handlers.NewAuthHandler(deps.Authority, deps.Store, deps.Logger)
	profile := handlers.NewProfileHandler(deps.Store, deps.Store, deps.Authority, deps.Logger)
	admin := handlers.NewAdminHandler(deps.Store, deps.Store, deps.Authority, deps.Logger)

	routes := func(r chi.Router) {
		handlers.RegisterIndex(r)
		health.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			authH.Register(r)
		})
		profile.Register(r)
		admin.Register(r)
	}
	routes(r)
	r.Route("/api", routes)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	httpServer := &http.Server{
		Addr:              deps.Config.HTTPAddress(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, limiter: limiter}
}

// middlewares returns the stack every request passes through, outermost
// first. RequestID runs ahead of Logging and Recover so both can tag their
// entries, and Recover sits inside Logging so a panic is logged as a 500.
func (d Deps) middlewares(routes chi.Routes) []func(http.Handler) http.Handler {
	var stack []func(http.Handler) http.Handler
	if d.Config.TrustProxyHeaders {
		stack = append(stack, chimw.RealIP)
	}
	return append(stack,
		middleware.RequestID,
		middleware.Logging(d.Logger),
		middleware.Metrics(d.Metrics),
		middleware.Recover(d.Logger),
		middleware.CORS(middleware.CORSPolicy{Origins: d.Config.CORSOrigins}, routes),
	)
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.inner.Shutdown(ctx)
}
