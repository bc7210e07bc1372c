// Package api provides the HTTP API server and handlers for YaMDb.
package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"

	"github.com/yamdb/yamdb-server/internal/http/response"
	"github.com/yamdb/yamdb-server/internal/logger"
	"github.com/yamdb/yamdb-server/internal/metrics"
	"github.com/yamdb/yamdb-server/internal/ratelimit"
	"github.com/yamdb/yamdb-server/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	Version        string
	AllowedOrigins []string
	// RequestsPerMinute is the per-IP budget for every route. Zero disables it.
	RequestsPerMinute int
	// AuthRequestsPerMinute and AuthBurst bound signup and token exchange per IP.
	AuthRequestsPerMinute int
	AuthBurst             int
	DefaultPageSize       int
	MaxPageSize           int
}

// DefaultOptions returns options suitable for tests and local development.
func DefaultOptions() Options {
	return Options{
		Version:               "1.0.0",
		AllowedOrigins:        []string{"*"},
		AuthRequestsPerMinute: 10,
		AuthBurst:             5,
		DefaultPageSize:       20,
		MaxPageSize:           100,
	}
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *ratelimit.KeyedRateLimiter
	opts            Options
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, opts Options, logger *slog.Logger) *Server {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = DefaultOptions().DefaultPageSize
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = opts.DefaultPageSize
	}

	s := &Server{
		store:           st,
		services:        services,
		router:          chi.NewRouter(),
		logger:          logger,
		authRateLimiter: ratelimit.PerMinute(opts.AuthRequestsPerMinute, opts.AuthBurst),
		opts:            opts,
	}

	// chi requires every middleware before the first route, and humachi
	// registers the docs routes as soon as it is created.
	s.setupMiddleware()
	s.api = humachi.New(s.router, newHumaConfig(opts.Version))
	RegisterErrorHandler()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, used for OpenAPI export and tests.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

func newHumaConfig(version string) huma.Config {
	cfg := huma.DefaultConfig("YaMDb API", version)
	cfg.Info.Description = "Reviews and ratings of books, films and music."
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	// Responses stay plain JSON objects, without the $schema link huma adds by default.
	cfg.CreateHooks = nil

	jsonFormat := huma.Format{
		Marshal: func(w io.Writer, v any) error {
			return json.NewEncoder(w).Encode(v)
		},
		Unmarshal: json.Unmarshal,
	}
	cfg.Formats = map[string]huma.Format{
		"application/json": jsonFormat,
		"json":             jsonFormat,
	}
	cfg.DefaultFormat = "application/json"
	return cfg
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logger.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.StripSlashes)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Retry-After", "X-Request-ID"},
		MaxAge:         300,
	}))
	if s.opts.RequestsPerMinute > 0 {
		s.router.Use(globalRateLimit(s.opts.RequestsPerMinute, s.logger))
	}
	s.router.Use(withRequestURL)
	s.router.Use(authMiddleware(s.services.Auth))
}

// setupRoutes registers every operation.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerCategoryRoutes()
	s.registerGenreRoutes()
	s.registerTitleRoutes()
	s.registerReviewRoutes()
	s.registerCommentRoutes()
	s.registerSearchRoutes()

	s.router.Handle("/metrics", metrics.Handler())
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, "method "+r.Method+" not allowed", s.logger)
	})
}
