// Package api provides the HTTP server: server-rendered catalog and account
// pages, plus a read-only JSON API under /api/v1.
package api

import (
	"log/slog"
	"net/http"
	"net/netip"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/booksapp/books-server/internal/ratelimit"
)

// Options configures cookies, CORS, and rate limits.
type Options struct {
	CookieName         string
	CookieSecure       bool
	CORSAllowedOrigins []string
	LoginRatePerMinute int
	// TrustedProxies lists the peers whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means the TCP peer is always the client.
	TrustedProxies []netip.Prefix
}

func (o *Options) applyDefaults() {
	if o.CookieName == "" {
		o.CookieName = "session"
	}
	if len(o.CORSAllowedOrigins) == 0 {
		o.CORSAllowedOrigins = []string{"*"}
	}
	if o.LoginRatePerMinute <= 0 {
		o.LoginRatePerMinute = 10
	}
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services    *Services
	opts        Options
	router      *chi.Mux
	api         huma.API
	pages       *renderer
	authLimiter *ratelimit.KeyedRateLimiter
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts.applyDefaults()

	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		services:    services,
		opts:        opts,
		router:      chi.NewRouter(),
		pages:       pages,
		authLimiter: ratelimit.PerMinute(opts.LoginRatePerMinute),
		logger:      logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation and tests.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.authLimiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(realIP(s.opts.TrustedProxies))
	s.router.Use(accessLog(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.sessionMiddleware)
	s.router.Use(apiOnly(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: !slices.Contains(s.opts.CORSAllowedOrigins, "*"),
		MaxAge:           300,
	})))
}

// apiOnly applies mw to JSON API requests only.
func apiOnly(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				wrapped.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderStatus(w, r, http.StatusNotFound, "Page not found.")
	})

	// Pages.
	s.router.Get("/", s.handleHome)
	s.router.Get("/books/{id}", s.handleBookDetail)
	s.router.Get("/search", s.handleSearchPage)

	s.router.Group(func(r chi.Router) {
		r.Use(s.limitPosts(s.authLimiter))
		r.Get("/signup", s.handleSignupForm)
		r.Post("/signup", s.handleSignup)
		r.Get("/login", s.handleLoginForm)
		r.Post("/login", s.handleLogin)
	})
	s.router.Get("/logout", s.handleLogout)
	s.router.Post("/logout", s.handleLogout)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireLogin)
		r.Get("/create_author", s.handleCreateAuthorForm)
		r.Post("/create_author", s.handleCreateAuthor)
		r.Get("/create_book", s.handleCreateBookForm)
		r.Post("/create_book", s.handleCreateBook)
	})

	// JSON API.
	humaConfig := huma.DefaultConfig("Books API", "1.0.0")
	humaConfig.OpenAPIPath = "/api/v1/openapi"
	humaConfig.DocsPath = "/api/v1/docs"
	humaConfig.SchemasPath = "/api/v1/schemas"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"session": {
			Type: "apiKey",
			In:   "cookie",
			Name: s.opts.CookieName,
		},
	}

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(s.logger)

	s.registerHealthRoutes()
	s.registerCatalogRoutes()
	s.registerSearchRoutes()
	s.registerUserRoutes()
}
