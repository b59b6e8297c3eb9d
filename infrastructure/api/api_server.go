package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/mark3labs/mcp-go/server"

	"github.com/emberline/guildhall"
	apimiddleware "github.com/emberline/guildhall/infrastructure/api/middleware"
	v1 "github.com/emberline/guildhall/infrastructure/api/v1"
	"github.com/emberline/guildhall/infrastructure/api/web"
	mcpinternal "github.com/emberline/guildhall/internal/mcp"
)

// DefaultImportRateLimit is the number of imports one address may start per
// minute.
const DefaultImportRateLimit = 10

// ServerOption configures an APIServer.
type ServerOption func(*APIServer)

// WithCORSOrigins allows browser calls to the JSON API from origins.
func WithCORSOrigins(origins ...string) ServerOption {
	return func(a *APIServer) { a.corsOrigins = origins }
}

// WithImportRateLimit sets how many imports one address may start per
// minute. Zero disables the limit.
func WithImportRateLimit(perMinute int) ServerOption {
	return func(a *APIServer) { a.importLimit = perMinute }
}

// WithVersion sets the version the MCP endpoint reports.
func WithVersion(version string) ServerOption {
	return func(a *APIServer) { a.version = version }
}

// APIServer serves the JSON API, the web pages and the MCP endpoint backed
// by a guildhall Client.
type APIServer struct {
	client       *guildhall.Client
	web          *web.Handler
	corsOrigins  []string
	importLimit  int
	version      string
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// NewAPIServer creates an APIServer wired to client.
func NewAPIServer(client *guildhall.Client, opts ...ServerOption) (*APIServer, error) {
	a := &APIServer{
		client:      client,
		importLimit: DefaultImportRateLimit,
		version:     "dev",
		logger:      client.Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}

	webOpts := []web.Option{}
	if limiter := a.importLimiter(); limiter != nil {
		webOpts = append(webOpts, web.WithImportLimiter(limiter))
	}
	h, err := web.NewHandler(client, webOpts...)
	if err != nil {
		return nil, fmt.Errorf("web handler: %w", err)
	}
	a.web = h
	return a, nil
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, Run creates a default router with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) importLimiter() func(http.Handler) http.Handler {
	if a.importLimit <= 0 {
		return nil
	}
	return httprate.LimitByIP(a.importLimit, time.Minute)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	if m := c.Metrics(); m != nil {
		router.Use(m.Middleware)
	}
	if len(a.corsOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   a.corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Correlation-ID"},
			ExposedHeaders:   []string{"X-Correlation-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// A typed nil *auth.Verifier would make a non-nil interface.
	var verifier apimiddleware.TokenVerifier
	if v := c.Verifier(); v != nil {
		verifier = v
	}
	router.Use(apimiddleware.Session(verifier, c.Profiles, a.logger))

	health := func(w http.ResponseWriter, r *http.Request) {
		if err := c.Ping(r.Context()); err != nil {
			a.logger.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
			apimiddleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
	router.Get("/health", health)
	router.Get("/healthz", health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Mount("/nav", v1.NewNavRouter(c).Routes())
		r.Mount("/profiles", v1.NewProfilesRouter(c).Routes())
		r.Mount("/characters", v1.NewCharactersRouter(c).Routes())
		r.Mount("/classes", v1.NewClassesRouter(c).Routes())
		r.Mount("/missions", v1.NewMissionsRouter(c).Routes())
		r.Mount("/lfg", v1.NewLFGRouter(c).Routes())
		r.Mount("/pages", v1.NewPagesRouter(c).Routes())
		r.Mount("/rules", v1.NewRulesRouter(c).Routes())

		r.Group(func(r chi.Router) {
			if limiter := a.importLimiter(); limiter != nil {
				r.Use(limiter)
			}
			r.Mount("/import", v1.NewImportRouter(c).Routes())
		})
	})

	// MCP streams and keeps session state in response headers, so it stays
	// outside the Timeout middleware.
	mcpSrv := mcpinternal.NewServer(c.Characters, c.Missions, c.Pages, a.version, a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))

	if m := c.Metrics(); m != nil {
		router.Handle("/metrics", m.Handler())
	}
	router.Mount("/docs", a.DocsRouter("/docs/openapi.json").Routes())

	router.Mount("/", a.web.Routes())
}

// DocsRouter returns a router for Swagger UI and the OpenAPI document.
func (a *APIServer) DocsRouter(specURL string) *DocsRouter {
	return NewDocsRouter(specURL)
}

// Run serves on addr until ctx is cancelled, then drains in-flight
// requests for up to DefaultShutdownGrace.
func (a *APIServer) Run(ctx context.Context, addr string) error {
	srv := NewServer(addr, a.logger)
	if a.routerCalled && a.router != nil {
		srv.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(srv.Router())
	}
	return srv.Run(ctx, DefaultShutdownGrace)
}

// Handler returns the full route tree, with the standard middleware, for
// use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	router := chi.NewRouter()
	router.Use(StandardMiddleware(a.logger)...)
	router.Mount("/", a.router)
	return router
}
