// Copyright (c) 2026 Flowdeck. All rights reserved.
// Author: nm.thanh.dev@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nmthanh-dev/flowdeck/internal/cicd/deployment"
	"github.com/nmthanh-dev/flowdeck/internal/cicd/pipeline"
	"github.com/nmthanh-dev/flowdeck/internal/metrics"
	"github.com/nmthanh-dev/flowdeck/internal/platform/config"
	"github.com/nmthanh-dev/flowdeck/internal/platform/constants"
	"github.com/nmthanh-dev/flowdeck/internal/platform/middleware"
	"github.com/nmthanh-dev/flowdeck/internal/platform/sec"
	"github.com/nmthanh-dev/flowdeck/internal/users/auth"
	"github.com/nmthanh-dev/flowdeck/internal/users/directory"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles the credential lifecycle (register, login, refresh, profile).
	Auth *auth.Handler

	// AuthGate provides RequireAuth / RequireRole for protected route groups.
	AuthGate *auth.Middleware

	// Pipeline handles CI pipeline definitions and runs.
	Pipeline *pipeline.Handler

	// Deployment handles release tracking and rollbacks.
	Deployment *deployment.Handler

	// Metrics serves the dashboard aggregate views.
	Metrics *metrics.Handler

	// Directory handles admin user administration.
	Directory *directory.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	// Domain-specific route groups mounted under the /api prefix. Everything
	// outside /api/auth sits behind the auth gate.
	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(authRoutes chi.Router) {
			h.Auth.Routes(authRoutes, h.AuthGate)
		})

		api.Group(func(protected chi.Router) {
			protected.Use(h.AuthGate.RequireAuth)

			protected.Route("/pipelines", h.Pipeline.Routes)
			protected.Route("/deployments", func(deployRoutes chi.Router) {
				h.Deployment.Routes(deployRoutes, h.AuthGate.RequireRole(sec.RoleAdmin, sec.RoleDevOps))
			})
			protected.Route("/metrics", func(metricRoutes chi.Router) {
				h.Metrics.Routes(metricRoutes, h.AuthGate.RequireRole(sec.RoleAdmin))
			})
			protected.Route("/users", func(userRoutes chi.Router) {
				h.Directory.Routes(userRoutes, h.AuthGate.RequireRole(sec.RoleAdmin))
			})
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
