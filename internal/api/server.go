// Package api provides the HTTP API server and handlers for the Espresso server.
package api

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"log/slog"

	"github.com/espressoapp/espresso-server/internal/backup"
	"github.com/espressoapp/espresso-server/internal/config"
	"github.com/espressoapp/espresso-server/internal/identity"
	"github.com/espressoapp/espresso-server/internal/markdown"
	"github.com/espressoapp/espresso-server/internal/ratelimit"
	"github.com/espressoapp/espresso-server/internal/search"
	"github.com/espressoapp/espresso-server/internal/sse"
	"github.com/espressoapp/espresso-server/internal/state"
	"github.com/espressoapp/espresso-server/internal/store"
	"github.com/espressoapp/espresso-server/internal/validation"
)

// apiVersion is reported in the OpenAPI document.
const apiVersion = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	cfg        *config.Config
	state      *state.Manager
	store      store.Store
	gateway    identity.Gateway
	renderer   *markdown.Renderer
	search     *search.SearchIndex
	sseHandler *sse.Handler
	backups    *backup.BackupService
	restorer   *backup.RestoreService
	validator  *validation.Validator
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger

	loginLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
// The search index and SSE handler are optional; routes depending on
// them are registered only when present.
func NewServer(cfg *config.Config, stateMgr *state.Manager, st store.Store, gateway identity.Gateway, renderer *markdown.Renderer, searchIndex *search.SearchIndex, sseHandler *sse.Handler, logger *slog.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		state:      stateMgr,
		store:      st,
		gateway:    gateway,
		renderer:   renderer,
		search:     searchIndex,
		sseHandler: sseHandler,
		validator:  validation.New(),
		router:     chi.NewRouter(),
		logger:     logger,
		// Login attempts: 10 per minute per client, small burst.
		loginLimiter: ratelimit.New(10.0/60.0, 5),
	}

	backupDir := filepath.Join(cfg.Data.BasePath, "backups")
	s.backups = backup.NewBackupService(st, backupDir, cfg.Server.Name, apiVersion, logger)
	s.restorer = backup.NewRestoreService(st, logger)

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Espresso API", apiVersion)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerReportRoutes()
	s.registerTagRoutes()
	s.registerRenderRoutes()
	s.registerSearchRoutes()
	s.registerBackupRoutes()
	s.setupStreamRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	allowedOrigins := []string{"*"}
	if s.cfg != nil && s.cfg.Server.SiteURL != "" {
		allowedOrigins = []string{s.cfg.Server.SiteURL}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(s.principalMiddleware)
	s.router.Use(clientInfoMiddleware)
}

// setupStreamRoutes mounts the SSE endpoint. Server-sent events do
// not fit the huma operation model, so this stays a plain chi route.
func (s *Server) setupStreamRoutes() {
	if s.sseHandler == nil {
		return
	}
	s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
}

// HTTPServer wraps the handler in an http.Server with the configured
// address and timeouts.
func (s *Server) HTTPServer() *http.Server {
	port := "8080"
	readTimeout := 15 * time.Second
	writeTimeout := 15 * time.Second
	idleTimeout := 60 * time.Second
	if s.cfg != nil {
		if s.cfg.Server.Port != "" {
			port = s.cfg.Server.Port
		}
		if s.cfg.Server.ReadTimeout > 0 {
			readTimeout = s.cfg.Server.ReadTimeout
		}
		if s.cfg.Server.WriteTimeout > 0 {
			writeTimeout = s.cfg.Server.WriteTimeout
		}
		if s.cfg.Server.IdleTimeout > 0 {
			idleTimeout = s.cfg.Server.IdleTimeout
		}
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}
