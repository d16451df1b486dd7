// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stationkit/aircheck/internal/api"
	"github.com/stationkit/aircheck/internal/auth"
	"github.com/stationkit/aircheck/internal/config"
	"github.com/stationkit/aircheck/internal/db"
	"github.com/stationkit/aircheck/internal/logger"
	"github.com/stationkit/aircheck/internal/middleware"
	"github.com/stationkit/aircheck/internal/policy"
	"github.com/stationkit/aircheck/internal/resolver"
	"github.com/stationkit/aircheck/internal/session"
)

// Server represents the HTTP server
type Server struct {
	config         *config.Config
	db             *db.DB
	repos          *db.Repositories
	policy         *policy.Policy
	resolver       *resolver.Resolver
	sessionManager *session.Manager
	verifier       auth.Verifier
	router         *gin.Engine
	server         *http.Server
}

// New creates a new server instance. The signer is the URL-signing
// collaborator backing the resolver, typically an S3 presigner.
func New(cfg *config.Config, database *db.DB, signer resolver.Signer) *Server {
	repos := db.NewRepositories(database)
	pol := policy.New(policy.SystemClock(), cfg.Archive.WindowDays, cfg.Archive.ElevatedWindowDays)
	res := resolver.New(signer, cfg.Archive.Extension)
	verifier := auth.NewStaticVerifier(cfg.Auth.Tokens)

	sessionManager := session.NewManager(session.Deps{
		Policy:    pol,
		Resolver:  res,
		Positions: repos.Positions,
		Clock:     policy.SystemClock(),
		Location:  time.Local,
		SharePath: cfg.Archive.SharePath,
	}, &cfg.Sessions)

	return &Server{
		config:         cfg,
		db:             database,
		repos:          repos,
		policy:         pol,
		resolver:       res,
		sessionManager: sessionManager,
		verifier:       verifier,
	}
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(middleware.RequestLogger())
	s.router.Use(gin.Recovery())
	s.router.Use(cors.Default())
	s.router.Use(middleware.Identity(s.verifier))
	s.router.Use(middleware.RateLimit(s.config.Server.RateLimitPerMinute, s.config.Server.RateLimitBurst))

	apiGroup := s.router.Group("/api")

	api.SetupHealthRoutes(apiGroup, s.db)
	api.SetupSessionRoutes(apiGroup, s.sessionManager)
	api.SetupArchiveRoutes(apiGroup, s.resolver, s.config.Archive.Extension, s.config.Archive.SignedURLTTL)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.setupRouter()

	if err := s.sessionManager.Start(); err != nil {
		return fmt.Errorf("failed to start session manager: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	if s.sessionManager != nil {
		s.sessionManager.Stop()
	}

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
