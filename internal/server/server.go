// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (multiple entry points could use the same server config)
// - Clean (main.go stays minimal, just "start the server")
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config.Config and a logger, then:
//
//	server.New() builds:  session store, OAuth provider, state signer,
//	                      GitHub gateway, text generator
//	NewWithDependencies:  services → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired
// in one place, rather than scattered across the codebase. Tests call
// NewWithDependencies directly with fakes for GitHub and the generator.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/test-case-generator/internal/auth"
	"github.com/sakif/test-case-generator/internal/config"
	"github.com/sakif/test-case-generator/internal/handler"
	"github.com/sakif/test-case-generator/internal/hosting"
	"github.com/sakif/test-case-generator/internal/middleware"
	"github.com/sakif/test-case-generator/internal/repository"
	redisRepo "github.com/sakif/test-case-generator/internal/repository/redis"
	sqliteRepo "github.com/sakif/test-case-generator/internal/repository/sqlite"
	"github.com/sakif/test-case-generator/internal/service"
	"github.com/sakif/test-case-generator/internal/session"
	"github.com/sakif/test-case-generator/internal/textgen"
)

// purgeInterval is how often expired rows are deleted from a durable
// session store.
const purgeInterval = 10 * time.Minute

// redisDialTimeout bounds the startup ping to Redis.
const redisDialTimeout = 5 * time.Second

// upstreamTimeout bounds every call to GitHub.
const upstreamTimeout = 30 * time.Second

// Dependencies are the outside-world collaborators of the server. New
// builds the real ones from config; tests supply fakes.
type Dependencies struct {
	Sessions  session.Store
	Provider  service.OAuthProvider
	States    service.StateIssuer
	Gateway   hosting.Gateway
	Generator textgen.Generator
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// With SESSION_STORE=sqlite or redis the Server owns a connection (store).
// Start closes it after graceful shutdown. Only sqlite needs the purge
// loop (db); Redis expires keys itself. With the in-memory store both
// are nil.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     repository.SessionRepository
	store  io.Closer
}

// New creates a Server with real dependencies built from cfg.
//
// DEPENDENCY INJECTION & WIRING:
//  1. Open the session store (memory, sqlite or redis)
//  2. Create the OAuth provider and the state signer
//  3. Create the GitHub gateway
//  4. Pick the text generator (OpenAI, Gemini or placeholder)
//  5. Hand everything to NewWithDependencies
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with
// the sqlite driver package.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	var (
		sessions session.Store
		db       repository.SessionRepository
		store    io.Closer
	)
	switch cfg.Session.Store {
	case config.SessionStoreSQLite:
		if dir := filepath.Dir(cfg.Session.DBPath); dir != "." && cfg.Session.DBPath != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		sqliteDB, err := sqliteRepo.New(cfg.Session.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening session database: %w", err)
		}
		sessions, db, store = sqliteDB, sqliteDB, sqliteDB
	case config.SessionStoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
		redisStore, err := redisRepo.New(ctx, cfg.Session.RedisURL)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("connecting to session redis: %w", err)
		}
		sessions, store = redisStore, redisStore
	default:
		sessions = session.NewMemoryStore(cfg.Session.MaxEntries, cfg.Session.TTL)
	}

	// closeDB releases the store connection if a later step fails.
	closeDB := func() {
		if store != nil {
			store.Close()
		}
	}

	states, err := auth.NewStateSigner(cfg.StateSecret)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("creating state signer: %w", err)
	}

	provider := auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)

	gateway, err := hosting.NewGitHubGateway(cfg.GitHub.APIURL, &http.Client{Timeout: upstreamTimeout}, logger)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("creating GitHub gateway: %w", err)
	}

	generator, err := textgen.New(context.Background(), textgen.Config{
		Provider:  cfg.AI.Provider,
		APIKey:    cfg.AI.APIKey,
		Model:     cfg.AI.Model,
		BaseURL:   cfg.AI.BaseURL,
		MaxTokens: textgen.DefaultMaxTokens,
	}, logger)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("creating text generator: %w", err)
	}

	s := NewWithDependencies(cfg, logger, Dependencies{
		Sessions:  sessions,
		Provider:  provider,
		States:    states,
		Gateway:   gateway,
		Generator: generator,
	})
	s.db, s.store = db, store
	return s, nil
}

// NewWithDependencies wires services, handlers and routes around deps.
func NewWithDependencies(cfg config.Config, logger *slog.Logger, deps Dependencies) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	s.setupRoutes(deps)
	return s
}

// Handler exposes the router, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /healthz                                   → liveness
// GET    /auth/github                               → {authUrl}
// GET    /auth/github/callback                      → redirect to frontend
// POST   /auth/logout                               → drop session      [session]
// GET    /api/user                                  → GitHub user       [session]
// GET    /api/repositories                          → repositories      [session]
// GET    /api/repository/{owner}/{repo}/contents    → directory listing [session]
// GET    /api/repository/{owner}/{repo}/file        → one file          [session]
// POST   /api/generate-test-summaries               → summaries         [session]
// POST   /api/generate-test-code                    → test code         [session]
// POST   /api/create-pull-request                   → pull request      [session]
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. CORS: answers preflights before any route or auth check
func (s *Server) setupRoutes(deps Dependencies) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// The frontend lives on another origin and sends the session id in the
	// Authorization header, so that header must be allowed explicitly.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{s.config.FrontendURL},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// === Services ===
	authService := service.NewAuthService(deps.Provider, deps.States, deps.Gateway, deps.Sessions, s.config.Session.TTL, s.logger)
	browseService := service.NewBrowseService(deps.Gateway)
	testGenService := service.NewTestGenService(deps.Generator, deps.Gateway, s.config.SummaryConcurrency, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, s.config.FrontendURL, s.logger)
	repoHandler := handler.NewRepositoryHandler(browseService, s.logger)
	testGenHandler := handler.NewTestGenHandler(testGenService, s.logger)

	requireSession := auth.RequireSession(deps.Sessions, s.logger)

	s.router.Get("/healthz", handler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/github", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.With(requireSession).Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(requireSession)

		r.Get("/user", repoHandler.HandleUser)
		r.Get("/repositories", repoHandler.HandleRepositories)
		r.Get("/repository/{owner}/{repo}/contents", repoHandler.HandleContents)
		r.Get("/repository/{owner}/{repo}/file", repoHandler.HandleFile)

		r.Post("/generate-test-summaries", testGenHandler.HandleGenerateSummaries)
		r.Post("/generate-test-code", testGenHandler.HandleGenerateTestCode)
		r.Post("/create-pull-request", testGenHandler.HandleCreatePullRequest)
	})
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Stop the purge loop and close the session store, if any
//
// WRITE TIMEOUT:
// Summary generation calls the AI provider once per file, so a request can
// legitimately run for minutes. WriteTimeout is sized for that rather than
// for a typical JSON API.
func (s *Server) Start() error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if s.db != nil {
		go s.purgeLoop(ctx, s.db)
	}
	if s.store != nil {
		// Stop the purge loop before the pool closes.
		defer func() {
			stop()
			s.store.Close()
		}()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("frontend", s.config.FrontendURL),
			slog.String("sessionStore", s.config.Session.Store),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	// Block until we receive a signal or server error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give in-flight requests 30 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// purgeLoop deletes expired sessions every purgeInterval until ctx ends.
func (s *Server) purgeLoop(ctx context.Context, repo repository.SessionRepository) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeExpired(ctx)
			if err != nil {
				s.logger.Error("purging expired sessions failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				s.logger.Info("purged expired sessions", slog.Int64("count", n))
			}
		}
	}
}
