// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the entire dependency chain is assembled
// here (DB → repositories → services → handlers) and wired to routes.
// main.go stays minimal — it builds a Config and calls New + Start.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/medora-app/server/internal/auth"
	"github.com/medora-app/server/internal/handler"
	"github.com/medora-app/server/internal/middleware"
	sqliteRepo "github.com/medora-app/server/internal/repository/sqlite"
	"github.com/medora-app/server/internal/service"
)

// requestTimeout bounds every request end to end, so neither a bcrypt hash
// nor a stuck store call can hold a connection open indefinitely.
const requestTimeout = 30 * time.Second

// Config holds server configuration.
type Config struct {
	// Ports is the candidate list tried in order; the first free one wins.
	Ports []int
	// DBPath is the SQLite database file (":memory:" for tests).
	DBPath string
	// JWTSecret signs session tokens.
	JWTSecret string
	// StaticDir holds the client HTML/JS pages. Empty disables static serving.
	StaticDir string
	// BcryptCost is the password hashing work factor.
	BcryptCost int
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the full dependency chain wired:
//
//	sqlite.DB → AuthService/ProfileService → handlers → routes
//
// Each layer only receives what it needs — services get repository
// interfaces, handlers get services, nothing below the handler layer
// knows about HTTP.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for httptest-based tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware, builds the dependency chain, and
// registers all routes.
//
// MIDDLEWARE ORDER MATTERS — it executes in the order added:
// RequestID → RealIP → Recoverer → Timeout → CORS → request logger.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(requestTimeout))

	// Permissive CORS, matching what the client pages were written against.
	// Credentials stay off because the origin list is a wildcard.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Accept"},
		AllowCredentials: false,
	}))

	s.router.Use(middleware.Logger(s.logger))

	// === Auth plumbing ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	// === Services and handlers ===
	authService := service.NewAuthService(s.db, s.db, tokens, passwords, s.logger)
	profileService := service.NewProfileService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	// === API routes ===
	s.router.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Get("/health", healthHandler.HandleHealth)

		// Token-gated
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/profile", profileHandler.HandleGet)
			r.Post("/profile", profileHandler.HandleUpsert)
			r.Put("/profile", profileHandler.HandleUpsert)
			r.Put("/user", authHandler.HandleUpdateAccount)
			r.Put("/change-password", authHandler.HandleChangePassword)
			r.Delete("/account", authHandler.HandleDeleteAccount)
			r.Get("/sessions", authHandler.HandleSessions)
		})
	})

	// === Static client pages ===
	if s.config.StaticDir != "" {
		fileServer := http.FileServer(http.Dir(s.config.StaticDir))
		s.router.Handle("/*", fileServer)
	}

	return nil
}

// Start listens and serves until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s),
// close the database.
//
// PORT FALLBACK:
// The configured candidates are tried in order and the first port that
// binds wins. This mirrors how the client pages probe a small fixed range
// when the preferred port is occupied by another local service.
func (s *Server) Start() error {
	defer s.db.Close()

	listener, port, err := s.listen()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.Serve(listener)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// listen binds the first free candidate port.
func (s *Server) listen() (net.Listener, int, error) {
	for _, port := range s.config.Ports {
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			return listener, port, nil
		}
		s.logger.Warn("port unavailable, trying next",
			slog.Int("port", port),
			slog.String("error", err.Error()),
		)
	}
	return nil, 0, fmt.Errorf("no available port in %v", s.config.Ports)
}
