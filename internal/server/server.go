// Package server wires configuration, the user store, the auth service and
// the HTTP handlers into a chi router, and runs it with graceful shutdown.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → openStore → repository.UserRepository
//	                          → service.AuthService (+ auth.TokenService, auth.PasswordService)
//	                          → handler.UsersHandler (+ auth.CookieTransport)
//
// Everything is assembled in New; nothing below this package constructs its
// own dependencies.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/session-auth/internal/auth"
	"github.com/sakif/session-auth/internal/config"
	"github.com/sakif/session-auth/internal/handler"
	"github.com/sakif/session-auth/internal/middleware"
	"github.com/sakif/session-auth/internal/repository"
	"github.com/sakif/session-auth/internal/repository/memory"
	"github.com/sakif/session-auth/internal/repository/postgres"
	sqliteRepo "github.com/sakif/session-auth/internal/repository/sqlite"
	"github.com/sakif/session-auth/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the store connection and closes it on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	users  repository.UserRepository
	close  func() error
}

// New validates cfg, opens the configured store and builds the router.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	users, closeStore, err := openStore(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.DB.Driver, err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		users:  users,
		close:  closeStore,
	}

	if err := s.setupRoutes(); err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// openStore returns the UserRepository selected by cfg.Driver and a function
// that releases it.
func openStore(ctx context.Context, cfg config.DBConfig) (repository.UserRepository, func() error, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			// MkdirAll is a no-op when the directory exists.
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return db.Users(), db.Close, nil

	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { store.Close(); return nil }, nil

	case config.DriverMemory:
		return memory.New(), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown driver %q", cfg.Driver)
}

// setupRoutes configures middleware and routes.
//
// ROUTE STRUCTURE:
// GET    /                → welcome message
// POST   /users/          → sign up
// POST   /users/signin    → sign in
// POST   /users/signout   → sign out (session optional)
// GET    /users/me/       → current user (session required)
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: the logger reads it
// 2. RealIP: client IP from proxy headers
// 3. Logger
// 4. Recoverer: a panic becomes a 500, which the logger then records
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	authCfg := s.config.Auth

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:     authCfg.SigningSecret,
		Algorithm:  authCfg.SigningAlgorithm,
		DefaultTTL: authCfg.DefaultTTL(),
	})
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	passwords, err := auth.NewPasswordService(authCfg.HashWorkFactor)
	if err != nil {
		return fmt.Errorf("creating password service: %w", err)
	}

	cookies := auth.NewCookieTransport(auth.CookieConfig{
		Name:   s.config.Cookie.Name,
		Domain: s.config.Cookie.Domain,
		Secure: s.config.Cookie.Secure,
	})

	authService := service.NewAuthService(s.users, tokens, passwords, authCfg.SessionTTL(), s.logger)
	usersHandler := handler.NewUsersHandler(authService, cookies, s.logger)

	s.router.Get("/", handler.HandleRoot)

	s.router.Route("/users", func(r chi.Router) {
		r.Post("/", usersHandler.HandleSignUp)
		r.Post("/signin", usersHandler.HandleSignIn)
		r.With(auth.OptionalSession(authService, cookies)).Post("/signout", usersHandler.HandleSignOut)
		r.With(auth.RequireSession(authService, cookies)).Get("/me/", usersHandler.HandleMe)
	})

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store.
func (s *Server) Close() error {
	return s.close()
}

// Start serves HTTP until SIGINT/SIGTERM or a listener error.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new connections
// 2. Wait up to 30s for in-flight requests
// 3. Close the store
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         s.config.App.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.App.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.App.Port)),
			slog.String("driver", s.config.DB.Driver),
		)
		serverErrors <- srv.ListenAndServe()
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
