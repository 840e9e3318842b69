// Package server wires the application together: dependencies, routes, and
// the HTTP server lifecycle. main stays minimal; this is the composition
// root where every dependency is constructed and injected.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/TomatoBigBig/remix-jokes/internal/auth"
	"github.com/TomatoBigBig/remix-jokes/internal/config"
	"github.com/TomatoBigBig/remix-jokes/internal/handler"
	"github.com/TomatoBigBig/remix-jokes/internal/middleware"
	sqliteRepo "github.com/TomatoBigBig/remix-jokes/internal/repository/sqlite"
	"github.com/TomatoBigBig/remix-jokes/internal/service"
	"github.com/TomatoBigBig/remix-jokes/internal/session"
)

// Server owns the router and the database handle. The DB is closed during
// graceful shutdown so the WAL is flushed and the file lock released.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency graph:
//
//	sqlite.DB → UserStore/JokeStore → IdentityService / JokeService → handlers → routes
//	session.Codec → IdentityService + Guard
//
// Construction fails fatally on a missing session secret (the codec refuses
// to exist without one) or an unopenable database.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
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

// setupRoutes constructs the services and handlers and binds the route table:
//
//	GET  /             home page
//	GET  /jokes        joke list + random joke
//	GET  /jokes/new    submission form (401 page when anonymous)
//	POST /jokes        create joke (login redirect when anonymous)
//	GET  /jokes/{id}   single joke
//	POST /jokes/{id}   delete via _method=delete
//	GET  /login        login/register form
//	POST /login        login or register
//	POST /logout       end session
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	sessions, err := session.New(session.Config{
		Secrets: s.config.SessionSecrets,
		Secure:  s.config.SecureCookies,
	})
	if err != nil {
		return fmt.Errorf("creating session codec: %w", err)
	}

	renderer, err := handler.NewRenderer(s.config.TemplateDir, s.logger)
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	passwords := auth.NewPasswordService()
	guard := auth.NewGuard(sessions)
	users := s.db.Users()
	identity := service.NewIdentityService(users, passwords, sessions, s.logger)
	jokes := service.NewJokeService(s.db.Jokes(), s.logger)

	authHandler := handler.NewAuthHandler(identity, users, renderer, s.logger)
	jokeHandler := handler.NewJokeHandler(jokes, identity, guard, renderer, s.logger)

	s.router.Get("/", jokeHandler.HandleHome)
	s.router.Get("/jokes", jokeHandler.HandleJokes)
	s.router.Get("/jokes/new", jokeHandler.HandleNewJokePage)
	s.router.Post("/jokes", jokeHandler.HandleCreateJoke)
	s.router.Get("/jokes/{id}", jokeHandler.HandleJoke)
	s.router.Post("/jokes/{id}", jokeHandler.HandleDeleteJoke)
	s.router.Get("/login", authHandler.HandleLoginPage)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Post("/logout", authHandler.HandleLogout)

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
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
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
