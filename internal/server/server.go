// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: every repository, service and handler is
// wired here, and nowhere else.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/devfolio/internal/auth"
	"github.com/sakif/devfolio/internal/config"
	"github.com/sakif/devfolio/internal/handler"
	"github.com/sakif/devfolio/internal/middleware"
	sqliteRepo "github.com/sakif/devfolio/internal/repository/sqlite"
	"github.com/sakif/devfolio/internal/service"
)

// Server owns the router and the database connection.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New wires all layers on top of db and returns a server ready to Start.
// The server takes ownership of db and closes it on shutdown.
func New(cfg *config.Config, db *sqliteRepo.DB, tokens *auth.TokenService, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                          → database health
//	GET    /metrics                          → Prometheus scrape
//	GET    /auth/github/login                → redirect to GitHub
//	GET    /auth/github/callback             → OAuth callback, sets cookie
//	POST   /auth/logout                      → clears cookie
//	GET    /api/me                           [auth]
//	GET    /api/projects                     (optional auth)
//	GET    /api/projects/{id}                (optional auth)
//	POST   /api/projects                     [auth]
//	PUT    /api/projects/{id}                [auth]
//	DELETE /api/projects/{id}                [auth]
//	GET|POST|DELETE /api/projects/{id}/star  [auth]
//	...same for /api/snippets
//	GET    /api/users/{id}/profile           (public)
//	PUT    /api/profile                      [auth]
//	GET|POST|DELETE /api/users/{id}/follow   [auth]
//	GET    /api/notifications                [auth]
//	GET    /api/notifications/unread-count   [auth]
//	POST   /api/notifications/{id}/read      [auth]
//
// MIDDLEWARE ORDER MATTERS:
// RequestID must run before Logger so the id is in the log line, and
// Recoverer sits inside both so a panic is still logged and counted.
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)
	s.router.Use(chimiddleware.Recoverer)

	// === Services ===
	// s.db implements every repository interface.
	notifications := service.NewNotificationService(s.db, s.logger)
	social := service.NewSocialService(service.SocialDeps{
		Stars:    s.db,
		Follows:  s.db,
		Projects: s.db,
		Snippets: s.db,
		Users:    s.db,
		Notifier: notifications,
	}, s.logger)
	projects := service.NewProjectService(s.db, s.logger)
	snippets := service.NewSnippetService(s.db, s.logger)
	profiles := service.NewProfileService(s.db, s.db, s.logger)
	authService := service.NewAuthService(s.db, tokens, s.cfg.Auth.OwnerOpenID, s.logger)

	// === Handlers ===
	// Left as a nil interface when GitHub is not configured; the login
	// routes then answer 503.
	var provider handler.OAuthProvider
	if s.cfg.Auth.GitHubEnabled() {
		provider = auth.NewGitHubProvider(
			s.cfg.Auth.GitHubClientID,
			s.cfg.Auth.GitHubClientSecret,
			s.cfg.Auth.GitHubCallbackURL,
		)
	} else {
		s.logger.Warn("GitHub OAuth not configured; login is disabled")
	}

	authHandler := handler.NewAuthHandler(provider, authService, tokens.TTL(), s.cfg.Auth.SecureCookie, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	projectHandler := handler.NewProjectHandler(projects, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippets, s.logger)
	profileHandler := handler.NewProfileHandler(profiles, s.logger)
	socialHandler := handler.NewSocialHandler(social, s.logger)
	notificationHandler := handler.NewNotificationHandler(notifications, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		// Public reads: a valid cookie widens the view, a missing one does not fail.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/projects", projectHandler.HandleList)
			r.Get("/projects/{id}", projectHandler.HandleGetByID)
			r.Get("/snippets", snippetHandler.HandleList)
			r.Get("/snippets/{id}", snippetHandler.HandleGetByID)
			r.Get("/users/{id}/profile", profileHandler.HandleGet)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)
			r.Put("/profile", profileHandler.HandleUpdate)

			r.Post("/projects", projectHandler.HandleCreate)
			r.Put("/projects/{id}", projectHandler.HandleUpdate)
			r.Delete("/projects/{id}", projectHandler.HandleDelete)
			r.Get("/projects/{id}/star", socialHandler.HandleIsProjectStarred)
			r.Post("/projects/{id}/star", socialHandler.HandleStarProject)
			r.Delete("/projects/{id}/star", socialHandler.HandleUnstarProject)

			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
			r.Get("/snippets/{id}/star", socialHandler.HandleIsSnippetStarred)
			r.Post("/snippets/{id}/star", socialHandler.HandleStarSnippet)
			r.Delete("/snippets/{id}/star", socialHandler.HandleUnstarSnippet)

			r.Get("/users/{id}/follow", socialHandler.HandleIsFollowing)
			r.Post("/users/{id}/follow", socialHandler.HandleFollow)
			r.Delete("/users/{id}/follow", socialHandler.HandleUnfollow)

			r.Get("/notifications", notificationHandler.HandleList)
			r.Get("/notifications/unread-count", notificationHandler.HandleUnreadCount)
			r.Post("/notifications/{id}/read", notificationHandler.HandleMarkRead)
		})
	})
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to the configured shutdown timeout and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.cfg.Database.Path),
			slog.Bool("githubLogin", s.cfg.Auth.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
