package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/emodiary/apiserver/config"
	"github.com/emodiary/apiserver/internal/app"
	"github.com/emodiary/apiserver/internal/handlers"
	"github.com/emodiary/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

const (
	authRequestsPerMinute = 20
	corsMaxAge            = 300
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	app        *app.App
}

// New builds the application and an HTTP server serving it.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	router := NewRouter(cfg, application.Services, application.Location, application.Logger)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		app:        application,
	}, nil
}

// NewRouter returns the API router with the standard middleware stack.
func NewRouter(cfg config.Config, svc *services.Services, loc *time.Location, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		cors.Handler(corsOptions(cfg.CORSOrigins)),
	)

	handlers.Mount(router, svc, handlers.RouteOptions{
		Location:       loc,
		InternalKey:    cfg.InternalAPIKey,
		AuthMiddleware: []func(http.Handler) http.Handler{httprate.LimitByIP(authRequestsPerMinute, time.Minute)},
		Logger:         logger,
	})
	return router
}

func corsOptions(origins []string) cors.Options {
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
		}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: allowCredentials,
		MaxAge:           corsMaxAge,
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// App exposes the wired application.
func (s *Server) App() *app.App {
	return s.app
}

// Start runs the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.app.Logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests, then releases the application's resources.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if closeErr := s.app.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
