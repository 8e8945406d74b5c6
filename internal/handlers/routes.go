package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/emodiary/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// RouteOptions configures Mount.
type RouteOptions struct {
	// Location decides which calendar day a timestamp in a query belongs to.
	Location *time.Location
	// InternalKey guards /internal. The routes are not mounted when it is empty.
	InternalKey string
	// AuthMiddleware wraps /auth, typically with a rate limiter.
	AuthMiddleware []func(http.Handler) http.Handler
	Logger         *slog.Logger
}

// Mount registers every API route on r.
func Mount(r chi.Router, svc *services.Services, opts RouteOptions) {
	requireAuth := RequireAuth(svc.Access)

	r.Get("/healthz", Healthz)
	r.Route("/auth", func(r chi.Router) {
		r.Use(opts.AuthMiddleware...)
		AuthRouter(r, svc.Users, svc.Access, opts.Logger)
	})
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Route("/profile", func(r chi.Router) {
			ProfileRouter(r, svc.Users, opts.Logger)
		})
		r.Route("/diary", func(r chi.Router) {
			DiaryRouter(r, svc.Entries, svc.Exports, opts.Location, opts.Logger)
		})
		r.Route("/analytics", func(r chi.Router) {
			AnalyticsRouter(r, svc.Analytics, opts.Location, opts.Logger)
		})
		r.Route("/therapist", func(r chi.Router) {
			TherapistRouter(r, svc.Links, opts.Logger)
		})
		r.Route("/notifications", func(r chi.Router) {
			NotificationRouter(r, svc.Notifications, opts.Logger)
		})
	})
	if opts.InternalKey != "" {
		r.Route("/internal", func(r chi.Router) {
			InternalRouter(r, opts.InternalKey, svc.Notifications, svc.Links, opts.Logger)
		})
	}
}
