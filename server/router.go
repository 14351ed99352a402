package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ebogdum/hotfs/auth"
	"github.com/ebogdum/hotfs/config"
	"github.com/ebogdum/hotfs/events"
	"github.com/ebogdum/hotfs/hotfolder"
	"github.com/ebogdum/hotfs/server/handlers"
	hotfsMiddleware "github.com/ebogdum/hotfs/server/middleware"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	resolver handlers.Resolver,
	manager *hotfolder.Manager,
	broadcaster *events.Broadcaster,
	authenticator auth.Authenticator,
	serverConfig *config.ServerConfig,
	logger *zap.Logger,
) chi.Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(hotfsMiddleware.V1RequestIDMiddleware())
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(hotfsMiddleware.V1SecurityHeaders())
	r.Use(hotfsMiddleware.V1MetricsMiddleware(logger))

	// Health check endpoint (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			logger.Error("Failed to write health check response", zap.Error(err))
		}
	})

	// Metrics endpoint (no auth required)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(hotfsMiddleware.V1AuthMiddleware(authenticator, logger))

		// Websocket streams are long lived and stay outside the timeout group
		r.Get("/events", handlers.V1HotfolderEvents(manager, broadcaster, logger))
		r.Get("/hotfolders/{id}/events", handlers.V1HotfolderEvents(manager, broadcaster, logger))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/list", handlers.V1List(resolver, logger))
			r.Get("/hotfolders", handlers.V1ListHotfolders(manager))
			r.Get("/hotfolders/{id}", handlers.V1GetHotfolder(manager, logger))

			limiter := rate.NewLimiter(rate.Limit(serverConfig.RateLimit), serverConfig.RateBurst)
			r.With(hotfsMiddleware.V1RateLimitMiddleware(limiter, logger)).
				Post("/hotfolders/{id}/release", handlers.V1ReleaseFile(manager, resolver, broadcaster, logger))
		})
	})

	logger.Info("HTTP router configured successfully")

	return r
}
