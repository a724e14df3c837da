package api

import (
	"net/http"

	"github.com/communitycal/server/internal/api/handlers"
	"github.com/communitycal/server/internal/api/middleware"
	"github.com/communitycal/server/internal/audit"
	"github.com/communitycal/server/internal/auth"
	"github.com/communitycal/server/internal/config"
	"github.com/communitycal/server/internal/domain/events"
	"github.com/communitycal/server/internal/domain/users"
	"github.com/communitycal/server/internal/metrics"
	"github.com/communitycal/server/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter wires repositories, services, and handlers into the HTTP surface.
// The pool is owned by the caller; the router never closes it. The returned
// stop function releases router-owned background work (the rate limiter's
// eviction goroutine) and must be called on shutdown.
func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool, version string) (http.Handler, func(), error) {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, nil, err
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)

	usersService := users.NewService(repo.Users(), tokens, logger)
	eventsService := events.NewService(repo.Events(), repo.Users())

	authHandler := handlers.NewAuthHandler(usersService, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(eventsService, audit.NewLogger(logger), cfg.Environment)
	healthHandler := handlers.NewHealthHandler(pool, version)

	requireAuth := middleware.RequireAuth(tokens, cfg.Environment)
	optionalAuth := middleware.OptionalAuth(tokens)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	rateLimit := rateLimiter.Limit
	// Tier must be on the context before the limiter looks it up.
	loginLimited := func(h http.Handler) http.Handler {
		return middleware.WithRateLimitTier(middleware.TierLogin)(rateLimit(h))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", healthHandler.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{
		Registry: metrics.Registry,
	}))

	mux.Handle("POST /api/auth/register", loginLimited(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", loginLimited(http.HandlerFunc(authHandler.Login)))

	mux.Handle("GET /api/events", rateLimit(optionalAuth(http.HandlerFunc(eventsHandler.List))))
	mux.Handle("POST /api/events", rateLimit(requireAuth(http.HandlerFunc(eventsHandler.Create))))
	mux.Handle("PUT /api/events/{id}", rateLimit(requireAuth(http.HandlerFunc(eventsHandler.Update))))
	mux.Handle("DELETE /api/events/{id}", rateLimit(requireAuth(http.HandlerFunc(eventsHandler.Delete))))
	mux.Handle("POST /api/events/{id}/rsvp", rateLimit(requireAuth(http.HandlerFunc(eventsHandler.RSVP))))
	mux.Handle("POST /api/events/{id}/favorite", rateLimit(requireAuth(http.HandlerFunc(eventsHandler.Favorite))))

	var handler http.Handler = mux
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler, rateLimiter.Stop, nil
}
