package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"portfolio_api/internal/api/handler"
	"portfolio_api/internal/api/middleware"
	"portfolio_api/internal/app/service"
	"portfolio_api/internal/common"
	"portfolio_api/internal/common/security"
	"portfolio_api/internal/platform/config"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Config   *config.Config
	Log      *slog.Logger
	Registry *prometheus.Registry

	AuthService      *service.AuthService
	UserService      *service.UserService
	PortfolioService *service.PortfolioService
	AdminService     *service.AdminService

	DB      Pinger
	Limiter middleware.RateLimiter // nil disables rate limiting
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	responder := common.Responder{Log: log, ExposeErrors: !cfg.IsProduction()}
	gate := middleware.NewAuthGate(d.AuthService, log, responder.ExposeErrors, reg)
	metrics := middleware.NewMetrics(reg)
	var limits *middleware.RateLimit
	if d.Limiter != nil {
		limits = middleware.NewRateLimit(d.Limiter, cfg.RateLimitWindow, reg)
	}

	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Instrument)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", security.AuthTokenHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	health := healthHandler(d.DB, cfg.AppEnv)
	r.Get("/health", health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(limits.Limit("global", cfg.RateLimitGlobal))

		api.Get("/health", health)

		authHandler := handler.NewAuthHandler(d.AuthService, responder, handler.Environment{
			AppEnv:       cfg.AppEnv,
			HasJWTSecret: len(cfg.JWTKey) > 0,
			HasDatabase:  d.DB != nil,
		})
		api.Route("/auth", func(ar chi.Router) {
			authHandler.RegisterRoutes(ar, gate, limits.Limit("auth", cfg.RateLimitAuth))
		})

		userHandler := handler.NewUserHandler(d.UserService, d.AdminService, responder)
		api.Route("/users", func(ur chi.Router) {
			userHandler.RegisterRoutes(ur, gate)
		})

		portfolioHandler := handler.NewPortfolioHandler(d.PortfolioService, responder)
		api.Route("/portfolio", func(pr chi.Router) {
			portfolioHandler.RegisterRoutes(pr, gate)
		})

		adminHandler := handler.NewAdminHandler(d.AdminService, responder)
		api.Route("/admin", func(adr chi.Router) {
			adminHandler.RegisterRoutes(adr, gate)
		})
	})

	return r
}

func healthHandler(db Pinger, appEnv string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "unconfigured"
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				common.RespondWithJSON(w, http.StatusServiceUnavailable, common.ErrorResponse{
					Success: false,
					Message: "Database unavailable",
				})
				return
			}
			status = "connected"
		}
		common.RespondWithSuccess(w, http.StatusOK, "OK", common.Envelope{
			"database":    status,
			"environment": appEnv,
			"timestamp":   time.Now().UTC(),
		})
	}
}
