package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"portfolio_api/internal/api"
	"portfolio_api/internal/api/middleware"
	"portfolio_api/internal/app/service"
	"portfolio_api/internal/app/worker"
	"portfolio_api/internal/common/security"
	"portfolio_api/internal/domain/repository"
	"portfolio_api/internal/platform/config"
	"portfolio_api/internal/platform/database"
	"portfolio_api/internal/platform/logger"
	"portfolio_api/internal/platform/queue"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New("portfolio-api", "info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New("portfolio-api", cfg.LogLevel)
	log.Info("configuration loaded", "env", cfg.AppEnv)

	ctx := context.Background()

	// 2. Initialize Database
	db, err := database.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close(db, log)

	if cfg.AutoMigrate {
		if err := database.NewMigrator(db, log).Up(ctx); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	// 3. Initialize Redis. Without it the API still serves requests, but
	// rate limiting and the audit trail are off.
	var (
		limiter    middleware.RateLimiter
		auditQueue *queue.AuditQueue
	)
	rdb, err := queue.Connect(ctx, cfg, log)
	if err != nil {
		log.Warn("redis unavailable, continuing without rate limiting and audit queue", "error", err)
	} else {
		defer queue.Close(rdb, log)
		limiter = middleware.NewRedisRateLimiter(rdb, log)
		auditQueue = queue.NewAuditQueue(rdb, cfg.AuditQueueName)
	}

	// 4. Initialize Repositories
	userRepo := repository.NewPgUserRepository(db)
	portfolioRepo := repository.NewPgPortfolioRepository(db)
	auditRepo := repository.NewPgAuditRepository(db)
	systemRepo := repository.NewPgSystemRepository(db)

	// 5. Initialize Services
	tokens := security.NewTokenManager(cfg.JWTKey, cfg.JWTExp)
	authService := service.NewAuthService(userRepo, tokens, log)
	userService := service.NewUserService(userRepo)
	portfolioService := service.NewPortfolioService(portfolioRepo, userRepo)
	var publisher service.AuditPublisher
	if auditQueue != nil {
		publisher = auditQueue
	}
	adminService := service.NewAdminService(db, userRepo, portfolioRepo, auditRepo, systemRepo, publisher, log, cfg.AppEnv)

	// 6. Initialize Audit Worker (as a goroutine)
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	var workers sync.WaitGroup
	if auditQueue != nil {
		auditWorker := worker.NewAuditWorker(auditQueue, auditRepo, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			auditWorker.Start(workerCtx)
		}()
	}

	// 7. Initialize Router & HTTP Server
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, cfg.DBName),
	)
	router := api.NewRouter(api.Deps{
		Config:           cfg,
		Log:              log,
		Registry:         registry,
		AuthService:      authService,
		UserService:      userService,
		PortfolioService: portfolioService,
		AdminService:     adminService,
		DB:               systemRepo,
		Limiter:          limiter,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		log.Error("server failed", "error", err)
	}

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	workerCancel()
	workers.Wait()
	log.Info("server and worker stopped gracefully")
}
