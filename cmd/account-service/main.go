// Command account-service runs the Account Service: it owns account
// state and authenticates the balance mutations the Transaction
// Service's orchestrator (C7) drives through applyBalanceOp (C9).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ledgerflow/txncore/internal/api/handlers"
	"github.com/ledgerflow/txncore/internal/api/middleware"
	"github.com/ledgerflow/txncore/internal/api/routes"
	"github.com/ledgerflow/txncore/internal/domain/services/balanceledger"
	"github.com/ledgerflow/txncore/internal/domain/services/limits"
	"github.com/ledgerflow/txncore/internal/infrastructure/cache"
	"github.com/ledgerflow/txncore/internal/infrastructure/config"
	"github.com/ledgerflow/txncore/internal/infrastructure/database"
	infrarepos "github.com/ledgerflow/txncore/internal/infrastructure/repositories"
	"github.com/ledgerflow/txncore/pkg/authtoken"
	"github.com/ledgerflow/txncore/pkg/health"
	"github.com/ledgerflow/txncore/pkg/logger"
	"github.com/ledgerflow/txncore/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database.URL, "migrations/account-service"); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}

	redisCache, err := cache.NewCache(&cache.Config{
		Host: cfg.Redis.Host,
		Port: cfg.Redis.Port,
		DB:   cfg.Redis.DB,
	}, log.Zap())
	if err != nil {
		log.Fatal("failed to connect to redis", "error", err)
	}
	defer redisCache.Close()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	accountRepo := infrarepos.NewAccountRepository(db, log.Zap())
	balanceOpRepo := infrarepos.NewBalanceOperationRepository(db, log.Zap())
	limitRepo := infrarepos.NewLimitRepository(db, log.Zap())
	txRepo := infrarepos.NewTransactionRepository(db, log.Zap())

	ledgerSvc := balanceledger.New(db, accountRepo, balanceOpRepo, log.Zap())
	limitsSvc := limits.NewService(limitRepo, txRepo, redisCache, time.Duration(cfg.Limits.CacheTTLSeconds)*time.Second, log.Zap())

	validator := authtoken.New(cfg.JWT.Secret, cfg.JWT.Issuer)

	accountHandlers := handlers.NewAccountHandlers(accountRepo, ledgerSvc, log)
	limitHandlers := handlers.NewLimitHandlers(limitRepo, limitsSvc, log)

	healthChecker := health.NewHealthChecker(5 * time.Second)
	healthChecker.Register(health.NewDatabaseChecker(db, 3*time.Second))
	healthHandlers := handlers.NewHealthHandlers(healthChecker, "account-service")

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimit(cfg.Server.RateLimitPerMin))

	routes.RegisterAccountRoutes(router, accountHandlers, limitHandlers, healthHandlers, validator, log)

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("starting account-service", "port", cfg.Server.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down account-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", "error", err)
	}

	log.Info("account-service exited")
}
