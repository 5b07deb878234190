// Command transaction-service runs the Transaction Service: it owns
// the orchestration core (C1, C3, C5-C9) that drives transfers,
// deposits, withdrawals, and reversals against the Account Service.
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

	"github.com/ledgerflow/txncore/internal/adapters/accountclient"
	"github.com/ledgerflow/txncore/internal/api/handlers"
	"github.com/ledgerflow/txncore/internal/api/middleware"
	"github.com/ledgerflow/txncore/internal/api/routes"
	"github.com/ledgerflow/txncore/internal/domain/services/limits"
	"github.com/ledgerflow/txncore/internal/domain/services/orchestrator"
	"github.com/ledgerflow/txncore/internal/domain/services/reversal"
	"github.com/ledgerflow/txncore/internal/infrastructure/audit"
	"github.com/ledgerflow/txncore/internal/infrastructure/cache"
	"github.com/ledgerflow/txncore/internal/infrastructure/config"
	"github.com/ledgerflow/txncore/internal/infrastructure/database"
	infrarepos "github.com/ledgerflow/txncore/internal/infrastructure/repositories"
	"github.com/ledgerflow/txncore/internal/workers/sweeper"
	"github.com/ledgerflow/txncore/pkg/authtoken"
	"github.com/ledgerflow/txncore/pkg/health"
	"github.com/ledgerflow/txncore/pkg/logger"
	"github.com/ledgerflow/txncore/pkg/resilience"
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

	if err := database.RunMigrations(cfg.Database.URL, "migrations/transaction-service"); err != nil {
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

	txRepo := infrarepos.NewTransactionRepository(db, log.Zap())
	limitRepo := infrarepos.NewLimitRepository(db, log.Zap())
	limitsSvc := limits.NewService(limitRepo, txRepo, redisCache, time.Duration(cfg.Limits.CacheTTLSeconds)*time.Second, log.Zap())

	rawAccountClient := accountclient.NewClient(accountclient.Config{
		BaseURL: cfg.AccountService.BaseURL,
		Timeout: time.Duration(cfg.AccountService.Timeout) * time.Second,
	})
	resilienceCfg := resilience.Config{
		Deadline: time.Duration(cfg.AccountService.Timeout) * time.Second,
		RetryPolicy: resilience.DefaultConfig().RetryPolicy,
		Breaker:     resilience.DefaultConfig().Breaker,
	}
	if cfg.Resilience.Retry.MaxAttempts > 0 {
		resilienceCfg.RetryPolicy.MaxRetries = cfg.Resilience.Retry.MaxAttempts
	}
	if cfg.Resilience.Retry.WaitSeconds > 0 {
		resilienceCfg.RetryPolicy.InitialBackoff = time.Duration(cfg.Resilience.Retry.WaitSeconds) * time.Second
	}
	accountClient := accountclient.NewResilientClient(rawAccountClient, resilienceCfg, log.Zap())

	serviceBearer, err := validatorForSystem(cfg)
	if err != nil {
		log.Fatal("failed to mint system bearer token", "error", err)
	}

	auditLogger := audit.NewLogger(db, log.Zap())
	orch := orchestrator.New(txRepo, accountClient, limitsSvc, log.Zap()).WithAuditRecorder(auditLogger)
	reversalCoordinator := reversal.New(db, txRepo, orch, log.Zap())

	sweeperCfg := sweeper.DefaultConfig()
	crashSweeper := sweeper.New(txRepo, orch, sweeperCfg, serviceBearer, log.Zap())
	if err := crashSweeper.Start(); err != nil {
		log.Fatal("failed to start transaction sweeper", "error", err)
	}

	validator := authtoken.New(cfg.JWT.Secret, cfg.JWT.Issuer)

	txHandlers := handlers.NewTransactionHandlers(orch, reversalCoordinator, txRepo, log)

	healthChecker := health.NewHealthChecker(5 * time.Second)
	healthChecker.Register(health.NewDatabaseChecker(db, 3*time.Second))
	healthHandlers := handlers.NewHealthHandlers(healthChecker, "transaction-service")

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimit(cfg.Server.RateLimitPerMin))

	routes.RegisterTransactionRoutes(router, txHandlers, healthHandlers, validator, log)

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("starting transaction-service", "port", cfg.Server.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down transaction-service...")

	if err := crashSweeper.Stop(); err != nil {
		log.Warn("error stopping sweeper", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", "error", err)
	}

	log.Info("transaction-service exited")
}

// validatorForSystem mints the bearer token the sweeper forwards to
// the Account Service when replaying a stuck transaction as the
// system principal, not the original caller.
func validatorForSystem(cfg *config.Config) (string, error) {
	v := authtoken.New(cfg.JWT.Secret, cfg.JWT.Issuer)
	token, err := v.Issue("system:sweeper", []string{"service"}, 365*24*time.Hour)
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}
