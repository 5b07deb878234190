package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ledgerflow/txncore/internal/api/handlers"
	"github.com/ledgerflow/txncore/internal/api/middleware"
	"github.com/ledgerflow/txncore/pkg/authtoken"
	"github.com/ledgerflow/txncore/pkg/logger"
)

// RegisterTransactionRoutes mounts the Transaction Service's endpoints:
// submit/get/list transactions (C7) and reversals (C8).
func RegisterTransactionRoutes(
	router *gin.Engine,
	txs *handlers.TransactionHandlers,
	healthH *handlers.HealthHandlers,
	validator *authtoken.Validator,
	log *logger.Logger,
) {
	router.GET("/health", healthH.Health)
	router.GET("/ready", healthH.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := router.Group("/")
	authed.Use(middleware.Authenticate(validator, log))
	{
		authed.POST("/transactions", txs.Submit)
		authed.GET("/transactions", txs.List)
		authed.GET("/transactions/:id", txs.GetByID)
		authed.POST("/transactions/:id/reversals", txs.Reverse)
	}
}
