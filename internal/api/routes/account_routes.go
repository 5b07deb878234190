// Package routes wires handlers onto gin route groups for both
// service binaries.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ledgerflow/txncore/internal/api/handlers"
	"github.com/ledgerflow/txncore/internal/api/middleware"
	"github.com/ledgerflow/txncore/pkg/authtoken"
	"github.com/ledgerflow/txncore/pkg/logger"
)

// RegisterAccountRoutes mounts the Account Service's endpoints: account
// lookup, applyBalanceOp (C9), the admin limit CRUD surface (C2), and
// health/metrics.
func RegisterAccountRoutes(
	router *gin.Engine,
	accounts *handlers.AccountHandlers,
	limitsH *handlers.LimitHandlers,
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
		authed.GET("/accounts/:id", accounts.GetAccount)
		authed.POST("/accounts/:id/balance-ops", accounts.ApplyBalanceOp)

		admin := authed.Group("/admin")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.PUT("/accounts/:id/balance", accounts.SetBalance)
			admin.GET("/limits", limitsH.GetLimit)
			admin.PUT("/limits", limitsH.UpsertLimit)
		}
	}
}
