package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ledgerflow/txncore/internal/domain/entities"
	"github.com/ledgerflow/txncore/internal/domain/repositories"
	"github.com/ledgerflow/txncore/internal/domain/services/limits"
	"github.com/ledgerflow/txncore/pkg/logger"
)

// LimitHandlers is the administrative CRUD surface over C2's
// TransactionLimit rows (§4.2 "mutated by administrative tools").
type LimitHandlers struct {
	limitRepo repositories.LimitRepository
	limits    *limits.Service
	logger    *logger.Logger
}

func NewLimitHandlers(limitRepo repositories.LimitRepository, limitsSvc *limits.Service, logger *logger.Logger) *LimitHandlers {
	return &LimitHandlers{limitRepo: limitRepo, limits: limitsSvc, logger: logger}
}

// GetLimit returns the configured limit for ?accountType=&type=.
func (h *LimitHandlers) GetLimit(c *gin.Context) {
	accountType := c.Query("accountType")
	txType := entities.TransactionType(c.Query("type"))
	if accountType == "" || !txType.IsValid() {
		badRequest(c, "accountType and a valid type query parameter are required")
		return
	}

	limit, err := h.limitRepo.FindActive(c.Request.Context(), accountType, txType)
	if err != nil {
		writeError(c, err)
		return
	}
	if limit == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no limit configured for this account/transaction type", RequestID: c.GetString("request_id")})
		return
	}
	c.JSON(http.StatusOK, limit)
}

type upsertLimitRequest struct {
	AccountType  string                 `json:"accountType" binding:"required"`
	Type         entities.TransactionType `json:"type" binding:"required"`
	PerTxLimit   *decimal.Decimal       `json:"perTxLimit"`
	DailyLimit   *decimal.Decimal       `json:"dailyLimit"`
	MonthlyLimit *decimal.Decimal       `json:"monthlyLimit"`
	DailyCount   *int                   `json:"dailyCount"`
	MonthlyCount *int                   `json:"monthlyCount"`
	Active       bool                   `json:"active"`
}

// UpsertLimit creates or replaces a limit row and invalidates C2's
// cached lookup for that (accountType, type) pair immediately.
func (h *LimitHandlers) UpsertLimit(c *gin.Context) {
	var req upsertLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if !req.Type.IsValid() {
		badRequest(c, "type is not a recognized transaction type")
		return
	}

	limit := &entities.TransactionLimit{
		AccountType:  req.AccountType,
		Type:         req.Type,
		PerTxLimit:   req.PerTxLimit,
		DailyLimit:   req.DailyLimit,
		MonthlyLimit: req.MonthlyLimit,
		DailyCount:   req.DailyCount,
		MonthlyCount: req.MonthlyCount,
		Active:       req.Active,
	}

	if err := h.limitRepo.Upsert(c.Request.Context(), limit); err != nil {
		writeError(c, err)
		return
	}
	if err := h.limits.Invalidate(c.Request.Context(), req.AccountType, req.Type); err != nil {
		h.logger.Warnw("failed to invalidate limit cache after admin mutation",
			"account_type", req.AccountType, "type", req.Type, "error", err.Error())
	}

	h.logger.Infow("transaction limit updated", "account_type", req.AccountType, "type", req.Type, "actor", subject(c))
	c.JSON(http.StatusOK, limit)
}
