package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerflow/txncore/internal/domain/entities"
	"github.com/ledgerflow/txncore/internal/domain/repositories"
	"github.com/ledgerflow/txncore/internal/domain/services/orchestrator"
	"github.com/ledgerflow/txncore/internal/domain/services/reversal"
	"github.com/ledgerflow/txncore/pkg/logger"
	"github.com/ledgerflow/txncore/pkg/pagination"
)

// TransactionHandlers is the Transaction Service's surface: submit,
// look up, page, and reverse transactions (§4.7, §4.8).
type TransactionHandlers struct {
	orchestrator *orchestrator.Orchestrator
	reversal     *reversal.Coordinator
	txRepo       repositories.TransactionRepository
	logger       *logger.Logger
}

func NewTransactionHandlers(o *orchestrator.Orchestrator, r *reversal.Coordinator, txRepo repositories.TransactionRepository, logger *logger.Logger) *TransactionHandlers {
	return &TransactionHandlers{orchestrator: o, reversal: r, txRepo: txRepo, logger: logger}
}

type submitTransactionRequest struct {
	Type           entities.TransactionType `json:"type" binding:"required"`
	FromAccount    *string                  `json:"fromAccountId"`
	ToAccount      *string                  `json:"toAccountId"`
	Amount         decimal.Decimal          `json:"amount" binding:"required"`
	Description    *string                  `json:"description"`
	Reference      *string                  `json:"reference"`
	IdempotencyKey *string                  `json:"idempotencyKey" binding:"required"`
}

// Submit is the entry point of §4.7: validates shape, then hands the
// request to the orchestrator's state machine.
func (h *TransactionHandlers) Submit(c *gin.Context) {
	var req submitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	tx, err := h.orchestrator.Submit(c.Request.Context(), orchestrator.Request{
		Type:           req.Type,
		FromAccount:    req.FromAccount,
		ToAccount:      req.ToAccount,
		Amount:         req.Amount,
		Description:    req.Description,
		Reference:      req.Reference,
		IdempotencyKey: req.IdempotencyKey,
		Subject:        subject(c),
		Bearer:         bearer(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// GetByID returns a single transaction.
func (h *TransactionHandlers) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "id is not a valid UUID")
		return
	}
	tx, err := h.txRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// List pages transactions by account, type, and/or status (supplemented
// feature: offset pagination via pkg/pagination.LegacyPagination).
func (h *TransactionHandlers) List(c *gin.Context) {
	var filter repositories.TransactionFilter
	if accountID := c.Query("accountId"); accountID != "" {
		filter.AccountID = &accountID
	}
	if createdBy := c.Query("createdBy"); createdBy != "" {
		filter.CreatedBy = &createdBy
	}
	if t := c.Query("type"); t != "" {
		txType := entities.TransactionType(t)
		filter.Type = &txType
	}
	if s := c.Query("status"); s != "" {
		status := entities.TransactionStatus(s)
		filter.Status = &status
	}

	var page pagination.LegacyPagination
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, "invalid pagination parameters")
		return
	}
	_ = page.Validate()

	txs, pageInfo, err := h.txRepo.Page(c.Request.Context(), filter, page)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"pageInfo":     pageInfo,
	})
}

type reverseTransactionRequest struct {
	Reason         *string `json:"reason"`
	IdempotencyKey *string `json:"idempotencyKey" binding:"required"`
}

// Reverse is §4.8's entry point: reverse(originalTransactionId).
func (h *TransactionHandlers) Reverse(c *gin.Context) {
	originalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "id is not a valid UUID")
		return
	}

	var req reverseTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	tx, err := h.reversal.Reverse(c.Request.Context(), reversal.Request{
		OriginalTransactionID: originalID,
		Reason:                req.Reason,
		IdempotencyKey:        req.IdempotencyKey,
		Subject:               subject(c),
		Bearer:                bearer(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}
