package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ledgerflow/txncore/internal/domain/repositories"
	"github.com/ledgerflow/txncore/internal/domain/services/balanceledger"
	"github.com/ledgerflow/txncore/pkg/logger"
)

// AccountHandlers serves the Account Service's own surface: account
// lookup and the applyBalanceOp endpoint C4 calls (§4.4, §4.9).
type AccountHandlers struct {
	accounts repositories.AccountRepository
	ledger   *balanceledger.Service
	logger   *logger.Logger
}

func NewAccountHandlers(accounts repositories.AccountRepository, ledger *balanceledger.Service, logger *logger.Logger) *AccountHandlers {
	return &AccountHandlers{accounts: accounts, ledger: ledger, logger: logger}
}

// GetAccount is the getAccount(id) C4 calls.
func (h *AccountHandlers) GetAccount(c *gin.Context) {
	id := c.Param("id")
	account, err := h.accounts.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// applyBalanceOpRequest mirrors accountclient.BalanceOp on the wire.
type applyBalanceOpRequest struct {
	OperationID   string          `json:"operationId" binding:"required"`
	TransactionID string          `json:"transactionId" binding:"required"`
	Delta         decimal.Decimal `json:"delta"`
	Reason        string          `json:"reason"`
	AllowNegative bool            `json:"allowNegative"`
}

// ApplyBalanceOp is applyBalanceOp(accountId, op) (§4.9): idempotent by
// (accountId, operationId), delegated straight to the balance-op ledger.
func (h *AccountHandlers) ApplyBalanceOp(c *gin.Context) {
	accountID := c.Param("id")

	var req applyBalanceOpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Delta.IsZero() {
		badRequest(c, "delta must be non-zero")
		return
	}

	result, err := h.ledger.Apply(c.Request.Context(), accountID, balanceledger.Op{
		OperationID:   req.OperationID,
		TransactionID: req.TransactionID,
		Delta:         req.Delta,
		Reason:        req.Reason,
		AllowNegative: req.AllowNegative,
	})
	if result == nil {
		writeError(c, err)
		return
	}

	// A rejected op (insufficient funds) still returns 200 with its
	// own status — the ledger call itself succeeded, the money didn't move.
	c.JSON(http.StatusOK, gin.H{
		"applied":          result.Applied,
		"status":           result.Status,
		"resultingBalance": result.ResultingBalance,
	})
}

// setBalanceRequest is the administrative absolute-set body.
type setBalanceRequest struct {
	Balance decimal.Decimal `json:"balance" binding:"required"`
}

// SetBalance is the Open-Questions-resolved PUT /accounts/{id}/balance:
// an admin-only absolute assignment that bypasses C9 entirely (DESIGN.md).
func (h *AccountHandlers) SetBalance(c *gin.Context) {
	id := c.Param("id")

	var req setBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.accounts.UpdateBalance(c.Request.Context(), id, req.Balance); err != nil {
		writeError(c, err)
		return
	}

	h.logger.Warnw("administrative absolute balance set",
		"account_id", id, "new_balance", req.Balance.String(), "actor", subject(c))

	account, err := h.accounts.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}
