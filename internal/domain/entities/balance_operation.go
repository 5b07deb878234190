package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceOpStatus is the outcome recorded for a balance operation row.
type BalanceOpStatus string

const (
	BalanceOpStatusApplied  BalanceOpStatus = "APPLIED"
	BalanceOpStatusRejected BalanceOpStatus = "REJECTED"
	BalanceOpStatusReplayed BalanceOpStatus = "REPLAYED"
)

// BalanceOperation is the ledger row owned by C9 (Balance-Op Ledger,
// Account side). Primary key (AccountID, OperationID); write-once.
type BalanceOperation struct {
	AccountID        string          `json:"accountId" db:"account_id"`
	OperationID      string          `json:"operationId" db:"operation_id"`
	TransactionID    string          `json:"transactionId" db:"transaction_id"`
	Delta            decimal.Decimal `json:"delta" db:"delta"`
	Reason           string          `json:"reason" db:"reason"`
	AllowNegative    bool            `json:"allowNegative" db:"allow_negative"`
	Applied          bool            `json:"applied" db:"applied"`
	ResultingBalance decimal.Decimal `json:"resultingBalance" db:"resulting_balance"`
	Status           BalanceOpStatus `json:"status" db:"status"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
}
