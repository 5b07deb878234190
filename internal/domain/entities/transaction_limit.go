package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionLimit is administratively configured, keyed by
// (account-type, transaction-type). Nil pointers disable their check
// (spec §3 "Nulls on any column disable that particular check").
type TransactionLimit struct {
	AccountType  string          `json:"accountType" db:"account_type"`
	Type         TransactionType `json:"type" db:"type"`
	PerTxLimit   *decimal.Decimal `json:"perTxLimit,omitempty" db:"per_tx_limit"`
	DailyLimit   *decimal.Decimal `json:"dailyLimit,omitempty" db:"daily_limit"`
	MonthlyLimit *decimal.Decimal `json:"monthlyLimit,omitempty" db:"monthly_limit"`
	DailyCount   *int             `json:"dailyCount,omitempty" db:"daily_count"`
	MonthlyCount *int             `json:"monthlyCount,omitempty" db:"monthly_count"`
	Active       bool             `json:"active" db:"active"`
	CreatedAt    time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time        `json:"updatedAt" db:"updated_at"`
}

// UsageWindow is the aggregation window C3's aggregateUsage operates over.
type UsageWindow string

const (
	UsageWindowDay   UsageWindow = "DAY"
	UsageWindowMonth UsageWindow = "MONTH"
)

// UsageAggregate is the (sum, count) pair aggregateUsage returns.
type UsageAggregate struct {
	SumAmount decimal.Decimal
	Count     int
}
