package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType tags the single Account record (design note §9: field-level
// polymorphism over a subclass hierarchy).
type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeCredit   AccountType = "CREDIT"
)

// Account is owned and authored by the Account Service.
type Account struct {
	ID               string          `json:"id" db:"id"`
	OwnerID          string          `json:"ownerId" db:"owner_id"`
	AccountType      AccountType     `json:"accountType" db:"account_type"`
	Balance          decimal.Decimal `json:"balance" db:"balance"`
	Currency         string          `json:"currency" db:"currency"`
	Active           bool            `json:"active" db:"active"`
	CreditLimit      *decimal.Decimal `json:"creditLimit,omitempty" db:"credit_limit"`
	AvailableCredit  *decimal.Decimal `json:"availableCredit,omitempty" db:"available_credit"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
}

// CanGoNegativeBy reports whether debiting amount from the account is
// covered either by a non-negative post-debit balance, or — for a
// credit account — by available credit (design note §9: credit-specific
// fields live as data, not as dispatch).
func (a *Account) CanGoNegativeBy(amount decimal.Decimal) bool {
	resulting := a.Balance.Sub(amount)
	if !resulting.IsNegative() {
		return true
	}
	if a.AccountType != AccountTypeCredit || a.AvailableCredit == nil {
		return false
	}
	shortfall := resulting.Abs()
	return a.AvailableCredit.GreaterThanOrEqual(shortfall)
}
