package model

import "github.com/shopspring/decimal"

// Budget is the single monetary ceiling for the current month. Exactly one
// budget is active at a time; saving a new one replaces the prior value.
type Budget struct {
	Amount decimal.Decimal
}

// NewBudget validates the ceiling amount.
func NewBudget(amount decimal.Decimal) (*Budget, error) {
	if amount.IsNegative() {
		return nil, newValidationError("budget", "amount must not be negative")
	}
	return &Budget{Amount: amount}, nil
}

// SpendingStatus is derived on demand and never persisted.
type SpendingStatus struct {
	CurrentSpending decimal.Decimal
	TotalBudget     decimal.Decimal
	Percentage      float64
}
