package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/pocketfin/pocketfin/internal/model"
	"github.com/pocketfin/pocketfin/internal/store"
)

// BudgetTracker owns the single active budget and derives spending status
// against a caller-supplied transaction set. It carries no calendar logic:
// scoping the set to "this month" is the caller's job.
type BudgetTracker struct {
	store  store.Store
	logger *logrus.Entry
}

// NewBudgetTracker creates a tracker backed by the given store.
func NewBudgetTracker(s store.Store, logger *logrus.Logger) *BudgetTracker {
	return &BudgetTracker{
		store:  s,
		logger: logger.WithField("component", "budget"),
	}
}

// SaveBudget validates and persists the budget, replacing any prior value.
func (bt *BudgetTracker) SaveBudget(ctx context.Context, b *model.Budget) error {
	validated, err := model.NewBudget(b.Amount)
	if err != nil {
		return err
	}
	if err := bt.store.SaveBudget(ctx, validated); err != nil {
		return err
	}
	bt.logger.WithField("amount", validated.Amount.String()).Info("budget saved")
	return nil
}

// LoadBudget returns the active budget. A store.ErrBudgetNotConfigured result
// is a normal state for a fresh installation.
func (bt *BudgetTracker) LoadBudget(ctx context.Context) (*model.Budget, error) {
	return bt.store.LoadBudget(ctx)
}

// SpendingStatus sums the expenditures in the given set against the active
// budget. With no budget configured the not-configured error propagates
// instead of computing. A zero budget yields a zero percentage.
func (bt *BudgetTracker) SpendingStatus(ctx context.Context, transactions []*model.Transaction) (*model.SpendingStatus, error) {
	budget, err := bt.store.LoadBudget(ctx)
	if err != nil {
		return nil, err
	}

	spending := decimal.Zero
	for _, t := range transactions {
		if t.Type == model.TypeExpenditure {
			spending = spending.Add(t.Amount)
		}
	}

	percentage := 0.0
	if budget.Amount.IsPositive() {
		percentage = spending.Div(budget.Amount).InexactFloat64()
	}

	return &model.SpendingStatus{
		CurrentSpending: spending,
		TotalBudget:     budget.Amount,
		Percentage:      percentage,
	}, nil
}
