package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/pocketfin/pocketfin/internal/model"
	"github.com/pocketfin/pocketfin/internal/store"
)

// DeleteResult carries the outcome of a single-instance deletion. Deletion is
// commonly triggered from a UI action that must stay responsive, so failures
// travel in the result instead of crossing the boundary as raised errors.
type DeleteResult struct {
	Deleted bool
	Message string
	Err     error
}

// CoreService is the facade the presentation layer talks to. It composes the
// transaction store, budget tracker, prediction engine and tag manager behind
// one API surface; the components never call each other directly.
type CoreService struct {
	store     store.Store
	budget    *BudgetTracker
	predictor *Predictor
	tags      *TagManager
	logger    *logrus.Entry
}

// NewCoreService wires the core together on top of the given store.
func NewCoreService(s store.Store, predictorCfg PredictorConfig, logger *logrus.Logger) *CoreService {
	return &CoreService{
		store:     s,
		budget:    NewBudgetTracker(s, logger),
		predictor: NewPredictor(predictorCfg, logger),
		tags:      NewTagManager(s, logger),
		logger:    logger.WithField("component", "core"),
	}
}

// RecordTransaction validates and persists a new transaction. A recurring
// frequency materializes the whole series at save time.
func (c *CoreService) RecordTransaction(ctx context.Context, date time.Time, txType model.TransactionType,
	frequency model.TransactionFrequency, tags []model.Tag, amount decimal.Decimal,
	description string, photo []byte, location *model.Location) (*model.Transaction, error) {

	t, err := model.NewTransaction(date, txType, frequency, tags, amount, description, photo, location)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"id":     t.ID,
		"date":   t.Date,
		"type":   t.Type,
		"nature": t.Frequency.Nature,
		"amount": t.Amount.String(),
	}).Info("recording transaction")

	if err := c.store.SaveTransaction(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// EditTransaction re-validates every field of an edited transaction and
// persists it. On failure the stored state is left untouched.
func (c *CoreService) EditTransaction(ctx context.Context, t *model.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := c.store.UpdateTransaction(ctx, t); err != nil {
		return err
	}
	c.logger.WithField("id", t.ID).Info("transaction edited")
	return nil
}

// LoadTransactions returns the month's transactions ordered by date
// ascending. Month and year are validated before any date arithmetic; the
// range spans the first instant of the month through its last second,
// honoring month length and leap years.
func (c *CoreService) LoadTransactions(ctx context.Context, month, year int) ([]*model.Transaction, error) {
	if month < 1 || month > 12 {
		return nil, &InvalidArgumentError{Message: "month should be an integer ranging from 1 to 12"}
	}
	if year < 0 || year > 9999 {
		return nil, &InvalidArgumentError{Message: "year should be an integer ranging from 0 to 9999"}
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	if !end.After(start) {
		return nil, &InitializationError{Message: fmt.Sprintf("computed range for %d-%02d is inverted", year, month)}
	}

	c.logger.WithFields(logrus.Fields{"month": month, "year": year}).Debug("loading transactions")
	return c.store.ListTransactions(ctx, start, end)
}

// DeleteSingle removes exactly one instance and reports the outcome in the
// result; it never raises.
func (c *CoreService) DeleteSingle(ctx context.Context, t *model.Transaction) DeleteResult {
	if err := c.store.DeleteTransaction(ctx, t.ID); err != nil {
		c.logger.WithError(err).WithField("id", t.ID).Warn("single deletion failed")
		return DeleteResult{
			Message: fmt.Sprintf("unable to delete transaction %q: %v", t.Description, err),
			Err:     err,
		}
	}
	return DeleteResult{Deleted: true, Message: "transaction deleted"}
}

// DeleteSeries removes every instance generated from the same recurrence rule
// as t. A one-time transaction is diverted to single-instance deletion.
func (c *CoreService) DeleteSeries(ctx context.Context, t *model.Transaction) error {
	if !t.Frequency.IsRecurring() || t.SeriesID == "" {
		if res := c.DeleteSingle(ctx, t); res.Err != nil {
			return res.Err
		}
		return nil
	}
	return c.store.DeleteSeries(ctx, t.SeriesID)
}

// TotalTransactionsRecorded returns the number of stored transactions.
func (c *CoreService) TotalTransactionsRecorded(ctx context.Context) (int, error) {
	return c.store.CountTransactions(ctx)
}

// ClearAllTransactions wipes the transaction store.
func (c *CoreService) ClearAllTransactions(ctx context.Context) error {
	return c.store.ClearTransactions(ctx)
}

// SaveBudget replaces the active budget.
func (c *CoreService) SaveBudget(ctx context.Context, b *model.Budget) error {
	return c.budget.SaveBudget(ctx, b)
}

// LoadBudget returns the active budget or store.ErrBudgetNotConfigured.
func (c *CoreService) LoadBudget(ctx context.Context) (*model.Budget, error) {
	return c.budget.LoadBudget(ctx)
}

// GetSpendingStatus derives spending against the active budget from the
// caller-supplied transaction set.
func (c *CoreService) GetSpendingStatus(ctx context.Context, transactions []*model.Transaction) (*model.SpendingStatus, error) {
	return c.budget.SpendingStatus(ctx, transactions)
}

// GetPrediction suggests an amount and tags for a transaction being entered
// at the given time and place. A nil result means no prediction.
func (c *CoreService) GetPrediction(ctx context.Context, at time.Time, location model.Location,
	transactions []*model.Transaction) *model.Prediction {
	return c.predictor.Predict(at, location, transactions)
}

// AllTags returns the tag hierarchy as parent name to sorted children.
func (c *CoreService) AllTags(ctx context.Context) (map[string][]model.Tag, error) {
	return c.tags.AllTags(ctx)
}

// AddParentTag registers a new top-level tag.
func (c *CoreService) AddParentTag(ctx context.Context, name string) (model.Tag, error) {
	return c.tags.AddParentTag(ctx, name)
}

// AddChildTag registers a new tag under an existing parent.
func (c *CoreService) AddChildTag(ctx context.Context, parent, name string) (model.Tag, error) {
	return c.tags.AddChildTag(ctx, parent, name)
}

// RemoveTag deletes a tag and, for a parent, its children.
func (c *CoreService) RemoveTag(ctx context.Context, name string) error {
	return c.tags.RemoveTag(ctx, name)
}
