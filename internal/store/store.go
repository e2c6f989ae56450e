package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pocketfin/pocketfin/internal/model"
)

// ErrBudgetNotConfigured is returned by LoadBudget before any budget has been
// saved. It marks an expected state, not a failure: callers branch on it to
// prompt initial budget setup.
var ErrBudgetNotConfigured = errors.New("budget not configured")

// StorageErrorCode classifies persistence failures.
type StorageErrorCode string

const (
	ErrCodeIO            StorageErrorCode = "IO"
	ErrCodeDuplicateID   StorageErrorCode = "DUPLICATE_ID"
	ErrCodeNotFound      StorageErrorCode = "NOT_FOUND"
	ErrCodePartialDelete StorageErrorCode = "PARTIAL_DELETE"
)

// StorageError is a structured error for persistence failures.
type StorageError struct {
	Code    StorageErrorCode
	Message string
	Cause   error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err is a NOT_FOUND storage error.
func IsNotFound(err error) bool {
	var serr *StorageError
	return errors.As(err, &serr) && serr.Code == ErrCodeNotFound
}

// Store defines the persistence operations used by the core. Validation of
// entities happens before a call ever reaches a Store; implementations only
// deal with well-formed values.
type Store interface {
	// SaveTransaction persists the transaction. A recurring transaction is
	// expanded into its full series up front; either every instance becomes
	// visible to subsequent reads or none do.
	SaveTransaction(ctx context.Context, t *model.Transaction) error

	// UpdateTransaction replaces a stored transaction after an edit.
	UpdateTransaction(ctx context.Context, t *model.Transaction) error

	// ListTransactions returns every transaction whose date falls within the
	// closed interval [start, end], ordered by date ascending.
	ListTransactions(ctx context.Context, start, end time.Time) ([]*model.Transaction, error)

	// DeleteTransaction removes exactly one instance by identifier.
	DeleteTransaction(ctx context.Context, id string) error

	// DeleteSeries removes every instance sharing the series identifier as a
	// single logical unit.
	DeleteSeries(ctx context.Context, seriesID string) error

	CountTransactions(ctx context.Context) (int, error)

	// ClearTransactions wipes every transaction; it fully succeeds or reports
	// a storage error without a partial clear.
	ClearTransactions(ctx context.Context) error

	// SaveBudget replaces the active budget.
	SaveBudget(ctx context.Context, b *model.Budget) error

	// LoadBudget returns the active budget or ErrBudgetNotConfigured.
	LoadBudget(ctx context.Context) (*model.Budget, error)

	SaveTag(ctx context.Context, tag model.Tag) error
	ListTags(ctx context.Context) ([]model.Tag, error)

	// DeleteTag removes the named tag and, in the same atomic unit, any tags
	// registered under it as children. NOT_FOUND when the name is absent.
	DeleteTag(ctx context.Context, name string) error
}

// expandSeries materializes every instance of a transaction's recurrence rule.
// A one-time transaction expands to itself. For a recurring transaction the
// given value becomes the first instance and the remaining Repeats-1 clones
// are dated one interval apart; every instance keeps the series identifier the
// transaction was constructed with, so the caller's handle names the stored
// series.
func expandSeries(t *model.Transaction) []*model.Transaction {
	if !t.Frequency.IsRecurring() {
		return []*model.Transaction{t.Clone()}
	}

	instances := make([]*model.Transaction, 0, t.Frequency.Repeats)
	date := t.Date
	for i := 0; i < t.Frequency.Repeats; i++ {
		instance := t.Clone()
		instance.Date = date
		if i > 0 {
			instance.ID = uuid.New().String()
		}
		instances = append(instances, instance)
		date = t.Frequency.Interval.Next(date)
	}
	return instances
}

// inRange reports whether d falls within the closed interval [start, end].
func inRange(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}
