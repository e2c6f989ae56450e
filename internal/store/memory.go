package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pocketfin/pocketfin/internal/model"
)

// MemoryStore implements Store with in-memory storage. It backs tests and
// throwaway sessions; values are cloned on the way in and out so callers can
// never alias stored state.
type MemoryStore struct {
	mu sync.RWMutex

	transactions map[string]*model.Transaction
	budget       *model.Budget
	tags         map[string]model.Tag

	logger *logrus.Entry
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(logger *logrus.Logger) *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string]*model.Transaction),
		tags:         make(map[string]model.Tag),
		logger:       logger.WithField("component", "store.memory"),
	}
}

func (m *MemoryStore) SaveTransaction(ctx context.Context, t *model.Transaction) error {
	instances := expandSeries(t)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Check the whole series before writing anything so a duplicate cannot
	// leave a partially visible series behind.
	for _, instance := range instances {
		if _, ok := m.transactions[instance.ID]; ok {
			return &StorageError{
				Code:    ErrCodeDuplicateID,
				Message: fmt.Sprintf("transaction %s already exists", instance.ID),
			}
		}
	}
	for _, instance := range instances {
		m.transactions[instance.ID] = instance
	}

	m.logger.WithFields(logrus.Fields{
		"id":        t.ID,
		"instances": len(instances),
	}).Debug("transaction saved")
	return nil
}

func (m *MemoryStore) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[t.ID]; !ok {
		return &StorageError{Code: ErrCodeNotFound, Message: fmt.Sprintf("transaction %s not found", t.ID)}
	}
	m.transactions[t.ID] = t.Clone()
	return nil
}

func (m *MemoryStore) ListTransactions(ctx context.Context, start, end time.Time) ([]*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*model.Transaction
	for _, t := range m.transactions {
		if inRange(t.Date, start, end) {
			result = append(result, t.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MemoryStore) DeleteTransaction(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[id]; !ok {
		return &StorageError{Code: ErrCodeNotFound, Message: fmt.Sprintf("transaction %s not found", id)}
	}
	delete(m.transactions, id)
	return nil
}

func (m *MemoryStore) DeleteSeries(ctx context.Context, seriesID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, t := range m.transactions {
		if t.SeriesID == seriesID {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return &StorageError{Code: ErrCodeNotFound, Message: fmt.Sprintf("series %s not found", seriesID)}
	}
	for _, id := range ids {
		delete(m.transactions, id)
	}

	m.logger.WithFields(logrus.Fields{
		"series":    seriesID,
		"instances": len(ids),
	}).Debug("series deleted")
	return nil
}

func (m *MemoryStore) CountTransactions(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transactions), nil
}

func (m *MemoryStore) ClearTransactions(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = make(map[string]*model.Transaction)
	return nil
}

func (m *MemoryStore) SaveBudget(ctx context.Context, b *model.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	budget := *b
	m.budget = &budget
	return nil
}

func (m *MemoryStore) LoadBudget(ctx context.Context) (*model.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.budget == nil {
		return nil, ErrBudgetNotConfigured
	}
	budget := *m.budget
	return &budget, nil
}

func (m *MemoryStore) SaveTag(ctx context.Context, tag model.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[tag.Name] = tag
	return nil
}

func (m *MemoryStore) ListTags(ctx context.Context) ([]model.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tags := make([]model.Tag, 0, len(m.tags))
	for _, tag := range m.tags {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (m *MemoryStore) DeleteTag(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tags[name]; !ok {
		return &StorageError{Code: ErrCodeNotFound, Message: fmt.Sprintf("tag %s not found", name)}
	}
	delete(m.tags, name)
	for child, tag := range m.tags {
		if tag.Parent == name {
			delete(m.tags, child)
		}
	}
	return nil
}
