package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketfin/pocketfin/internal/model"
)

// runStores executes the same test against MemoryStore and SQLiteStore so the
// two implementations cannot drift apart.
func runStores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore(logger))
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "test.db"), logger)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		fn(t, s)
	})
}

func newTestTransaction(t *testing.T, date time.Time, amount string) *model.Transaction {
	t.Helper()
	tx, err := model.NewTransaction(date, model.TypeExpenditure, model.OneTime(),
		[]model.Tag{{Name: "Food"}}, decimal.RequireFromString(amount), "test", nil, nil)
	require.NoError(t, err)
	return tx
}

func TestSaveAndListByDateRange(t *testing.T) {
	runStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		early := newTestTransaction(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "10")
		mid := newTestTransaction(t, time.Date(2024, 2, 14, 12, 30, 0, 0, time.UTC), "20")
		last := newTestTransaction(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), "30")
		outside := newTestTransaction(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "40")

		for _, tx := range []*model.Transaction{outside, last, mid, early} {
			require.NoError(t, s.SaveTransaction(ctx, tx))
		}

		// Closed interval covering leap-year February.
		got, err := s.ListTransactions(ctx,
			time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, got, 3)

		// Ordered by date ascending, boundaries included.
		assert.True(t, got[0].Equal(early))
		assert.True(t, got[1].Equal(mid))
		assert.True(t, got[2].Equal(last))
	})
}

func TestListEmptyRange(t *testing.T) {
	runStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		got, err := s.ListTransactions(ctx,
			time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2023, 6, 30, 23, 59, 59, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestRecurringSeriesExpansion(t *testing.T) {
	runStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		freq, err := model.NewTransactionFrequency(model.FrequencyRecurring,
			&model.Interval{Unit: model.IntervalWeek, Every: 1}, 4)
		require.NoError(t, err)
		tx, err := model.NewTransaction(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			model.TypeExpenditure, freq, nil, decimal.NewFromInt(15), "gym", nil, nil)
		require.NoError(t, err)
		require.NoError(t, s.SaveTransaction(ctx, tx))

		got, err := s.ListTransactions(ctx,
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, got, 4)

		wantDates := []time.Time{
			time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 22, 9, 0, 0, 0, time.UTC),
		}
		require.NotEmpty(t, tx.SeriesID)
		for i, instance := range got {
			assert.True(t, instance.Date.Equal(wantDates[i]), "instance %d dated %v", i, instance.Date)
			assert.Equal(t, tx.SeriesID, instance.SeriesID, "stored instances must carry the handle's series identifier")
		}

		// Deleting via the saved handle removes the whole series.
		require.NoError(t, s.DeleteSeries(ctx, tx.SeriesID))
		remaining, err := s.ListTransactions(ctx,
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})
}

func TestListFarDateRanges(t *testing.T) {
	runStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		// Dates past 2262 overflow a unix-nanosecond representation; the
		// store must cover years 0 through 9999.
		months := []struct {
			name       string
			start, end time.Time
		}{
			{
				"april 2262",
				time.Date(2262, 4, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2262, 4, 30, 23, 59, 59, 0, time.UTC),
			},
			{
				"december 9999",
				time.Date(9999, 12, 1, 0, 0, 0, 0, time.UTC),
				time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC),
			},
			{
				"january year 1",
				time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(1, 1, 31, 23, 59, 59, 0, time.UTC),
			},
		}

		var want []*model.Transaction
		for _, m := range months {
			first := newTestTransaction(t, m.start.Add(10*time.Hour), "1")
			second := newTestTransaction(t, m.start.AddDate(0, 0, 11), "2")
			require.NoError(t, s.SaveTransaction(ctx, first))
			require.NoError(t, s.SaveTransaction(ctx, second))
			want = append(want, first, second)
		}

		for i, m := range months {
			got, err := s.ListTransactions(ctx, m.start, m.end)
			require.NoError(t, err)
			require.Len(t, got, 2, m.name)
			assert.True(t, got[0].Equal(want[2*i]), m.name)
			assert.True(t, got[1].Equal(want[2*i+1]), m.name)
		}
	})
}

func TestSaveDuplicateIdentifier(t *testing.T) {
	runStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		tx := newTestTransaction(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), "9.99")

		require.NoError(t, s.SaveTransaction(ctx, tx))
		err := s.SaveTransaction(ctx, tx)
		require.Error(t, err)

		var serr *StorageError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, ErrCodeDuplicateID, serr.Code)

		count, err := s.CountTransactions(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestDeleteTransaction(t *testing.T) {
	runStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		tx := newTestTransaction(t, time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), "5")
		require.NoError(t, s.SaveTransaction(ctx, tx))

		require.NoError(t, s.DeleteTransaction(ctx, tx.ID))

		err := s.DeleteTransaction(ctx, tx.ID)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))

		count, err := s.CountTransactions(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestDeleteSeriesNotFound(t *testing.T) {
	runStores(t, func(t *testing.T, s Store) {
		err := s.DeleteSeries(context.Background(), "no-such-series")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})
}

func TestUpdateTransaction(t *testing.T) {
	runStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		tx := newTestTransaction(t, time.Date(2024, 5, 3, 8, 0, 0, 0, time.UTC), "12")
		require.NoError(t, s.SaveTransaction(ctx, tx))

		tx.Description = "updated"
		tx.Amount = decimal.RequireFromString("14.50")
		require.NoError(t, s.UpdateTransaction(ctx, tx))

		got, err := s.ListTransactions(ctx, tx.Date, tx.Date)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "updated", got[0].Description)
		assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("14.50")))

		missing := newTestTransaction(t, tx.Date, "1")
		err = s.UpdateTransaction(ctx, missing)
		assert.True(t, IsNotFound(err))
	})
}

func TestClearTransactions(t *testing.T) {
	runStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for day := 1; day <= 3; day++ {
			tx := newTestTransaction(t, time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC), "1")
			require.NoError(t, s.SaveTransaction(ctx, tx))
		}

		require.NoError(t, s.ClearTransactions(ctx))
		count, err := s.CountTransactions(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestBudgetLifecycle(t *testing.T) {
	runStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.LoadBudget(ctx)
		require.ErrorIs(t, err, ErrBudgetNotConfigured)

		require.NoError(t, s.SaveBudget(ctx, &model.Budget{Amount: decimal.NewFromInt(500)}))
		require.NoError(t, s.SaveBudget(ctx, &model.Budget{Amount: decimal.NewFromInt(800)}))

		b, err := s.LoadBudget(ctx)
		require.NoError(t, err)
		assert.True(t, b.Amount.Equal(decimal.NewFromInt(800)))
	})
}

func TestTagPersistence(t *testing.T) {
	runStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		require.NoError(t, s.SaveTag(ctx, model.Tag{Name: "Food"}))
		require.NoError(t, s.SaveTag(ctx, model.Tag{Name: "Groceries", Parent: "Food"}))
		require.NoError(t, s.SaveTag(ctx, model.Tag{Name: "Travel"}))

		tags, err := s.ListTags(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.Tag{
			{Name: "Food"},
			{Name: "Groceries", Parent: "Food"},
			{Name: "Travel"},
		}, tags)

		require.NoError(t, s.DeleteTag(ctx, "Travel"))
		err = s.DeleteTag(ctx, "Travel")
		assert.True(t, IsNotFound(err))

		// Deleting a parent takes its children with it in one operation.
		require.NoError(t, s.SaveTag(ctx, model.Tag{Name: "Snacks", Parent: "Food"}))
		require.NoError(t, s.DeleteTag(ctx, "Food"))
		tags, err = s.ListTags(ctx)
		require.NoError(t, err)
		assert.Empty(t, tags)
	})
}

func TestTransactionRoundTrip(t *testing.T) {
	runStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		loc := &model.Location{Latitude: 1.3521, Longitude: 103.8198}
		tx, err := model.NewTransaction(
			time.Date(2024, 7, 4, 18, 45, 30, 0, time.UTC),
			model.TypeExpenditure, model.OneTime(),
			[]model.Tag{{Name: "Food"}, {Name: "Dinner", Parent: "Food"}},
			decimal.RequireFromString("42.75"), "birthday dinner",
			[]byte{0xff, 0xd8, 0x01, 0x02}, loc)
		require.NoError(t, err)
		require.NoError(t, s.SaveTransaction(ctx, tx))

		got, err := s.ListTransactions(ctx,
			time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 7, 31, 23, 59, 59, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, tx.SameFields(got[0]),
			"stored %+v, loaded %+v", tx, got[0])
	})
}

func TestStorageErrorClassification(t *testing.T) {
	ioErr := &StorageError{Code: ErrCodeIO, Message: "disk gone", Cause: errors.New("io")}
	assert.False(t, IsNotFound(ioErr))
	assert.Contains(t, ioErr.Error(), "IO")
	assert.Contains(t, ioErr.Error(), "disk gone")

	nf := &StorageError{Code: ErrCodeNotFound, Message: "x"}
	assert.True(t, IsNotFound(nf))
}
