// Seeds a demo database with a month of realistic activity: tags, a budget,
// one-time and recurring transactions. Safe to re-run; it clears the
// transaction store first.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/pocketfin/pocketfin/internal/model"
	"github.com/pocketfin/pocketfin/internal/service"
	"github.com/pocketfin/pocketfin/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	dbPath := os.Getenv("POCKETFIN_DB")
	if dbPath == "" {
		dbPath = "pocketfin.db"
	}

	s, err := store.OpenSQLiteStore(dbPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open sqlite store")
	}
	defer s.Close()

	core := service.NewCoreService(s, service.DefaultPredictorConfig(), logger)
	ctx := context.Background()

	logger.WithField("path", dbPath).Info("seeding demo data")

	if err := core.ClearAllTransactions(ctx); err != nil {
		logger.WithError(err).Fatal("failed to clear transactions")
	}

	parents := map[string][]string{
		"Food":      {"Groceries", "Eating Out", "Coffee"},
		"Transport": {"Public Transport", "Taxi"},
		"Home":      {"Rent", "Utilities"},
	}
	for parent, children := range parents {
		if _, err := core.AddParentTag(ctx, parent); err != nil {
			logger.WithError(err).WithField("tag", parent).Warn("parent tag not added")
			continue
		}
		for _, child := range children {
			if _, err := core.AddChildTag(ctx, parent, child); err != nil {
				logger.WithError(err).WithField("tag", child).Warn("child tag not added")
			}
		}
	}

	if err := core.SaveBudget(ctx, &model.Budget{Amount: decimal.NewFromInt(2500)}); err != nil {
		logger.WithError(err).Fatal("failed to save budget")
	}

	hawker, _ := model.NewLocation(1.3006, 103.8553)
	office, _ := model.NewLocation(1.2839, 103.8515)

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	oneOffs := []struct {
		day         int
		hour, min   int
		txType      model.TransactionType
		amount      string
		description string
		tags        []model.Tag
		location    *model.Location
	}{
		{1, 9, 15, model.TypeIncome, "4200", "Salary", nil, nil},
		{2, 12, 30, model.TypeExpenditure, "6.80", "Chicken rice", []model.Tag{{Name: "Eating Out", Parent: "Food"}}, &hawker},
		{3, 8, 45, model.TypeExpenditure, "5.20", "Flat white", []model.Tag{{Name: "Coffee", Parent: "Food"}}, &office},
		{5, 12, 20, model.TypeExpenditure, "7.50", "Laksa", []model.Tag{{Name: "Eating Out", Parent: "Food"}}, &hawker},
		{6, 18, 0, model.TypeExpenditure, "92.35", "Weekly groceries", []model.Tag{{Name: "Groceries", Parent: "Food"}}, nil},
		{8, 7, 50, model.TypeExpenditure, "1.90", "Bus to work", []model.Tag{{Name: "Public Transport", Parent: "Transport"}}, nil},
		{9, 12, 25, model.TypeExpenditure, "6.80", "Chicken rice", []model.Tag{{Name: "Eating Out", Parent: "Food"}}, &hawker},
		{12, 22, 40, model.TypeExpenditure, "18.60", "Taxi home", []model.Tag{{Name: "Taxi", Parent: "Transport"}}, nil},
		{14, 19, 30, model.TypeExpenditure, "145.00", "Electricity bill", []model.Tag{{Name: "Utilities", Parent: "Home"}}, nil},
	}

	for _, row := range oneOffs {
		date := monthStart.AddDate(0, 0, row.day-1).
			Add(time.Duration(row.hour)*time.Hour + time.Duration(row.min)*time.Minute)
		if _, err := core.RecordTransaction(ctx, date, row.txType, model.OneTime(),
			row.tags, decimal.RequireFromString(row.amount), row.description, nil, row.location); err != nil {
			logger.WithError(err).WithField("description", row.description).Fatal("failed to record transaction")
		}
	}

	weekly, err := model.NewTransactionFrequency(model.FrequencyRecurring,
		&model.Interval{Unit: model.IntervalWeek, Every: 1}, 4)
	if err != nil {
		logger.WithError(err).Fatal("failed to build recurrence")
	}
	if _, err := core.RecordTransaction(ctx, monthStart.Add(10*time.Hour), model.TypeExpenditure,
		weekly, []model.Tag{{Name: "Rent", Parent: "Home"}},
		decimal.RequireFromString("380"), "Room rent", nil, nil); err != nil {
		logger.WithError(err).Fatal("failed to record recurring rent")
	}

	count, err := core.TotalTransactionsRecorded(ctx)
	if err != nil {
		logger.WithError(err).Fatal("failed to count transactions")
	}
	logger.WithField("count", count).Info("demo data seeded")
}
