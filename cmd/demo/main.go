package main

import (
	"context"
	"errors"
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
	// Optional .env for local runs; absence is not an error.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	}

	ctx := context.Background()

	useMemoryStore := os.Getenv("USE_MEMORY_STORE") == "true"

	var s store.Store
	if useMemoryStore {
		logger.Info("using in-memory store")
		s = store.NewMemoryStore(logger)
	} else {
		dbPath := os.Getenv("POCKETFIN_DB")
		if dbPath == "" {
			dbPath = "pocketfin.db"
		}
		sqlStore, err := store.OpenSQLiteStore(dbPath, logger)
		if err != nil {
			logger.WithError(err).Fatal("failed to open sqlite store")
		}
		defer sqlStore.Close()
		logger.WithField("path", dbPath).Info("using sqlite store")
		s = sqlStore
	}

	core := service.NewCoreService(s, service.DefaultPredictorConfig(), logger)

	now := time.Now().UTC()

	count, err := core.TotalTransactionsRecorded(ctx)
	if err != nil {
		logger.WithError(err).Fatal("failed to count transactions")
	}
	if count == 0 {
		logger.Info("empty store, recording a sample transaction")
		if _, err := core.RecordTransaction(ctx, now, model.TypeExpenditure,
			model.OneTime(), []model.Tag{{Name: "Food"}},
			decimal.RequireFromString("12.50"), "lunch", nil, nil); err != nil {
			logger.WithError(err).Fatal("failed to record sample transaction")
		}
	}

	transactions, err := core.LoadTransactions(ctx, int(now.Month()), now.Year())
	if err != nil {
		logger.WithError(err).Fatal("failed to load transactions")
	}
	logger.WithField("count", len(transactions)).Info("transactions this month")
	for _, t := range transactions {
		logger.WithFields(logrus.Fields{
			"date":        t.Date.Format("2006-01-02 15:04"),
			"type":        t.Type,
			"amount":      t.Amount.String(),
			"description": t.Description,
		}).Info("transaction")
	}

	status, err := core.GetSpendingStatus(ctx, transactions)
	switch {
	case err == nil:
		logger.WithFields(logrus.Fields{
			"spent":      status.CurrentSpending.String(),
			"budget":     status.TotalBudget.String(),
			"percentage": status.Percentage,
		}).Info("spending status")
	case errors.Is(err, store.ErrBudgetNotConfigured):
		logger.Info("no budget configured, skipping spending status")
	default:
		logger.WithError(err).Fatal("failed to derive spending status")
	}

	if loc, err := model.NewLocation(1.3521, 103.8198); err == nil {
		if p := core.GetPrediction(ctx, now, loc, transactions); p != nil {
			logger.WithFields(logrus.Fields{
				"amount": p.Amount.String(),
				"tags":   len(p.Tags),
			}).Info("prediction for a transaction entered here and now")
		}
	}
}
