package service

import (
	"github.com/sirupsen/logrus"

	"github.com/pocketfin/pocketfin/internal/store"
)

// testLogger returns a logger that stays quiet during tests.
func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// newTestCore builds a CoreService on a fresh in-memory store.
func newTestCore() (*CoreService, store.Store) {
	s := store.NewMemoryStore(testLogger())
	return NewCoreService(s, DefaultPredictorConfig(), testLogger()), s
}
