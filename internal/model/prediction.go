package model

import "github.com/shopspring/decimal"

// Prediction is the autofill suggestion for a new transaction: the amount and
// tags most frequently seen among historically similar transactions. It is
// derived, never stored.
type Prediction struct {
	Amount decimal.Decimal
	Tags   []Tag
}

// NewPrediction validates the suggested amount. A validation failure here is
// an internal invariant violation; the prediction engine turns it into a
// "no prediction" result rather than surfacing it.
func NewPrediction(amount decimal.Decimal, tags []Tag) (*Prediction, error) {
	if amount.IsNegative() {
		return nil, newValidationError("prediction", "predicted amount must not be negative")
	}
	return &Prediction{Amount: amount, Tags: dedupeTags(tags)}, nil
}
