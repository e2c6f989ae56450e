package model

import "time"

// FrequencyNature distinguishes one-off transactions from recurring series.
type FrequencyNature string

const (
	FrequencyOneTime   FrequencyNature = "one-time"
	FrequencyRecurring FrequencyNature = "recurring"
)

// IntervalUnit is the calendar unit of a recurrence period.
type IntervalUnit string

const (
	IntervalDay   IntervalUnit = "day"
	IntervalWeek  IntervalUnit = "week"
	IntervalMonth IntervalUnit = "month"
)

// Interval describes a recurrence period of "every N days/weeks/months".
type Interval struct {
	Unit  IntervalUnit
	Every int
}

// Next returns the instant one recurrence period after t.
func (iv Interval) Next(t time.Time) time.Time {
	switch iv.Unit {
	case IntervalDay:
		return t.AddDate(0, 0, iv.Every)
	case IntervalWeek:
		return t.AddDate(0, 0, 7*iv.Every)
	case IntervalMonth:
		return t.AddDate(0, iv.Every, 0)
	default:
		return t
	}
}

func (iv Interval) valid() bool {
	if iv.Every < 1 {
		return false
	}
	switch iv.Unit {
	case IntervalDay, IntervalWeek, IntervalMonth:
		return true
	}
	return false
}

// TransactionFrequency describes how often a transaction occurs.
// One-time frequencies carry no interval and no repeat count; recurring
// frequencies carry both. Series instances are materialized up front at save
// time, so a recurring frequency always has a finite repeat count.
type TransactionFrequency struct {
	Nature   FrequencyNature
	Interval *Interval
	Repeats  int
}

// NewTransactionFrequency validates the nature/interval/repeats combination.
func NewTransactionFrequency(nature FrequencyNature, interval *Interval, repeats int) (TransactionFrequency, error) {
	switch nature {
	case FrequencyOneTime:
		if interval != nil {
			return TransactionFrequency{}, newValidationError("frequency", "one-time transaction must not carry an interval")
		}
		if repeats != 0 {
			return TransactionFrequency{}, newValidationError("frequency", "one-time transaction must not carry a repeat count")
		}
	case FrequencyRecurring:
		if interval == nil {
			return TransactionFrequency{}, newValidationError("frequency", "recurring transaction requires an interval")
		}
		if !interval.valid() {
			return TransactionFrequency{}, newValidationError("frequency", "recurrence interval must be a positive number of days, weeks or months")
		}
		if repeats < 1 {
			return TransactionFrequency{}, newValidationError("frequency", "recurring transaction requires a repeat count of at least 1")
		}
	default:
		return TransactionFrequency{}, newValidationError("frequency", "nature must be one-time or recurring")
	}
	return TransactionFrequency{Nature: nature, Interval: interval, Repeats: repeats}, nil
}

// OneTime is a convenience constructor for the common non-recurring case.
func OneTime() TransactionFrequency {
	return TransactionFrequency{Nature: FrequencyOneTime}
}

// IsRecurring reports whether the frequency describes a series.
func (f TransactionFrequency) IsRecurring() bool {
	return f.Nature == FrequencyRecurring
}

func (f TransactionFrequency) validate() error {
	_, err := NewTransactionFrequency(f.Nature, f.Interval, f.Repeats)
	return err
}
