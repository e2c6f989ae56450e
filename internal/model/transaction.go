package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of money flow. The sign of a transaction
// is derived from its type; amounts are always stored non-negative.
type TransactionType string

const (
	TypeExpenditure TransactionType = "expenditure"
	TypeIncome      TransactionType = "income"
)

// DefaultDescription is substituted when a transaction is recorded without one.
const DefaultDescription = "No description"

// Transaction is the central entity of the tracker. Instances generated from
// one recurrence rule share a SeriesID.
type Transaction struct {
	ID          string
	Date        time.Time
	Type        TransactionType
	Frequency   TransactionFrequency
	Tags        []Tag
	Amount      decimal.Decimal
	Description string
	Photo       []byte
	Location    *Location
	SeriesID    string
}

// NewTransaction validates the inputs and returns a transaction with a fresh
// identifier. Tags are deduplicated by name; an empty description is replaced
// with DefaultDescription. A recurring transaction is assigned its series
// identifier here, so the caller's handle names the same series the store
// materializes.
func NewTransaction(date time.Time, txType TransactionType, frequency TransactionFrequency,
	tags []Tag, amount decimal.Decimal, description string, photo []byte, location *Location) (*Transaction, error) {

	t := &Transaction{
		ID:          uuid.New().String(),
		Date:        date,
		Type:        txType,
		Frequency:   frequency,
		Tags:        dedupeTags(tags),
		Amount:      amount,
		Description: description,
		Photo:       photo,
		Location:    location,
	}
	if t.Frequency.IsRecurring() {
		t.SeriesID = uuid.New().String()
	}
	if t.Description == "" {
		t.Description = DefaultDescription
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate re-checks every field constraint. It is invoked by the constructor
// and again on edits, so a mutated transaction can never reach storage in an
// invalid state.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return newValidationError("transaction", "identifier must not be empty")
	}
	if t.Date.IsZero() {
		return newValidationError("date", "transaction date is required")
	}
	if t.Type != TypeExpenditure && t.Type != TypeIncome {
		return newValidationError("type", "transaction type must be expenditure or income")
	}
	if err := t.Frequency.validate(); err != nil {
		return err
	}
	if t.Frequency.IsRecurring() && t.SeriesID == "" {
		return newValidationError("transaction", "recurring transaction must carry a series identifier")
	}
	if t.Amount.IsNegative() {
		return newValidationError("amount", "amount must not be negative")
	}
	if !t.Amount.Equal(t.Amount.Truncate(2)) {
		return newValidationError("amount", "amount must not carry more than two fractional digits")
	}
	for _, tag := range t.Tags {
		if tag.Name == "" {
			return newValidationError("tags", "tag names must not be empty")
		}
	}
	return nil
}

// Equal reports transaction identity. Two transactions are the same iff their
// identifiers match, regardless of the remaining fields.
func (t *Transaction) Equal(other *Transaction) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.ID == other.ID
}

// SameFields reports whether every payload field matches, used to verify that
// a transaction survives a storage round trip intact.
func (t *Transaction) SameFields(other *Transaction) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.ID != other.ID || !t.Date.Equal(other.Date) || t.Type != other.Type {
		return false
	}
	if t.Frequency.Nature != other.Frequency.Nature ||
		t.Frequency.Repeats != other.Frequency.Repeats ||
		(t.Frequency.Interval == nil) != (other.Frequency.Interval == nil) {
		return false
	}
	if t.Frequency.Interval != nil && *t.Frequency.Interval != *other.Frequency.Interval {
		return false
	}
	if len(t.Tags) != len(other.Tags) {
		return false
	}
	for i := range t.Tags {
		if t.Tags[i] != other.Tags[i] {
			return false
		}
	}
	if !t.Amount.Equal(other.Amount) || t.Description != other.Description {
		return false
	}
	if len(t.Photo) != len(other.Photo) {
		return false
	}
	for i := range t.Photo {
		if t.Photo[i] != other.Photo[i] {
			return false
		}
	}
	if (t.Location == nil) != (other.Location == nil) {
		return false
	}
	if t.Location != nil && *t.Location != *other.Location {
		return false
	}
	return t.SeriesID == other.SeriesID
}

// Clone returns a deep copy so stored state cannot be aliased by callers.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	if t.Frequency.Interval != nil {
		iv := *t.Frequency.Interval
		c.Frequency.Interval = &iv
	}
	if t.Tags != nil {
		c.Tags = append([]Tag(nil), t.Tags...)
	}
	if t.Photo != nil {
		c.Photo = append([]byte(nil), t.Photo...)
	}
	if t.Location != nil {
		loc := *t.Location
		c.Location = &loc
	}
	return &c
}

// dedupeTags drops duplicate names and orders tags deterministically.
func dedupeTags(tags []Tag) []Tag {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]Tag, 0, len(tags))
	for _, tag := range tags {
		if seen[tag.Name] {
			continue
		}
		seen[tag.Name] = true
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
