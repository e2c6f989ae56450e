package service

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/pocketfin/pocketfin/internal/model"
)

const minutesPerDay = 24 * 60

// PredictorConfig tunes the similarity thresholds and aggregation limits of
// the prediction engine.
type PredictorConfig struct {
	// TimeWindow is the maximum circular time-of-day difference for two
	// instants to count as similar.
	TimeWindow time.Duration
	// MaxDistanceMeters is the maximum distance between the query location
	// and a candidate's recorded location.
	MaxDistanceMeters float64
	// TagCount is how many of the most frequent tags end up in a prediction.
	TagCount int
	// DefaultAmount is suggested when no similar transaction exists.
	DefaultAmount decimal.Decimal
}

// DefaultPredictorConfig returns the tuning used by the demo binary.
func DefaultPredictorConfig() PredictorConfig {
	return PredictorConfig{
		TimeWindow:        60 * time.Minute,
		MaxDistanceMeters: 500,
		TagCount:          2,
		DefaultAmount:     decimal.Zero,
	}
}

// Predictor suggests an amount and tag set for a new transaction by ranking
// historically similar transactions. It is advisory: it never returns an
// error, only a prediction or nil.
type Predictor struct {
	cfg    PredictorConfig
	logger *logrus.Entry
}

// NewPredictor creates a predictor with the given tuning.
func NewPredictor(cfg PredictorConfig, logger *logrus.Logger) *Predictor {
	return &Predictor{
		cfg:    cfg,
		logger: logger.WithField("component", "predictor"),
	}
}

// Predict finds transactions similar to the query time and location within
// the candidate pool and aggregates them into a suggestion. A nil result
// means no prediction; callers must treat that as a normal outcome.
func (p *Predictor) Predict(at time.Time, location model.Location, transactions []*model.Transaction) *model.Prediction {
	// Dedupe by identity so a candidate appearing twice cannot double-count.
	similar := make(map[string]*model.Transaction)
	for _, t := range transactions {
		if p.similarInTime(at, t.Date) && p.similarInLocation(location, t) {
			similar[t.ID] = t
		}
	}

	amount, tags := p.aggregate(similar)

	prediction, err := model.NewPrediction(amount, tags)
	if err != nil {
		// An invalid prediction is an internal inconsistency; degrade to
		// "no prediction" instead of blocking the transaction-entry flow.
		p.logger.WithError(err).Warn("discarding invalid prediction")
		return nil
	}

	p.logger.WithFields(logrus.Fields{
		"similar": len(similar),
		"amount":  prediction.Amount.String(),
		"tags":    len(prediction.Tags),
	}).Debug("prediction generated")
	return prediction
}

// similarInTime compares only the time-of-day components, treating the
// 24-hour clock as circular so 23:50 and 00:05 are 15 minutes apart.
func (p *Predictor) similarInTime(a, b time.Time) bool {
	diff := minuteOfDay(a) - minuteOfDay(b)
	if diff < 0 {
		diff = -diff
	}
	if wrapped := minutesPerDay - diff; wrapped < diff {
		diff = wrapped
	}
	return float64(diff) <= p.cfg.TimeWindow.Minutes()
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// similarInLocation requires a recorded location within the distance
// threshold; a candidate without one is never similar.
func (p *Predictor) similarInLocation(query model.Location, t *model.Transaction) bool {
	if t.Location == nil {
		return false
	}
	return query.DistanceTo(*t.Location) <= p.cfg.MaxDistanceMeters
}

// aggregate counts amount and tag occurrences across the similar set and
// picks the winners. Ties are resolved deterministically: the lowest amount
// and the lexicographically smallest tag name win.
func (p *Predictor) aggregate(similar map[string]*model.Transaction) (decimal.Decimal, []model.Tag) {
	amountCount := make(map[string]int)
	amountValue := make(map[string]decimal.Decimal)
	tagCount := make(map[string]int)
	tagValue := make(map[string]model.Tag)

	for _, t := range similar {
		key := t.Amount.StringFixed(2)
		amountCount[key]++
		amountValue[key] = t.Amount
		for _, tag := range t.Tags {
			tagCount[tag.Name]++
			tagValue[tag.Name] = tag
		}
	}

	amount := p.cfg.DefaultAmount
	bestCount := 0
	for key, count := range amountCount {
		candidate := amountValue[key]
		if count > bestCount || (count == bestCount && candidate.LessThan(amount)) {
			amount = candidate
			bestCount = count
		}
	}

	var tags []model.Tag
	for len(tags) < p.cfg.TagCount {
		name := ""
		best := 0
		for candidate, count := range tagCount {
			if count > best || (count == best && count > 0 && candidate < name) {
				name = candidate
				best = count
			}
		}
		if best == 0 {
			break
		}
		tags = append(tags, tagValue[name])
		tagCount[name] = 0
	}
	return amount, tags
}
