package sentiment

import (
	"context"
	"fmt"
	"math"

	"github.com/cryptolens/womtracker/internal/domain"
)

// Scorer maps one post's preprocessed text to a bullishness value in
// [0, 1] using the injected classifier.
type Scorer struct {
	classifier Classifier
}

// NewScorer creates a Scorer on top of the given classifier.
func NewScorer(classifier Classifier) *Scorer {
	return &Scorer{classifier: classifier}
}

// Bullishness computes bullish / (bullish + bearish) from the three-class
// distribution. Neutral mass is excluded from the denominator on purpose:
// a strongly neutral post must not pull the ratio toward 0.5. When the
// post carries no directional mass at all it returns ErrNoSignal and the
// caller drops it from aggregation.
func (s *Scorer) Bullishness(ctx context.Context, text string) (float64, error) {
	cl, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("score post: %w", err)
	}

	denom := cl.Bullish + cl.Bearish
	if denom <= 0 {
		return 0, domain.ErrNoSignal
	}
	return round2(cl.Bullish / denom), nil
}

// Aggregate combines per-post bullishness values into a single wom score:
// the arithmetic mean rounded to two decimals. ok is false when no
// qualifying posts exist; absence of data is never reported as a number.
func Aggregate(scores []float64) (score float64, ok bool) {
	if len(scores) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	return round2(sum / float64(len(scores))), true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
