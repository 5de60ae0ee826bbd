// Package sentiment converts social posts into a bounded bullishness
// signal: a relevance/quality pre-filter, a per-post scorer on top of an
// opaque three-class classifier, and a wom-score aggregator.
package sentiment

import "context"

// Classification is the probability mass a classifier assigns to each
// sentiment class. The three probabilities sum to 1.
type Classification struct {
	Bullish float64 `json:"bullish"`
	Neutral float64 `json:"neutral"`
	Bearish float64 `json:"bearish"`
}

// Classifier maps free text to a three-class sentiment distribution. The
// model behind it is opaque to the pipeline; implementations live in
// this package (OpenAI) or in tests (fakes).
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}
