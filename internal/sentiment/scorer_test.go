package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptolens/womtracker/internal/domain"
)

// fakeClassifier returns a fixed distribution or error for every call.
type fakeClassifier struct {
	cl  Classification
	err error
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) (Classification, error) {
	return f.cl, f.err
}

func TestBullishnessRatio(t *testing.T) {
	tests := []struct {
		name string
		cl   Classification
		want float64
	}{
		{"pure bullish", Classification{Bullish: 0.9, Neutral: 0.05, Bearish: 0.1}, 0.9},
		{"even split", Classification{Bullish: 0.3, Neutral: 0.4, Bearish: 0.3}, 0.5},
		{"neutral mass excluded from denominator", Classification{Bullish: 0.08, Neutral: 0.9, Bearish: 0.02}, 0.8},
		{"bearish heavy", Classification{Bullish: 0.1, Neutral: 0.1, Bearish: 0.8}, 0.11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScorer(&fakeClassifier{cl: tt.cl})
			got, err := s.Bullishness(context.Background(), "some post")
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestBullishnessNoDirectionalMass(t *testing.T) {
	s := NewScorer(&fakeClassifier{cl: Classification{Neutral: 1}})
	_, err := s.Bullishness(context.Background(), "completely neutral post")
	assert.ErrorIs(t, err, domain.ErrNoSignal)
}

func TestBullishnessClassifierError(t *testing.T) {
	boom := errors.New("model unavailable")
	s := NewScorer(&fakeClassifier{err: boom})
	_, err := s.Bullishness(context.Background(), "text")
	assert.ErrorIs(t, err, boom)
}

func TestAggregate(t *testing.T) {
	score, ok := Aggregate([]float64{0.8, 0.6, 0.4})
	require.True(t, ok)
	assert.Equal(t, 0.6, score)

	score, ok = Aggregate([]float64{0.9, 0.7})
	require.True(t, ok)
	assert.Equal(t, 0.8, score)

	// Rounding to two decimals.
	score, ok = Aggregate([]float64{0.333, 0.333, 0.333})
	require.True(t, ok)
	assert.Equal(t, 0.33, score)
}

func TestAggregateEmptyInputHasNoSignal(t *testing.T) {
	score, ok := Aggregate(nil)
	assert.False(t, ok, "empty input must be reported as no-signal, never a default value")
	assert.Zero(t, score)
}
