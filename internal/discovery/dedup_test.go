package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cryptolens/womtracker/internal/domain"
)

func TestDedupFirstSeenWins(t *testing.T) {
	batch := []domain.CandidateToken{
		{Symbol: "$XYZ", MakerCount: 8000},
		{Symbol: "$ABC", MakerCount: 100},
		{Symbol: "$XYZ", MakerCount: 9000}, // later duplicate, dropped
		{Symbol: "$DEF", MakerCount: 200},
		{Symbol: "$ABC", MakerCount: 300},
	}

	out := Dedup(batch)

	assert.Len(t, out, 3)
	assert.Equal(t, "$XYZ", out[0].Symbol)
	assert.Equal(t, 8000, out[0].MakerCount, "first occurrence survives")
	assert.Equal(t, "$ABC", out[1].Symbol)
	assert.Equal(t, "$DEF", out[2].Symbol)

	seen := map[string]int{}
	for _, c := range out {
		seen[c.Symbol]++
	}
	for sym, n := range seen {
		assert.Equal(t, 1, n, "symbol %s appears more than once", sym)
	}
}

func TestDedupEmptyBatch(t *testing.T) {
	assert.Empty(t, Dedup(nil))
	assert.Empty(t, Dedup([]domain.CandidateToken{}))
}
