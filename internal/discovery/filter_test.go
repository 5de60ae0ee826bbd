package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cryptolens/womtracker/internal/domain"
)

func age(hours float64) *float64 { return &hours }

func TestCriteriaAdmit(t *testing.T) {
	criteria := Criteria{
		MinMakerCount: 7000,
		MaxAgeHours:   24,
	}

	tests := []struct {
		name string
		cand domain.CandidateToken
		want bool
	}{
		{
			name: "passes all thresholds",
			cand: domain.CandidateToken{Symbol: "$WIF", AgeHours: age(10), MakerCount: 8000},
			want: true,
		},
		{
			name: "nil age is a hard reject regardless of other fields",
			cand: domain.CandidateToken{Symbol: "$WIF", AgeHours: nil, MakerCount: 90000, VolumeUSD: 1e9},
			want: false,
		},
		{
			name: "too old",
			cand: domain.CandidateToken{Symbol: "$WIF", AgeHours: age(25), MakerCount: 8000},
			want: false,
		},
		{
			name: "age at the boundary is admitted",
			cand: domain.CandidateToken{Symbol: "$WIF", AgeHours: age(24), MakerCount: 8000},
			want: true,
		},
		{
			name: "too few makers",
			cand: domain.CandidateToken{Symbol: "$WIF", AgeHours: age(10), MakerCount: 6999},
			want: false,
		},
		{
			name: "unknown sentinel symbol always rejected",
			cand: domain.CandidateToken{Symbol: UnknownSymbol, AgeHours: age(1), MakerCount: 90000},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, criteria.Admit(tt.cand))
		})
	}
}

func TestCriteriaAdmitOptionalThresholds(t *testing.T) {
	criteria := Criteria{
		MinMakerCount:   100,
		MaxAgeHours:     48,
		MinVolumeUSD:    150_000,
		MinLiquidityUSD: 50_000,
		MinMarketCapUSD: 200_000,
	}

	ok := domain.CandidateToken{
		Symbol: "$OK", AgeHours: age(5), MakerCount: 500,
		VolumeUSD: 200_000, LiquidityUSD: 60_000, MarketCapUSD: 250_000,
	}
	assert.True(t, criteria.Admit(ok))

	thin := ok
	thin.LiquidityUSD = 49_999
	assert.False(t, criteria.Admit(thin))
}

func TestToTracked(t *testing.T) {
	cand := domain.CandidateToken{
		Symbol:     "$WIF",
		Name:       "dogwifhat",
		Address:    "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm",
		AgeHours:   age(10),
		MakerCount: 8000,
	}

	tok := ToTracked(cand, "solana")
	assert.Equal(t, "$WIF", tok.Symbol)
	assert.Equal(t, 10.0, tok.AgeHours)
	assert.Equal(t, "https://dexscreener.com/solana/EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm", tok.DexURL)
	assert.True(t, tok.CreatedAt.IsZero(), "store assigns CreatedAt on insert")
	assert.Nil(t, tok.WomScore)
}
