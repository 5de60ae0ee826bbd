package discovery

import (
	"fmt"
	"strings"

	"github.com/cryptolens/womtracker/internal/domain"
)

// Criteria holds the admission thresholds applied to each candidate.
// Zero-valued optional thresholds are disabled.
type Criteria struct {
	MinMakerCount   int
	MaxAgeHours     float64
	MinVolumeUSD    float64
	MinLiquidityUSD float64
	MinMarketCapUSD float64
}

// Admit reports whether a candidate passes the admission criteria. A
// missing age is a hard reject: freshness cannot be verified, so the
// candidate never defaults to passing.
func (c Criteria) Admit(cand domain.CandidateToken) bool {
	if cand.Symbol == UnknownSymbol {
		return false
	}
	if cand.AgeHours == nil {
		return false
	}
	if *cand.AgeHours > c.MaxAgeHours {
		return false
	}
	if cand.MakerCount < c.MinMakerCount {
		return false
	}
	if c.MinVolumeUSD > 0 && cand.VolumeUSD < c.MinVolumeUSD {
		return false
	}
	if c.MinLiquidityUSD > 0 && cand.LiquidityUSD < c.MinLiquidityUSD {
		return false
	}
	if c.MinMarketCapUSD > 0 && cand.MarketCapUSD < c.MinMarketCapUSD {
		return false
	}
	return true
}

// ToTracked converts an admitted candidate into the row persisted by the
// token store, deriving the DexScreener pair URL from the chain and
// address. CreatedAt is left zero; the store assigns it on first insert.
func ToTracked(cand domain.CandidateToken, chain string) domain.TrackedToken {
	var age float64
	if cand.AgeHours != nil {
		age = *cand.AgeHours
	}
	return domain.TrackedToken{
		Symbol:        cand.Symbol,
		Name:          cand.Name,
		Address:       cand.Address,
		AgeHours:      age,
		VolumeUSD:     cand.VolumeUSD,
		MakerCount:    cand.MakerCount,
		LiquidityUSD:  cand.LiquidityUSD,
		MarketCapUSD:  cand.MarketCapUSD,
		PriceChange1h: cand.PriceChange1h,
		DexURL:        DexURL(chain, cand.Address),
	}
}

// DexURL builds the DexScreener pair page URL for a token address.
func DexURL(chain, address string) string {
	return fmt.Sprintf("https://dexscreener.com/%s/%s", strings.ToLower(chain), address)
}
