// Package domain defines the core types shared across the womtracker
// pipeline: discovery candidates, tracked tokens, social posts, and the
// store interfaces that persist them.
package domain

import "time"

// CandidateToken is one raw row from the discovery feed. It lives for a
// single discovery batch: produced by the feed, consumed once by the
// normalize/filter/dedup stages, never persisted as-is.
type CandidateToken struct {
	RawLabel      string   `json:"raw_label"`
	Symbol        string   `json:"symbol"` // canonical cashtag, set by the normalizer
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	AgeHours      *float64 `json:"age_hours"` // nil when the feed omitted the age
	VolumeUSD     float64  `json:"volume_usd"`
	MakerCount    int      `json:"maker_count"`
	LiquidityUSD  float64  `json:"liquidity_usd"`
	MarketCapUSD  float64  `json:"market_cap_usd"`
	PriceChange1h float64  `json:"price_change_1h"`
	SourceURL     string   `json:"source_url"`
}

// TrackedToken is a token that passed admission and is held in the store
// under the rolling retention window. Symbol is the unique key: a later
// discovery of the same symbol replaces every field except CreatedAt.
type TrackedToken struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	AgeHours      float64   `json:"age_hours"`
	VolumeUSD     float64   `json:"volume_usd"`
	MakerCount    int       `json:"maker_count"`
	LiquidityUSD  float64   `json:"liquidity_usd"`
	MarketCapUSD  float64   `json:"market_cap_usd"`
	PriceChange1h float64   `json:"price_change_1h"`
	DexURL        string    `json:"dex_url"`
	WomScore      *float64  `json:"wom_score"` // nil until a scoring pass produced a signal
	PostCount     int       `json:"post_count"`
	CreatedAt     time.Time `json:"created_at"`
}
