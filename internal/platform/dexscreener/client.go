// Package dexscreener is the direct token lookup client backing the
// on-demand search endpoint. Unlike discovery, it talks to the public
// DexScreener token API without an intermediary scrape job.
package dexscreener

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cryptolens/womtracker/internal/domain"
)

// browserUserAgents are rotated per request; the public API throttles
// non-browser agents aggressively.
var browserUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// TokenInfo is the lookup result served to API clients.
type TokenInfo struct {
	Symbol        string   `json:"symbol"`
	PriceUSD      string   `json:"price_usd"`
	MarketCapUSD  float64  `json:"market_cap_usd"`
	LiquidityUSD  float64  `json:"liquidity_usd"`
	Volume24hUSD  float64  `json:"volume_24h_usd"`
	PriceChange1h float64  `json:"price_change_1h"`
	AgeHours      *float64 `json:"age_hours"` // nil when the pair creation time is unknown
	DexURL        string   `json:"dex_url"`
}

// Client queries the DexScreener token API.
type Client struct {
	http *resty.Client
}

// New creates a Client for the given API root,
// e.g. "https://api.dexscreener.com/tokens/v1".
func New(baseURL string) *Client {
	httpc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second)

	return &Client{http: httpc}
}

// tokenPair mirrors one entry of the token API response array.
type tokenPair struct {
	URL       string `json:"url"`
	BaseToken struct {
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD  string `json:"priceUsd"`
	MarketCap float64 `json:"marketCap"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H1 float64 `json:"h1"`
	} `json:"priceChange"`
	PairCreatedAt int64 `json:"pairCreatedAt"` // unix millis, 0 when unknown
}

// GetToken looks up a token by chain and address. It returns
// domain.ErrNotFound when the API knows no pair for the address.
func (c *Client) GetToken(ctx context.Context, chainID, address string) (TokenInfo, error) {
	var pairs []tokenPair
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", browserUserAgents[rand.Intn(len(browserUserAgents))]).
		SetResult(&pairs).
		Get(fmt.Sprintf("/%s/%s", chainID, address))
	if err != nil {
		return TokenInfo{}, fmt.Errorf("dexscreener: get token %s/%s: %w", chainID, address, err)
	}
	if resp.IsError() {
		return TokenInfo{}, fmt.Errorf("dexscreener: get token %s/%s: status %s: %w",
			chainID, address, resp.Status(), domain.ErrExternalService)
	}
	if len(pairs) == 0 {
		return TokenInfo{}, domain.ErrNotFound
	}

	p := pairs[0]
	info := TokenInfo{
		Symbol:        p.BaseToken.Symbol,
		PriceUSD:      p.PriceUSD,
		MarketCapUSD:  p.MarketCap,
		LiquidityUSD:  p.Liquidity.USD,
		Volume24hUSD:  p.Volume.H24,
		PriceChange1h: p.PriceChange.H1,
		DexURL:        p.URL,
	}
	if p.PairCreatedAt > 0 {
		hours := time.Since(time.UnixMilli(p.PairCreatedAt)).Hours()
		rounded := float64(int(hours*100)) / 100
		info.AgeHours = &rounded
	}
	return info, nil
}
