package apify

import (
	"context"
	"log/slog"
	"time"

	"github.com/cryptolens/womtracker/internal/domain"
)

// DiscoveryConfig parameterizes the pair-discovery feed.
type DiscoveryConfig struct {
	ActorID      string
	Chain        string
	FilterArgs   []string
	PollInterval time.Duration
	MaxPollWait  time.Duration
}

// DiscoveryFeed fetches candidate pairs from the DexScreener scraper
// actor. One Fetch is one logical job: submit, poll until terminal,
// fetch dataset items.
type DiscoveryFeed struct {
	client *Client
	cfg    DiscoveryConfig
	logger *slog.Logger
}

// NewDiscoveryFeed creates a DiscoveryFeed on top of the shared client.
func NewDiscoveryFeed(client *Client, cfg DiscoveryConfig, logger *slog.Logger) *DiscoveryFeed {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MaxPollWait <= 0 {
		cfg.MaxPollWait = 5 * time.Minute
	}
	return &DiscoveryFeed{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "discovery_feed")),
	}
}

// rawPair mirrors one DexScreener scraper dataset item. Age stays a
// pointer: the scraper omits it for pairs it could not date, and that
// absence must survive into the candidate.
type rawPair struct {
	TokenName     string   `json:"tokenName"`
	TokenSymbol   string   `json:"tokenSymbol"`
	Age           *float64 `json:"age"`
	VolumeUSD     float64  `json:"volumeUsd"`
	MakerCount    int      `json:"makerCount"`
	LiquidityUSD  float64  `json:"liquidityUsd"`
	MarketCapUSD  float64  `json:"marketCapUsd"`
	PriceChange1h float64  `json:"priceChange1h"`
	Address       string   `json:"address"`
	URL           string   `json:"url"`
}

// FetchCandidates runs one discovery job and maps the dataset into raw
// candidates. Symbols are left empty; normalization is the pipeline's
// first stage, not the feed's.
func (f *DiscoveryFeed) FetchCandidates(ctx context.Context) ([]domain.CandidateToken, error) {
	input := map[string]any{
		"chainName":  f.cfg.Chain,
		"filterArgs": f.cfg.FilterArgs,
		"fromPage":   1,
		"toPage":     1,
	}

	runID, err := f.client.StartRun(ctx, f.cfg.ActorID, input)
	if err != nil {
		return nil, err
	}
	f.logger.DebugContext(ctx, "discovery run submitted", slog.String("run_id", runID))

	datasetID, err := f.client.WaitForRun(ctx, runID, f.cfg.PollInterval, f.cfg.MaxPollWait)
	if err != nil {
		return nil, err
	}

	var items []rawPair
	if err := f.client.DatasetItems(ctx, datasetID, &items); err != nil {
		return nil, err
	}

	cands := make([]domain.CandidateToken, 0, len(items))
	for _, it := range items {
		cands = append(cands, domain.CandidateToken{
			RawLabel:      it.TokenSymbol,
			Name:          it.TokenName,
			Address:       it.Address,
			AgeHours:      it.Age,
			VolumeUSD:     it.VolumeUSD,
			MakerCount:    it.MakerCount,
			LiquidityUSD:  it.LiquidityUSD,
			MarketCapUSD:  it.MarketCapUSD,
			PriceChange1h: it.PriceChange1h,
			SourceURL:     it.URL,
		})
	}

	f.logger.InfoContext(ctx, "discovery batch fetched",
		slog.String("run_id", runID),
		slog.Int("candidates", len(cands)),
	)
	return cands, nil
}
