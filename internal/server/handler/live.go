package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cryptolens/womtracker/internal/discovery"
	"github.com/cryptolens/womtracker/internal/domain"
	"github.com/cryptolens/womtracker/internal/sentiment"
)

// PostFetcher retrieves recent social posts for a search term.
type PostFetcher interface {
	FetchPosts(ctx context.Context, searchTerm string) ([]domain.SocialPost, error)
}

// LiveHandler serves on-demand post fetches: posts are pulled from the
// feed and scored per request, never stored. Only processes that run the
// pipeline carry a feed and scorer; elsewhere the endpoint reports 501.
type LiveHandler struct {
	feed         PostFetcher
	scorer       *sentiment.Scorer
	minFollowers int
	logger       *slog.Logger
}

// NewLiveHandler creates a LiveHandler. feed and scorer may be nil when
// this process does not run the pipeline.
func NewLiveHandler(feed PostFetcher, scorer *sentiment.Scorer, minFollowers int, logger *slog.Logger) *LiveHandler {
	if minFollowers <= 0 {
		minFollowers = sentiment.DefaultMinFollowers
	}
	return &LiveHandler{
		feed:         feed,
		scorer:       scorer,
		minFollowers: minFollowers,
		logger:       logger.With(slog.String("handler", "live")),
	}
}

// LivePosts fetches and scores the token's recent posts on demand. The
// response carries every fetched post with its per-post score where one
// exists, plus the aggregate; wom_score is null when nothing qualifies.
// GET /api/tokens/{symbol}/live
func (h *LiveHandler) LivePosts(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil || h.scorer == nil {
		writeError(w, http.StatusNotImplemented, "live scoring requires the pipeline feeds")
		return
	}

	sym := symbolParam(r)
	if sym == "" {
		writeError(w, http.StatusBadRequest, "missing symbol")
		return
	}

	ctx := r.Context()
	posts, err := h.feed.FetchPosts(ctx, discovery.SearchTerm(sym))
	if err != nil {
		h.logger.ErrorContext(ctx, "live fetch failed",
			slog.String("symbol", sym),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch posts")
		return
	}

	var values []float64
	for i := range posts {
		posts[i].TokenSymbol = sym
		text := sentiment.Preprocess(posts[i].Text)
		if !sentiment.Qualifies(text, posts[i].FollowerCount, h.minFollowers) {
			continue
		}

		value, err := h.scorer.Bullishness(ctx, text)
		if err != nil {
			if errors.Is(err, domain.ErrNoSignal) {
				continue
			}
			h.logger.ErrorContext(ctx, "live scoring failed",
				slog.String("symbol", sym),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusBadGateway, "failed to score posts")
			return
		}

		posts[i].Score = &value
		posts[i].Qualifies = true
		values = append(values, value)
	}

	var womScore *float64
	if score, ok := sentiment.Aggregate(values); ok {
		womScore = &score
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":     sym,
		"posts":      posts,
		"wom_score":  womScore,
		"post_count": len(values),
	})
}
