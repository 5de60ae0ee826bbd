package apify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cryptolens/womtracker/internal/domain"
)

// PostConfig parameterizes the social post feed.
type PostConfig struct {
	ActorID      string
	MaxItems     int
	Language     string
	PollInterval time.Duration
	MaxPollWait  time.Duration
}

// PostFeed fetches recent posts for a search term from the tweet scraper
// actor, using the same submit/poll/fetch shape as discovery.
type PostFeed struct {
	client *Client
	cfg    PostConfig
	logger *slog.Logger
}

// NewPostFeed creates a PostFeed on top of the shared client.
func NewPostFeed(client *Client, cfg PostConfig, logger *slog.Logger) *PostFeed {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 50
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MaxPollWait <= 0 {
		cfg.MaxPollWait = 3 * time.Minute
	}
	return &PostFeed{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "post_feed")),
	}
}

// rawPost mirrors one tweet-scraper dataset item.
type rawPost struct {
	ID                 string `json:"id"`
	Text               string `json:"text"`
	UserFollowersCount int    `json:"userFollowersCount"`
	UserName           string `json:"userName"`
	ProfilePicture     string `json:"profilePicture"`
	CreatedAt          string `json:"createdAt"`
}

// postTimeLayouts are the timestamp shapes the scraper has been seen to
// emit, tried in order.
var postTimeLayouts = []string{
	time.RFC3339,
	"Mon Jan 02 15:04:05 -0700 2006",
	"2006-01-02 15:04:05",
}

// FetchPosts runs one scrape job for searchTerm and maps the dataset to
// social posts. Posts missing an ID get a generated one so they can
// still be persisted for audit without colliding.
func (f *PostFeed) FetchPosts(ctx context.Context, searchTerm string) ([]domain.SocialPost, error) {
	input := map[string]any{
		"searchTerms":   []string{searchTerm},
		"maxItems":      f.cfg.MaxItems,
		"sort":          "Latest",
		"tweetLanguage": f.cfg.Language,
	}

	runID, err := f.client.StartRun(ctx, f.cfg.ActorID, input)
	if err != nil {
		return nil, err
	}

	datasetID, err := f.client.WaitForRun(ctx, runID, f.cfg.PollInterval, f.cfg.MaxPollWait)
	if err != nil {
		return nil, err
	}

	var items []rawPost
	if err := f.client.DatasetItems(ctx, datasetID, &items); err != nil {
		return nil, err
	}

	posts := make([]domain.SocialPost, 0, len(items))
	for _, it := range items {
		id := it.ID
		if id == "" {
			id = uuid.New().String()
		}
		posts = append(posts, domain.SocialPost{
			ID:            id,
			Text:          it.Text,
			FollowerCount: it.UserFollowersCount,
			AuthorName:    it.UserName,
			AuthorAvatar:  it.ProfilePicture,
			CreatedAt:     parsePostTime(it.CreatedAt),
		})
	}

	f.logger.DebugContext(ctx, "post batch fetched",
		slog.String("search_term", searchTerm),
		slog.Int("posts", len(posts)),
	)
	return posts, nil
}

func parsePostTime(raw string) time.Time {
	for _, layout := range postTimeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
