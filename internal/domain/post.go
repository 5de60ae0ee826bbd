package domain

import "time"

// SocialPost is one post from the social feed for a tracked token. Posts
// that fail the relevance or follower pre-filter are still stored for
// audit but carry Qualifies=false and never contribute to aggregation.
type SocialPost struct {
	ID            string    `json:"id"`
	TokenSymbol   string    `json:"token_symbol"`
	Text          string    `json:"text"`
	FollowerCount int       `json:"follower_count"`
	AuthorName    string    `json:"author_name"`
	AuthorAvatar  string    `json:"author_avatar"`
	CreatedAt     time.Time `json:"created_at"`
	Score         *float64  `json:"score"` // per-post bullishness, nil when not scored
	Qualifies     bool      `json:"qualifies"`
}
