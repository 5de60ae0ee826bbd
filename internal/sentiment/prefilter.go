package sentiment

import (
	"regexp"
	"strings"
)

// DefaultMinFollowers is the default author follower floor below which a
// post never contributes to aggregation.
const DefaultMinFollowers = 150

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	mentionPattern = regexp.MustCompile(`@\w+`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// spamMarkers flag boilerplate promo posts that carry no sentiment about
// the token itself.
var spamMarkers = []string{
	"giveaway",
	"airdrop",
	"whitelist",
	"presale live",
	"join now",
	"follow and retweet",
	"tag 3 friends",
}

// Preprocess strips URLs and @mentions from a raw post and collapses
// whitespace, leaving the text the classifier actually scores.
func Preprocess(raw string) string {
	text := urlPattern.ReplaceAllString(raw, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Relevant reports whether a preprocessed post is worth scoring. Empty or
// near-empty posts, posts that are mostly tags, and recognizable promo
// boilerplate are rejected.
func Relevant(text string) bool {
	if len(text) < 8 {
		return false
	}

	lower := strings.ToLower(text)
	for _, marker := range spamMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}

	fields := strings.Fields(text)
	tags := 0
	for _, f := range fields {
		if strings.HasPrefix(f, "$") || strings.HasPrefix(f, "#") {
			tags++
		}
	}
	// A post that is over half cashtags/hashtags is tag spam.
	return tags*2 <= len(fields)
}

// Qualifies runs the full pre-filter for one post: author follower floor
// plus the relevance check on the preprocessed text. Rejection is not an
// error; the post is simply excluded from aggregation.
func Qualifies(text string, followerCount, minFollowers int) bool {
	if followerCount < minFollowers {
		return false
	}
	return Relevant(text)
}
