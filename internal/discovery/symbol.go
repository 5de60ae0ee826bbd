// Package discovery turns the raw candidate feed into an admitted,
// deduplicated token set: symbol normalization, threshold filtering, and
// first-seen-wins dedup.
package discovery

import "strings"

// UnknownSymbol is the sentinel cashtag substituted for labels that
// cannot be parsed. Candidates carrying it are always rejected by the
// filter so the sentinel never reaches the store.
const UnknownSymbol = "$UNKNOWN"

// poolMarkers are the pool-type tags DexScreener embeds between the
// token name and symbol in a pair label.
var poolMarkers = map[string]bool{
	"DLMM": true,
	"CLMM": true,
	"CPMM": true,
}

// Normalize parses a raw pair label into a canonical cashtag. Labels are
// whitespace-separated; when a pool marker occupies the second field the
// symbol is the third field, otherwise the second. Malformed labels fail
// soft to UnknownSymbol.
func Normalize(rawLabel string) string {
	parts := strings.Fields(rawLabel)
	if len(parts) < 2 {
		return UnknownSymbol
	}

	symbol := parts[1]
	if poolMarkers[parts[1]] {
		if len(parts) < 3 {
			return UnknownSymbol
		}
		symbol = parts[2]
	}

	return "$" + strings.TrimSpace(symbol)
}

// SearchTerm returns the term used to query the post feed for a cashtag.
// Cashtags longer than six characters are searched without the "$"
// prefix; search engines match long tags poorly with the marker attached.
func SearchTerm(cashtag string) string {
	if len(cashtag) > 6 {
		return strings.TrimPrefix(cashtag, "$")
	}
	return cashtag
}
