package discovery

import "github.com/cryptolens/womtracker/internal/domain"

// Dedup enforces symbol uniqueness within one discovery batch. The
// iteration is ordered and first-seen-wins: later duplicates of a symbol
// are dropped silently and batch-internal order is preserved.
func Dedup(cands []domain.CandidateToken) []domain.CandidateToken {
	seen := make(map[string]struct{}, len(cands))
	out := make([]domain.CandidateToken, 0, len(cands))
	for _, c := range cands {
		if _, ok := seen[c.Symbol]; ok {
			continue
		}
		seen[c.Symbol] = struct{}{}
		out = append(out, c)
	}
	return out
}
