package highlights

import (
	"sort"

	"github.com/shortreel/shortreel/internal/types"
)

// Aggregate reduces the union of all chunks' candidates to the final
// highlight set: rank by score descending (ties broken by longer
// duration, then earlier start), keep the top maxHighlights, then re-sort
// chronologically. The chronological order is what downstream rendering
// consumes, regardless of the order chunk results arrived in.
func Aggregate(cands []types.Candidate, maxHighlights int) []types.Highlight {
	if len(cands) == 0 || maxHighlights <= 0 {
		return nil
	}

	ranked := make([]types.Candidate, len(cands))
	copy(ranked, cands)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Duration() != b.Duration() {
			return a.Duration() > b.Duration()
		}
		return a.Start < b.Start
	})

	if len(ranked) > maxHighlights {
		ranked = ranked[:maxHighlights]
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Start < ranked[j].Start })

	out := make([]types.Highlight, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, types.Highlight{
			Start:  c.Start,
			End:    c.End,
			Text:   c.Text,
			Score:  c.Score,
			Reason: c.Reason,
		})
	}
	return out
}
