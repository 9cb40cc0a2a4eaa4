package generation

import "github.com/reachpoint/replybot/internal/textwidth"

// blend weights the provider's two per-strategy scores equally; they are
// only used to order strategies for one candidate.
func blend(s Strategy) float64 {
	return 0.5*s.AlgorithmScore + 0.5*s.MonetizationScore
}

// BestStrategy picks the highest-scoring strategy whose weighted length
// fits the platform limit. Strategies over the limit are considered only if
// nothing fits, in which case ok is false and the caller should not post.
// Ties keep provider order.
func BestStrategy(strategies []Strategy, limit int) (best Strategy, ok bool) {
	bestScore := -1.0
	for _, s := range strategies {
		if s.Text == "" || textwidth.IsOverLimit(s.Text, limit) {
			continue
		}
		if sc := blend(s); sc > bestScore {
			best = s
			bestScore = sc
			ok = true
		}
	}
	return best, ok
}
