// Package scorer ranks platform items by reply-worthiness and monetization
// value. Scoring is deterministic: no randomness, no I/O.
package scorer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/reachpoint/replybot/internal/config"
	"github.com/reachpoint/replybot/internal/platform"
)

// Scored is a platform item with its derived scores. Created per search
// cycle and discarded after.
type Scored struct {
	Item              platform.Item `json:"item"`
	Niche             string        `json:"niche"`
	EligibilityScore  float64       `json:"eligibility_score"`
	MonetizationScore float64       `json:"monetization_score"`
	Reasons           []string      `json:"reasons"`
}

// Scorer computes eligibility and monetization scores for platform items.
type Scorer struct {
	cfg config.ScorerConfig

	// nowFunc allows test injection of time for the recency and
	// time-of-day terms.
	nowFunc func() time.Time
}

// New creates a Scorer with the given config.
func New(cfg config.ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg, nowFunc: time.Now}
}

// WithNow sets a fixed time for testing.
func (s *Scorer) WithNow(t time.Time) *Scorer {
	s.nowFunc = func() time.Time { return t }
	return s
}

// Score computes both scores and the rationale tags for one item. Items
// without an author score zero eligibility.
func (s *Scorer) Score(item platform.Item) Scored {
	out := Scored{
		Item:  item,
		Niche: ClassifyNiche(item.Text),
	}
	if item.Author == nil {
		out.Reasons = append(out.Reasons, "no_author")
		return out
	}

	out.EligibilityScore = s.eligibility(item, out.Niche, &out.Reasons)
	out.MonetizationScore = s.monetization(item, out.Niche)
	return out
}

// Rank scores items, drops those below the minimum eligibility, and sorts
// by the blended ranking key. The sort is stable so ties keep discovery
// order.
func (s *Scorer) Rank(items []platform.Item) []Scored {
	scored := make([]Scored, 0, len(items))
	for _, item := range items {
		sc := s.Score(item)
		if sc.EligibilityScore < s.cfg.MinEligibility {
			continue
		}
		scored = append(scored, sc)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return s.rankKey(scored[i]) > s.rankKey(scored[j])
	})
	return scored
}

// rankKey blends the two scores with the configured weights, monetization
// normalized to [0,1].
func (s *Scorer) rankKey(sc Scored) float64 {
	return s.cfg.RankMonetizationWeight*(sc.MonetizationScore/100) +
		s.cfg.RankEligibilityWeight*sc.EligibilityScore
}

// eligibility sums independently capped terms and caps the total at 1.0.
func (s *Scorer) eligibility(item platform.Item, niche string, reasons *[]string) float64 {
	cfg := s.cfg
	author := item.Author
	total := 0.0

	// Weighted engagement rate: likes and retweets dominate replies.
	if author.Followers > 0 {
		weighted := float64(item.Likes*30+item.Retweets*20+item.Replies) / float64(author.Followers)
		term := math.Min(weighted*cfg.EngagementScale, cfg.EngagementCap)
		total += term
		if term >= cfg.EngagementCap {
			*reasons = append(*reasons, "high_engagement_rate")
		}
	}

	// Audience size on a log scale.
	total += math.Min(math.Log10(float64(author.Followers)+1)*cfg.FollowerLogFactor, cfg.FollowerLogCap)

	// Recency: linear decay over the freshness window.
	if window := cfg.FreshnessWindow(); window > 0 {
		age := s.nowFunc().Sub(item.CreatedAt)
		if age < 0 {
			age = 0
		}
		if age < window {
			frac := 1 - float64(age)/float64(window)
			total += frac * cfg.RecencyCap
			if frac > 0.5 {
				*reasons = append(*reasons, "fresh")
			}
		}
	}

	if author.Verified {
		total += cfg.VerifiedBonus
		*reasons = append(*reasons, "verified_author")
	}

	if b := nicheBonus(niche, cfg.NicheBonusCap); b > 0 {
		total += b
		*reasons = append(*reasons, "niche:"+niche)
	}

	if b := competitionBonus(item.Replies); b > 0 {
		total += b
		*reasons = append(*reasons, fmt.Sprintf("low_competition:%d_replies", item.Replies))
	}

	if b := audienceBonus(item.EngagementRate()); b > 0 {
		total += b
		*reasons = append(*reasons, "active_audience")
	}

	if hour := s.nowFunc().Hour(); hour >= cfg.PeakStartHour && hour < cfg.PeakEndHour {
		total += cfg.PeakBonus
		*reasons = append(*reasons, "peak_hours")
	}

	return math.Min(total, 1.0)
}

// monetization combines banded terms, capped at 100.
func (s *Scorer) monetization(item platform.Item, niche string) float64 {
	author := item.Author
	total := 0.0

	if author.Verified {
		total += 25
	}

	total += nicheTier(niche)
	total += followerBand(author.Followers)
	total += monetizationCompetitionBand(item.Replies)
	total += engagementBand(item.EngagementRate())

	return math.Min(total, 100)
}

// competitionBonus is the eligibility step function: fewer existing replies
// means a better chance of visibility.
func competitionBonus(replies int) float64 {
	switch {
	case replies <= 5:
		return 0.15
	case replies <= 15:
		return 0.08
	case replies <= 40:
		return 0.03
	default:
		return 0
	}
}

// audienceBonus is the eligibility step function on raw engagement rate.
func audienceBonus(rate float64) float64 {
	switch {
	case rate >= 0.02:
		return 0.08
	case rate >= 0.005:
		return 0.04
	default:
		return 0
	}
}

// followerBand rewards the sweet spot: large enough to matter, small enough
// that a reply gets seen.
func followerBand(followers int) float64 {
	switch {
	case followers >= 10_000 && followers < 100_000:
		return 25
	case followers >= 1_000 && followers < 10_000:
		return 18
	case followers >= 100_000 && followers < 500_000:
		return 15
	case followers >= 500_000:
		return 8
	default:
		return 5
	}
}

func monetizationCompetitionBand(replies int) float64 {
	switch {
	case replies <= 5:
		return 15
	case replies <= 20:
		return 8
	case replies <= 50:
		return 3
	default:
		return 0
	}
}

func engagementBand(rate float64) float64 {
	switch {
	case rate >= 0.02:
		return 10
	case rate >= 0.01:
		return 6
	case rate >= 0.003:
		return 3
	default:
		return 0
	}
}
