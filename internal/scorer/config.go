package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/reachpoint/replybot/internal/config"
)

// DefaultConfig returns a config.ScorerConfig with sensible defaults.
// Eligibility term caps sum slightly above 1.0; the total is clamped.
func DefaultConfig() config.ScorerConfig {
	return config.ScorerConfig{
		EngagementScale:   1.0,
		EngagementCap:     0.25,
		FollowerLogFactor: 0.02,
		FollowerLogCap:    0.10,
		RecencyCap:        0.20,
		FreshnessMinutes:  60,
		VerifiedBonus:     0.10,
		NicheBonusCap:     0.15,
		PeakStartHour:     9,
		PeakEndHour:       21,
		PeakBonus:         0.05,

		MinEligibility: 0.40,

		RankMonetizationWeight: 0.60,
		RankEligibilityWeight:  0.40,
	}
}

// ValidateConfig checks that a ScorerConfig is internally consistent.
func ValidateConfig(c config.ScorerConfig) error {
	var errs []string

	caps := map[string]float64{
		"engagement_cap":      c.EngagementCap,
		"follower_log_cap":    c.FollowerLogCap,
		"recency_cap":         c.RecencyCap,
		"verified_bonus":      c.VerifiedBonus,
		"niche_bonus_cap":     c.NicheBonusCap,
		"peak_bonus":          c.PeakBonus,
		"engagement_scale":    c.EngagementScale,
		"follower_log_factor": c.FollowerLogFactor,
	}
	for name, v := range caps {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if c.MinEligibility < 0 || c.MinEligibility > 1 {
		errs = append(errs, "min_eligibility must be between 0 and 1")
	}

	if c.RankMonetizationWeight < 0 || c.RankEligibilityWeight < 0 {
		errs = append(errs, "rank weights must be >= 0")
	}
	if sum := c.RankMonetizationWeight + c.RankEligibilityWeight; sum <= 0 {
		errs = append(errs, "rank weight sum must be > 0")
	}

	if c.FreshnessMinutes < 0 {
		errs = append(errs, "freshness_minutes must be >= 0")
	}

	if c.PeakStartHour < 0 || c.PeakStartHour > 23 {
		errs = append(errs, "peak_start_hour must be between 0 and 23")
	}
	if c.PeakEndHour < 0 || c.PeakEndHour > 24 {
		errs = append(errs, "peak_end_hour must be between 0 and 24")
	}
	if c.PeakEndHour < c.PeakStartHour {
		errs = append(errs, "peak_end_hour must be >= peak_start_hour")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
