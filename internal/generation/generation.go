// Package generation wraps the reply-generation provider with rate gating,
// bounded retries, response caching, and telemetry. The provider itself is
// an opaque capability; pkg/anthropic supplies the production
// implementation.
package generation

import (
	"strconv"

	"github.com/reachpoint/replybot/internal/cache"
)

// Request describes one reply-generation call. Every field that changes the
// provider's output participates in the cache key.
type Request struct {
	TargetID     string  `json:"target_id"`
	TargetText   string  `json:"target_text"`
	TargetAuthor string  `json:"target_author"`
	Niche        string  `json:"niche"`
	Model        string  `json:"model"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int64   `json:"max_tokens"`
	// MaxStrategies is how many alternative reply strategies to request.
	MaxStrategies int `json:"max_strategies"`
}

// CacheKey derives the deterministic response cache key for this request.
func (r Request) CacheKey() string {
	return cache.Key(
		r.TargetID,
		r.TargetText,
		r.TargetAuthor,
		r.Niche,
		r.Model,
		strconv.FormatFloat(r.Temperature, 'f', -1, 64),
		strconv.FormatInt(r.MaxTokens, 10),
		strconv.Itoa(r.MaxStrategies),
	)
}

// Strategy is one generated reply variant with the provider's own scoring.
// The scores are used only to pick the best strategy for a candidate.
type Strategy struct {
	Text              string  `json:"text"`
	Approach          string  `json:"approach"`
	AlgorithmScore    float64 `json:"algorithm_score"`
	MonetizationScore float64 `json:"monetization_score"`
}

// Result is the structured output of one generation call.
type Result struct {
	Strategies []Strategy `json:"strategies"`
	Model      string     `json:"model"`
}
