// Package store persists the reply history. The orchestrator's hourly and
// daily caps are computed from this history so restarts never reset them.
package store

import (
	"context"
	"time"
)

// Reply is one posted (or simulated) reply.
type Reply struct {
	ID                string    `json:"id"`
	TargetID          string    `json:"target_id"`
	TargetAuthor      string    `json:"target_author"`
	Text              string    `json:"text"`
	Approach          string    `json:"approach"`
	Niche             string    `json:"niche"`
	EligibilityScore  float64   `json:"eligibility_score"`
	MonetizationScore float64   `json:"monetization_score"`
	DryRun            bool      `json:"dry_run"`
	CreatedAt         time.Time `json:"created_at"`
}

// Store defines the reply-history persistence interface.
type Store interface {
	// RecordReply inserts one reply row. The Reply's ID and CreatedAt are
	// assigned by the store if empty.
	RecordReply(ctx context.Context, r *Reply) error

	// CountSince returns how many non-dry-run replies were recorded at or
	// after the cutoff.
	CountSince(ctx context.Context, cutoff time.Time) (int, error)

	// ListRecent returns the newest replies first, at most limit rows.
	ListRecent(ctx context.Context, limit int) ([]Reply, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
