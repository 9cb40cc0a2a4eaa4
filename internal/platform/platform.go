// Package platform defines the read-only item model and the search/post
// capabilities consumed from the social platform. Transport and auth live
// behind the interfaces; implementations must map HTTP failures onto the
// resilience error taxonomy (see resilience.ErrorFromStatus).
package platform

import (
	"context"
	"time"
)

// Author is the item author's identity and audience stats.
type Author struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Followers int    `json:"followers"`
	Verified  bool   `json:"verified"`
}

// Item is a single post returned by platform search, consumed read-only.
type Item struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    *Author   `json:"author,omitempty"`
	Likes     int       `json:"likes"`
	Retweets  int       `json:"retweets"`
	Replies   int       `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
}

// HasAuthor reports whether the author record resolved. Items without one
// are skipped by the orchestrator.
func (it Item) HasAuthor() bool {
	return it.Author != nil
}

// EngagementRate is raw engagement per follower. Zero followers yield zero.
func (it Item) EngagementRate() float64 {
	if it.Author == nil || it.Author.Followers <= 0 {
		return 0
	}
	return float64(it.Likes+it.Retweets+it.Replies) / float64(it.Author.Followers)
}

// Query describes a platform search.
type Query struct {
	Text       string   `json:"text"`
	Keywords   []string `json:"keywords,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
	Language   string   `json:"language,omitempty"`
}

// Searcher is the platform search capability.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Item, error)
}

// Poster is the platform reply capability. PostReply returns the posted
// reply's ID.
type Poster interface {
	PostReply(ctx context.Context, targetID, text string) (string, error)
}
