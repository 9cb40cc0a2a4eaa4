//go:build !integration

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/reachpoint/replybot/internal/platform"
	"github.com/reachpoint/replybot/internal/scorer"
	"github.com/reachpoint/replybot/internal/store"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactlyten", truncate("exactlyten", 10))
	assert.Equal(t, "truncated…", truncate("truncated here", 10))
	// Rune-aware: multi-byte characters count as one.
	assert.Equal(t, "日本語", truncate("日本語", 3))
}

func TestWriteScoreTable(t *testing.T) {
	var sb strings.Builder
	writeScoreTable(&sb, []scorer.Scored{
		{
			Item: platform.Item{
				ID:   "p1",
				Text: "we shipped our ai feature",
				Author: &platform.Author{
					Username: "builder",
				},
			},
			Niche:             "tech",
			EligibilityScore:  0.72,
			MonetizationScore: 85,
		},
	})

	out := sb.String()
	assert.Contains(t, out, "RANK")
	assert.Contains(t, out, "p1")
	assert.Contains(t, out, "@builder")
	assert.Contains(t, out, "tech")
	assert.Contains(t, out, "0.72")
	assert.Contains(t, out, "85")
}

func TestWriteScoreTable_NoAuthor(t *testing.T) {
	var sb strings.Builder
	writeScoreTable(&sb, []scorer.Scored{
		{Item: platform.Item{ID: "ghost", Text: "orphan"}},
	})
	assert.Contains(t, sb.String(), "ghost")
}

func TestWriteHistoryTable(t *testing.T) {
	var sb strings.Builder
	writeHistoryTable(&sb, []store.Reply{
		{
			TargetID:  "p1",
			Niche:     "finance",
			Text:      "dividends compound quietly",
			DryRun:    true,
			CreatedAt: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		},
		{
			TargetID:  "p2",
			Niche:     "tech",
			Text:      "nice latency numbers",
			CreatedAt: time.Date(2025, 6, 15, 11, 0, 0, 0, time.UTC),
		},
	})

	out := sb.String()
	assert.Contains(t, out, "dry-run")
	assert.Contains(t, out, "posted")
	assert.Contains(t, out, "2025-06-15 12:00")
	assert.Contains(t, out, "finance")
}
