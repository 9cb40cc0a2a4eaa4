package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_RecordReply_AssignsIDAndTimestamp(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	r := &Reply{
		TargetID:     "post-1",
		TargetAuthor: "someone",
		Text:         "a thoughtful reply",
		Approach:     "insight",
		Niche:        "tech",
	}
	require.NoError(t, st.RecordReply(ctx, r))
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())
}

func TestSQLite_CountSince(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, age := range []time.Duration{5 * time.Minute, 30 * time.Minute, 3 * time.Hour} {
		r := &Reply{
			TargetID:     "post",
			TargetAuthor: "someone",
			Text:         "reply",
			CreatedAt:    now.Add(-age),
		}
		require.NoError(t, st.RecordReply(ctx, r), "reply %d", i)
	}

	hourly, err := st.CountSince(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, hourly)

	daily, err := st.CountSince(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, daily)
}

func TestSQLite_CountSince_ExcludesDryRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.RecordReply(ctx, &Reply{
		TargetID: "p1", TargetAuthor: "a", Text: "posted", CreatedAt: now,
	}))
	require.NoError(t, st.RecordReply(ctx, &Reply{
		TargetID: "p2", TargetAuthor: "a", Text: "simulated", DryRun: true, CreatedAt: now,
	}))

	n, err := st.CountSince(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLite_ListRecent_NewestFirst(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, id := range []string{"oldest", "middle", "newest"} {
		require.NoError(t, st.RecordReply(ctx, &Reply{
			ID:           id,
			TargetID:     "post",
			TargetAuthor: "someone",
			Text:         "reply",
			CreatedAt:    now.Add(time.Duration(i) * time.Minute),
		}))
	}

	replies, err := st.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "newest", replies[0].ID)
	assert.Equal(t, "middle", replies[1].ID)
}

func TestSQLite_ListRecent_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	replies, err := st.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, replies)
}

func TestSQLite_RoundTripFields(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	in := &Reply{
		TargetID:          "post-9",
		TargetAuthor:      "builder",
		Text:              "ship it",
		Approach:          "question",
		Niche:             "tech",
		EligibilityScore:  0.72,
		MonetizationScore: 64,
		DryRun:            true,
	}
	require.NoError(t, st.RecordReply(ctx, in))

	replies, err := st.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, replies, 1)

	got := replies[0]
	assert.Equal(t, in.ID, got.ID)
	assert.Equal(t, "post-9", got.TargetID)
	assert.Equal(t, "question", got.Approach)
	assert.Equal(t, 0.72, got.EligibilityScore)
	assert.Equal(t, 64.0, got.MonetizationScore)
	assert.True(t, got.DryRun)
}
