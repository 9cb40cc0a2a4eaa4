//go:build !integration

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reachpoint/replybot/internal/cache"
	"github.com/reachpoint/replybot/internal/config"
	"github.com/reachpoint/replybot/internal/generation"
	"github.com/reachpoint/replybot/internal/orchestrator"
	"github.com/reachpoint/replybot/internal/ratelimit"
	"github.com/reachpoint/replybot/internal/resilience"
	"github.com/reachpoint/replybot/internal/scorer"
	"github.com/reachpoint/replybot/internal/store"
	"github.com/reachpoint/replybot/internal/telemetry"
)

func testOrchestrator(t *testing.T) *orchestrator.Orchestrator {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	testCfg := &config.Config{
		Automation: config.AutomationConfig{DryRun: true},
		Scorer:     scorer.DefaultConfig(),
	}
	return orchestrator.New(testCfg, orchestrator.Deps{
		Scorer:    scorer.New(testCfg.Scorer),
		Breaker:   resilience.NewBreaker(resilience.DefaultBreakerConfig()),
		ReplyGate: ratelimit.NewBucket(3, 0.2),
		GenGate:   ratelimit.NewBucket(10, 2),
		Cache:     cache.New[*generation.Result](),
		Recorder:  telemetry.NewRecorder(),
		Store:     st,
	})
}

func TestRouter_Health(t *testing.T) {
	router := newRouter(testOrchestrator(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestRouter_Status(t *testing.T) {
	router := newRouter(testOrchestrator(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var st orchestrator.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.DryRun)
	assert.Equal(t, 0, st.RepliesLastHour)
	assert.Equal(t, 3, st.ReplyGate.Capacity)
	assert.Equal(t, "closed", st.Breaker.State)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newRouter(testOrchestrator(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
