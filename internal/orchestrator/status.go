package orchestrator

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/reachpoint/replybot/internal/cache"
	"github.com/reachpoint/replybot/internal/telemetry"
)

// BucketStatus is one token bucket's current fill.
type BucketStatus struct {
	Tokens   float64 `json:"tokens"`
	Capacity int     `json:"capacity"`
}

// BreakerStatus is the circuit breaker's observable state.
type BreakerStatus struct {
	State    string `json:"state"`
	Failures int    `json:"failures"`
}

// Status is a point-in-time snapshot of the engine for the status command
// and the HTTP status endpoint.
type Status struct {
	Timestamp       time.Time         `json:"timestamp"`
	Enabled         bool              `json:"enabled"`
	DryRun          bool              `json:"dry_run"`
	Metrics         telemetry.Metrics `json:"metrics"`
	Cache           cache.Stats       `json:"cache"`
	GenerationGate  BucketStatus      `json:"generation_gate"`
	ReplyGate       BucketStatus      `json:"reply_gate"`
	Breaker         BreakerStatus     `json:"breaker"`
	LastReplyAt     time.Time         `json:"last_reply_at,omitempty"`
	RepliesLastHour int               `json:"replies_last_hour"`
	RepliesLastDay  int               `json:"replies_last_day"`
}

// Status assembles the engine snapshot. Reply counts come from the persisted
// history so they survive restarts.
func (o *Orchestrator) Status(ctx context.Context) (*Status, error) {
	now := o.nowFunc()

	hourly, err := o.deps.Store.CountSince(ctx, now.Add(-time.Hour))
	if err != nil {
		return nil, eris.Wrap(err, "status: hourly count")
	}
	daily, err := o.deps.Store.CountSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return nil, eris.Wrap(err, "status: daily count")
	}

	failures, state := o.deps.Breaker.Counters()

	o.mu.Lock()
	lastReply := o.lastReply
	o.mu.Unlock()

	return &Status{
		Timestamp: now,
		Enabled:   o.cfg.Automation.Enabled,
		DryRun:    o.dryRun(),
		Metrics:   o.deps.Recorder.Metrics(),
		Cache:     o.deps.Cache.Stats(),
		GenerationGate: BucketStatus{
			Tokens:   o.deps.GenGate.Tokens(),
			Capacity: o.deps.GenGate.Capacity(),
		},
		ReplyGate: BucketStatus{
			Tokens:   o.deps.ReplyGate.Tokens(),
			Capacity: o.deps.ReplyGate.Capacity(),
		},
		Breaker: BreakerStatus{
			State:    state.String(),
			Failures: failures,
		},
		LastReplyAt:     lastReply,
		RepliesLastHour: hourly,
		RepliesLastDay:  daily,
	}, nil
}
