// Package orchestrator runs the automation cycle: search, score, generate,
// gate, then post or simulate. Every dependency is injected; the orchestrator
// owns no global state and never panics past RunCycle.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reachpoint/replybot/internal/cache"
	"github.com/reachpoint/replybot/internal/config"
	"github.com/reachpoint/replybot/internal/generation"
	"github.com/reachpoint/replybot/internal/platform"
	"github.com/reachpoint/replybot/internal/ratelimit"
	"github.com/reachpoint/replybot/internal/resilience"
	"github.com/reachpoint/replybot/internal/scorer"
	"github.com/reachpoint/replybot/internal/store"
	"github.com/reachpoint/replybot/internal/telemetry"
)

// Outcome classifies how a cycle ended.
type Outcome string

const (
	OutcomeReplied      Outcome = "replied"
	OutcomeSimulated    Outcome = "simulated"
	OutcomeNoCandidates Outcome = "no_candidates"
	OutcomeGated        Outcome = "gated"
	OutcomeFailed       Outcome = "failed"
	OutcomeBusy         Outcome = "cycle_already_running"
)

// Cycle stages, reported in CycleResult.Stage.
const (
	StageSearching  = "searching"
	StageScoring    = "scoring"
	StageGenerating = "generating"
	StageGating     = "gating"
	StagePosting    = "posting"
	StageSimulating = "simulating"
)

// CycleResult is the structured outcome of one RunCycle. Err is set only for
// OutcomeFailed and OutcomeGated.
type CycleResult struct {
	Outcome   Outcome   `json:"outcome"`
	Stage     string    `json:"stage"`
	TargetID  string    `json:"target_id,omitempty"`
	ReplyID   string    `json:"reply_id,omitempty"`
	ReplyText string    `json:"reply_text,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Err       error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// Generator is the resilient generation capability (see generation.Caller).
type Generator interface {
	Call(ctx context.Context, req generation.Request) (*generation.Result, error)
}

// Deps are the injected collaborators for an Orchestrator.
type Deps struct {
	Searcher  platform.Searcher
	Poster    platform.Poster
	Generator Generator
	Scorer    *scorer.Scorer
	Breaker   *resilience.Breaker
	ReplyGate *ratelimit.Bucket
	GenGate   *ratelimit.Bucket
	Cache     *cache.Cache[*generation.Result]
	Recorder  *telemetry.Recorder
	Store     store.Store
}

// Orchestrator drives automation cycles. One cycle runs at a time per
// instance; a second concurrent RunCycle returns OutcomeBusy immediately.
type Orchestrator struct {
	cfg  *config.Config
	deps Deps

	mu        sync.Mutex
	running   bool
	lastReply time.Time

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// New creates an Orchestrator.
func New(cfg *config.Config, deps Deps) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		deps:    deps,
		nowFunc: time.Now,
	}
}

// WithNow sets a fixed time for testing.
func (o *Orchestrator) WithNow(t time.Time) *Orchestrator {
	o.nowFunc = func() time.Time { return t }
	return o
}

// RunCycle executes one full automation cycle. All failures come back as a
// structured CycleResult; the error field carries the taxonomy error for
// programmatic inspection.
func (o *Orchestrator) RunCycle(ctx context.Context) *CycleResult {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return &CycleResult{
			Outcome:   OutcomeBusy,
			Reason:    "a cycle is already running",
			Timestamp: o.nowFunc(),
		}
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	return o.cycle(ctx)
}

func (o *Orchestrator) cycle(ctx context.Context) *CycleResult {
	now := o.nowFunc()
	dryRun := o.dryRun()

	// Search.
	items, err := o.deps.Searcher.Search(ctx, o.query())
	if err != nil {
		return o.fail(StageSearching, "", err)
	}
	items = o.filterExcluded(items)
	zap.L().Debug("search complete", zap.Int("items", len(items)))

	// Score and rank.
	ranked := o.deps.Scorer.Rank(items)
	ranked = o.filterNiches(ranked)
	if len(ranked) == 0 {
		return &CycleResult{
			Outcome:   OutcomeNoCandidates,
			Stage:     StageScoring,
			Reason:    "no candidate cleared the eligibility threshold",
			Timestamp: now,
		}
	}
	top := ranked[0]

	// Generate.
	res, err := o.deps.Generator.Call(ctx, o.request(top))
	if err != nil {
		return o.fail(StageGenerating, top.Item.ID, err)
	}
	best, ok := generation.BestStrategy(res.Strategies, o.cfg.Generation.ReplyLimit)
	if !ok {
		return o.fail(StageGenerating, top.Item.ID,
			eris.New("no generated strategy fits the reply length limit"))
	}

	// Gate, then post. Dry run bypasses the gates entirely.
	if dryRun {
		return o.simulate(ctx, top, best)
	}
	if result := o.gate(ctx, now); result != nil {
		result.TargetID = top.Item.ID
		return result
	}
	return o.post(ctx, top, best)
}

// dryRun reports whether this cycle simulates. Automation that is not
// explicitly enabled always simulates regardless of the dry-run flag.
func (o *Orchestrator) dryRun() bool {
	return o.cfg.Automation.DryRun || !o.cfg.Automation.Enabled
}

func (o *Orchestrator) query() platform.Query {
	p := o.cfg.Platform
	return platform.Query{
		Text:       p.SearchQuery,
		Keywords:   p.IncludeKeywords,
		MaxResults: p.MaxResults,
		Language:   p.Language,
	}
}

func (o *Orchestrator) request(sc scorer.Scored) generation.Request {
	g := o.cfg.Generation
	author := ""
	if sc.Item.Author != nil {
		author = sc.Item.Author.Username
	}
	return generation.Request{
		TargetID:      sc.Item.ID,
		TargetText:    sc.Item.Text,
		TargetAuthor:  author,
		Niche:         sc.Niche,
		Model:         g.Model,
		Temperature:   g.Temperature,
		MaxTokens:     g.MaxTokens,
		MaxStrategies: g.MaxStrategies,
	}
}

// filterExcluded drops items whose text contains an excluded keyword.
func (o *Orchestrator) filterExcluded(items []platform.Item) []platform.Item {
	excluded := o.cfg.Platform.ExcludeKeywords
	if len(excluded) == 0 {
		return items
	}
	kept := items[:0]
	for _, item := range items {
		text := strings.ToLower(item.Text)
		skip := false
		for _, kw := range excluded {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				skip = true
				break
			}
		}
		if !skip {
			kept = append(kept, item)
		}
	}
	return kept
}

// filterNiches keeps only allowlisted niches when an allowlist is set.
func (o *Orchestrator) filterNiches(ranked []scorer.Scored) []scorer.Scored {
	allow := o.cfg.Automation.NicheAllowlist
	if len(allow) == 0 {
		return ranked
	}
	kept := ranked[:0]
	for _, sc := range ranked {
		for _, niche := range allow {
			if sc.Niche == niche {
				kept = append(kept, sc)
				break
			}
		}
	}
	return kept
}

// gate applies the posting guards in order: circuit, token bucket, cooldown,
// then the persisted hourly and daily caps. Returns nil when posting may
// proceed.
func (o *Orchestrator) gate(ctx context.Context, now time.Time) *CycleResult {
	a := o.cfg.Automation

	if o.deps.Breaker.IsOpen() {
		return o.gated(now, eris.Wrap(resilience.ErrCircuitOpen, "orchestrator: post gate"),
			"circuit breaker is open")
	}

	if !o.deps.ReplyGate.TryConsume(1) {
		return o.gated(now, eris.Wrap(resilience.ErrRateLimited, "orchestrator: post gate"),
			"reply token bucket exhausted")
	}

	o.mu.Lock()
	last := o.lastReply
	o.mu.Unlock()
	cooldown := time.Duration(a.CooldownMinutes) * time.Minute
	if !last.IsZero() && cooldown > 0 && now.Sub(last) < cooldown {
		return o.gated(now, eris.Wrap(resilience.ErrRateLimited, "orchestrator: cooldown"),
			"cooldown since last reply has not elapsed")
	}

	if a.MaxRepliesPerHour > 0 {
		n, err := o.deps.Store.CountSince(ctx, now.Add(-time.Hour))
		if err != nil {
			return o.fail(StageGating, "", eris.Wrap(err, "orchestrator: hourly count"))
		}
		if n >= a.MaxRepliesPerHour {
			return o.gated(now, eris.Wrap(resilience.ErrRateLimited, "orchestrator: hourly cap"),
				"hourly reply cap reached")
		}
	}

	if a.MaxRepliesPerDay > 0 {
		n, err := o.deps.Store.CountSince(ctx, now.Add(-24*time.Hour))
		if err != nil {
			return o.fail(StageGating, "", eris.Wrap(err, "orchestrator: daily count"))
		}
		if n >= a.MaxRepliesPerDay {
			return o.gated(now, eris.Wrap(resilience.ErrRateLimited, "orchestrator: daily cap"),
				"daily reply cap reached")
		}
	}

	return nil
}

func (o *Orchestrator) post(ctx context.Context, sc scorer.Scored, best generation.Strategy) *CycleResult {
	replyID, err := o.deps.Poster.PostReply(ctx, sc.Item.ID, best.Text)
	if err != nil {
		o.deps.Breaker.RecordFailure()
		return o.fail(StagePosting, sc.Item.ID, err)
	}

	now := o.nowFunc()
	o.deps.Breaker.RecordSuccess()
	o.mu.Lock()
	o.lastReply = now
	o.mu.Unlock()

	o.recordHistory(ctx, sc, best, false)

	zap.L().Info("reply posted",
		zap.String("target_id", sc.Item.ID),
		zap.String("reply_id", replyID),
		zap.String("niche", sc.Niche),
	)
	return &CycleResult{
		Outcome:   OutcomeReplied,
		Stage:     StagePosting,
		TargetID:  sc.Item.ID,
		ReplyID:   replyID,
		ReplyText: best.Text,
		Timestamp: now,
	}
}

func (o *Orchestrator) simulate(ctx context.Context, sc scorer.Scored, best generation.Strategy) *CycleResult {
	o.recordHistory(ctx, sc, best, true)

	zap.L().Info("reply simulated",
		zap.String("target_id", sc.Item.ID),
		zap.String("niche", sc.Niche),
		zap.String("text", best.Text),
	)
	return &CycleResult{
		Outcome:   OutcomeSimulated,
		Stage:     StageSimulating,
		TargetID:  sc.Item.ID,
		ReplyText: best.Text,
		Timestamp: o.nowFunc(),
	}
}

// recordHistory persists the reply row. A history write failure does not
// fail the cycle; the reply already happened.
func (o *Orchestrator) recordHistory(ctx context.Context, sc scorer.Scored, best generation.Strategy, dryRun bool) {
	author := ""
	if sc.Item.Author != nil {
		author = sc.Item.Author.Username
	}
	err := o.deps.Store.RecordReply(ctx, &store.Reply{
		TargetID:          sc.Item.ID,
		TargetAuthor:      author,
		Text:              best.Text,
		Approach:          best.Approach,
		Niche:             sc.Niche,
		EligibilityScore:  sc.EligibilityScore,
		MonetizationScore: sc.MonetizationScore,
		DryRun:            dryRun,
		CreatedAt:         o.nowFunc(),
	})
	if err != nil {
		zap.L().Warn("recording reply history failed", zap.Error(err))
	}
}

func (o *Orchestrator) fail(stage, targetID string, err error) *CycleResult {
	zap.L().Warn("cycle failed",
		zap.String("stage", stage),
		zap.String("target_id", targetID),
		zap.Error(err),
	)
	return &CycleResult{
		Outcome:   OutcomeFailed,
		Stage:     stage,
		TargetID:  targetID,
		Err:       err,
		Reason:    err.Error(),
		Timestamp: o.nowFunc(),
	}
}

func (o *Orchestrator) gated(now time.Time, err error, reason string) *CycleResult {
	zap.L().Info("cycle gated", zap.String("reason", reason))
	return &CycleResult{
		Outcome:   OutcomeGated,
		Stage:     StageGating,
		Err:       err,
		Reason:    reason,
		Timestamp: now,
	}
}
