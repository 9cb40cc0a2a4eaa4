package generation

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/reachpoint/replybot/internal/cache"
	"github.com/reachpoint/replybot/internal/ratelimit"
	"github.com/reachpoint/replybot/internal/resilience"
	"github.com/reachpoint/replybot/internal/telemetry"
)

const opGenerate = "generate"

// Provider is the opaque generation capability.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// CallerConfig controls the retry and cache behavior of the Caller.
type CallerConfig struct {
	// MaxRetries bounds retries after the first attempt. Default: 3.
	MaxRetries int

	// InitialBackoff is the delay before the first retry; doubles per
	// attempt. Default: 1s.
	InitialBackoff time.Duration

	// CacheTTL is how long successful results stay cached. Default: 30m.
	CacheTTL time.Duration
}

// Caller wraps a Provider with a pre-flight rate gate, bounded retries,
// response caching, and telemetry. Identical in-flight requests collapse to
// a single provider call.
type Caller struct {
	provider Provider
	gate     *ratelimit.Bucket
	cache    *cache.Cache[*Result]
	recorder *telemetry.Recorder
	cfg      CallerConfig

	group singleflight.Group
}

// NewCaller creates a Caller. The cache and recorder are shared with the
// status surface and must not be nil.
func NewCaller(provider Provider, gate *ratelimit.Bucket, c *cache.Cache[*Result], rec *telemetry.Recorder, cfg CallerConfig) *Caller {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}
	return &Caller{
		provider: provider,
		gate:     gate,
		cache:    c,
		recorder: rec,
		cfg:      cfg,
	}
}

// Call runs one generation request. Cache hits return without consuming a
// token or touching the provider. Transient provider failures are retried
// with exponential backoff; exhaustion surfaces as ErrServiceUnavailable.
// Malformed responses and credential failures surface immediately.
func (c *Caller) Call(ctx context.Context, req Request) (*Result, error) {
	key := req.CacheKey()

	if res, ok := c.cache.Get(key); ok {
		zap.L().Debug("generation cache hit",
			zap.String("target_id", req.TargetID),
		)
		return res, nil
	}

	if !c.gate.TryConsume(1) {
		return nil, eris.Wrap(resilience.ErrRateLimited, "generation: local gate refused")
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		// Another caller may have filled the cache while we queued.
		if res, ok := c.cache.Get(key); ok {
			return res, nil
		}
		return c.invoke(ctx, req, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		zap.L().Debug("generation call deduplicated",
			zap.String("target_id", req.TargetID),
		)
	}
	return v.(*Result), nil
}

func (c *Caller) invoke(ctx context.Context, req Request, key string) (*Result, error) {
	retryCfg := resilience.RetryConfig{
		MaxRetries:     c.cfg.MaxRetries,
		InitialBackoff: c.cfg.InitialBackoff,
		OnRetry:        resilience.RetryLogger("generation", opGenerate),
	}

	stop := c.recorder.StartTimer(opGenerate)
	start := time.Now()

	res, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*Result, error) {
		return c.provider.Generate(ctx, req)
	})
	if err != nil {
		c.recorder.RecordError(opGenerate, err, time.Since(start))
		if resilience.IsTransient(err) {
			return nil, eris.Wrapf(resilience.ErrServiceUnavailable, "generation: retries exhausted: %v", err)
		}
		return nil, err
	}

	stop()
	c.cache.Set(key, res, c.cfg.CacheTTL)

	zap.L().Info("generation call complete",
		zap.String("target_id", req.TargetID),
		zap.Int("strategies", len(res.Strategies)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}
