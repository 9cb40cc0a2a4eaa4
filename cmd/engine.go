package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reachpoint/replybot/internal/cache"
	"github.com/reachpoint/replybot/internal/config"
	"github.com/reachpoint/replybot/internal/generation"
	"github.com/reachpoint/replybot/internal/orchestrator"
	"github.com/reachpoint/replybot/internal/ratelimit"
	"github.com/reachpoint/replybot/internal/resilience"
	"github.com/reachpoint/replybot/internal/scorer"
	"github.com/reachpoint/replybot/internal/store"
	"github.com/reachpoint/replybot/internal/telemetry"
	"github.com/reachpoint/replybot/pkg/anthropic"
	"github.com/reachpoint/replybot/pkg/platformapi"
)

// engine bundles the wired orchestrator with the resources that need
// closing.
type engine struct {
	cfg   *config.Config
	store store.Store
	orch  *orchestrator.Orchestrator
}

func (e *engine) Close() {
	if err := e.store.Close(); err != nil {
		zap.L().Warn("closing store failed", zap.Error(err))
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func validatePlatform() error {
	if cfg.Platform.BaseURL == "" {
		return eris.New("platform.base_url is required (REPLYBOT_PLATFORM_BASE_URL)")
	}
	if cfg.Platform.Token == "" {
		return eris.New("platform.token is required (REPLYBOT_PLATFORM_TOKEN)")
	}
	return nil
}

// initEngine wires the full automation stack from config.
func initEngine(ctx context.Context) (*engine, error) {
	if err := validatePlatform(); err != nil {
		return nil, err
	}
	if cfg.Generation.Key == "" {
		return nil, eris.New("generation.key is required (REPLYBOT_GENERATION_KEY)")
	}
	if err := scorer.ValidateConfig(cfg.Scorer); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	platformClient := platformapi.NewClient(cfg.Platform.Token, cfg.Platform.BaseURL)
	provider := anthropic.NewProvider(cfg.Generation.Key)

	genGate := ratelimit.NewBucket(cfg.Rate.GenerationCapacity, cfg.Rate.GenerationRefillPerMinute)
	replyGate := ratelimit.NewBucket(cfg.Rate.ReplyCapacity, cfg.Rate.ReplyRefillPerMinute)
	respCache := cache.New[*generation.Result]()
	recorder := telemetry.NewRecorder()

	caller := generation.NewCaller(provider, genGate, respCache, recorder, generation.CallerConfig{
		MaxRetries: cfg.Generation.MaxRetries,
		CacheTTL:   time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
	})

	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		ResetTimeout:     time.Duration(cfg.Breaker.ResetTimeoutSecs) * time.Second,
		OnStateChange: func(from, to resilience.CircuitState) {
			zap.L().Warn("post circuit state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	orch := orchestrator.New(cfg, orchestrator.Deps{
		Searcher:  platformClient,
		Poster:    platformClient,
		Generator: caller,
		Scorer:    scorer.New(cfg.Scorer),
		Breaker:   breaker,
		ReplyGate: replyGate,
		GenGate:   genGate,
		Cache:     respCache,
		Recorder:  recorder,
		Store:     st,
	})

	return &engine{cfg: cfg, store: st, orch: orch}, nil
}
