// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Platform   PlatformConfig   `yaml:"platform" mapstructure:"platform"`
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`
	Automation AutomationConfig `yaml:"automation" mapstructure:"automation"`
	Scorer     ScorerConfig     `yaml:"scorer" mapstructure:"scorer"`
	Rate       RateConfig       `yaml:"rate" mapstructure:"rate"`
	Breaker    BreakerConfig    `yaml:"breaker" mapstructure:"breaker"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// PlatformConfig holds the platform API endpoint and search query settings.
type PlatformConfig struct {
	BaseURL         string   `yaml:"base_url" mapstructure:"base_url"`
	Token           string   `yaml:"token" mapstructure:"token"`
	SearchQuery     string   `yaml:"search_query" mapstructure:"search_query"`
	IncludeKeywords []string `yaml:"include_keywords" mapstructure:"include_keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords" mapstructure:"exclude_keywords"`
	MaxResults      int      `yaml:"max_results" mapstructure:"max_results"`
	Language        string   `yaml:"language" mapstructure:"language"`
}

// GenerationConfig holds generation provider settings.
type GenerationConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	Model         string  `yaml:"model" mapstructure:"model"`
	MaxTokens     int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature   float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxStrategies int     `yaml:"max_strategies" mapstructure:"max_strategies"`
	MaxRetries    int     `yaml:"max_retries" mapstructure:"max_retries"`
	ReplyLimit    int     `yaml:"reply_limit" mapstructure:"reply_limit"`
}

// AutomationConfig holds the automation policy knobs.
type AutomationConfig struct {
	Enabled           bool     `yaml:"enabled" mapstructure:"enabled"`
	DryRun            bool     `yaml:"dry_run" mapstructure:"dry_run"`
	MaxRepliesPerHour int      `yaml:"max_replies_per_hour" mapstructure:"max_replies_per_hour"`
	MaxRepliesPerDay  int      `yaml:"max_replies_per_day" mapstructure:"max_replies_per_day"`
	CooldownMinutes   int      `yaml:"cooldown_minutes" mapstructure:"cooldown_minutes"`
	NicheAllowlist    []string `yaml:"niche_allowlist" mapstructure:"niche_allowlist"`
}

// ScorerConfig holds candidate scoring weights and thresholds. Eligibility
// term caps are fractions of the [0,1] eligibility score.
type ScorerConfig struct {
	EngagementScale   float64 `yaml:"engagement_scale" mapstructure:"engagement_scale"`
	EngagementCap     float64 `yaml:"engagement_cap" mapstructure:"engagement_cap"`
	FollowerLogFactor float64 `yaml:"follower_log_factor" mapstructure:"follower_log_factor"`
	FollowerLogCap    float64 `yaml:"follower_log_cap" mapstructure:"follower_log_cap"`
	RecencyCap        float64 `yaml:"recency_cap" mapstructure:"recency_cap"`
	FreshnessMinutes  int     `yaml:"freshness_minutes" mapstructure:"freshness_minutes"`
	VerifiedBonus     float64 `yaml:"verified_bonus" mapstructure:"verified_bonus"`
	NicheBonusCap     float64 `yaml:"niche_bonus_cap" mapstructure:"niche_bonus_cap"`
	PeakStartHour     int     `yaml:"peak_start_hour" mapstructure:"peak_start_hour"`
	PeakEndHour       int     `yaml:"peak_end_hour" mapstructure:"peak_end_hour"`
	PeakBonus         float64 `yaml:"peak_bonus" mapstructure:"peak_bonus"`

	// MinEligibility excludes items below this eligibility from ranking.
	MinEligibility float64 `yaml:"min_eligibility" mapstructure:"min_eligibility"`

	// Ranking blend weights over monetization (normalized to [0,1]) and
	// eligibility. Tunable policy, not a literal constant.
	RankMonetizationWeight float64 `yaml:"rank_monetization_weight" mapstructure:"rank_monetization_weight"`
	RankEligibilityWeight  float64 `yaml:"rank_eligibility_weight" mapstructure:"rank_eligibility_weight"`
}

// FreshnessWindow returns the recency decay window as a duration.
func (c ScorerConfig) FreshnessWindow() time.Duration {
	return time.Duration(c.FreshnessMinutes) * time.Minute
}

// RateConfig holds token bucket settings for the generation and reply gates.
type RateConfig struct {
	GenerationCapacity        int     `yaml:"generation_capacity" mapstructure:"generation_capacity"`
	GenerationRefillPerMinute float64 `yaml:"generation_refill_per_minute" mapstructure:"generation_refill_per_minute"`
	ReplyCapacity             int     `yaml:"reply_capacity" mapstructure:"reply_capacity"`
	ReplyRefillPerMinute      float64 `yaml:"reply_refill_per_minute" mapstructure:"reply_refill_per_minute"`
}

// BreakerConfig holds circuit breaker settings for the post capability.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	TTLMinutes int `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// StoreConfig configures the reply history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REPLYBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.path", "replybot.db")

	v.SetDefault("platform.max_results", 30)
	v.SetDefault("platform.language", "en")

	v.SetDefault("generation.model", "claude-haiku-4-5-20251001")
	v.SetDefault("generation.max_tokens", 1024)
	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.max_strategies", 3)
	v.SetDefault("generation.max_retries", 3)
	v.SetDefault("generation.reply_limit", 280)

	v.SetDefault("automation.enabled", false)
	v.SetDefault("automation.dry_run", true)
	v.SetDefault("automation.max_replies_per_hour", 5)
	v.SetDefault("automation.max_replies_per_day", 30)
	v.SetDefault("automation.cooldown_minutes", 15)

	v.SetDefault("scorer.engagement_scale", 1.0)
	v.SetDefault("scorer.engagement_cap", 0.25)
	v.SetDefault("scorer.follower_log_factor", 0.02)
	v.SetDefault("scorer.follower_log_cap", 0.10)
	v.SetDefault("scorer.recency_cap", 0.20)
	v.SetDefault("scorer.freshness_minutes", 60)
	v.SetDefault("scorer.verified_bonus", 0.10)
	v.SetDefault("scorer.niche_bonus_cap", 0.15)
	v.SetDefault("scorer.peak_start_hour", 9)
	v.SetDefault("scorer.peak_end_hour", 21)
	v.SetDefault("scorer.peak_bonus", 0.05)
	v.SetDefault("scorer.min_eligibility", 0.40)
	v.SetDefault("scorer.rank_monetization_weight", 0.60)
	v.SetDefault("scorer.rank_eligibility_weight", 0.40)

	v.SetDefault("rate.generation_capacity", 10)
	v.SetDefault("rate.generation_refill_per_minute", 2)
	v.SetDefault("rate.reply_capacity", 3)
	v.SetDefault("rate.reply_refill_per_minute", 0.2)

	v.SetDefault("breaker.failure_threshold", 3)
	v.SetDefault("breaker.reset_timeout_secs", 60)

	v.SetDefault("cache.ttl_minutes", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
