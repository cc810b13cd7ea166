package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
}

// StoreConfig configures the verdict persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the validation HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// BatchConfig configures concurrent batch validation.
type BatchConfig struct {
	MaxConcurrent int     `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ValidationConfig holds every tunable weight and threshold of the
// validation engine. The numbers live here rather than in the scoring
// code, so re-tuning never touches the algorithms.
type ValidationConfig struct {
	Levels      LevelThresholds `yaml:"levels" mapstructure:"levels"`
	Adapt       AdaptConfig     `yaml:"adapt" mapstructure:"adapt"`
	Feature     FeatureConfig   `yaml:"feature" mapstructure:"feature"`
	Rules       RuleConfig      `yaml:"rules" mapstructure:"rules"`
	Scorer      ScorerConfig    `yaml:"scorer" mapstructure:"scorer"`
	Behavior    BehaviorConfig  `yaml:"behavior" mapstructure:"behavior"`
	CrossVal    CrossValConfig  `yaml:"crossval" mapstructure:"crossval"`
	SchemaPaths []string        `yaml:"schema_paths" mapstructure:"schema_paths"`
}

// LevelThresholds holds the minimum confidence per validation level.
type LevelThresholds struct {
	Basic    float64 `yaml:"basic" mapstructure:"basic"`
	Strict   float64 `yaml:"strict" mapstructure:"strict"`
	Paranoid float64 `yaml:"paranoid" mapstructure:"paranoid"`
}

// AdaptConfig controls adaptive level selection from recent history.
type AdaptConfig struct {
	HistoryWindow    int     `yaml:"history_window" mapstructure:"history_window"`
	MinSamples       int     `yaml:"min_samples" mapstructure:"min_samples"`
	EscalateFailRate float64 `yaml:"escalate_fail_rate" mapstructure:"escalate_fail_rate"`
	RelaxFailRate    float64 `yaml:"relax_fail_rate" mapstructure:"relax_fail_rate"`
}

// FeatureConfig tunes feature extraction.
type FeatureConfig struct {
	StaleHorizonDays int `yaml:"stale_horizon_days" mapstructure:"stale_horizon_days"`
}

// RuleConfig holds the pattern rule penalties.
type RuleConfig struct {
	RequiredPenalty float64 `yaml:"required_penalty" mapstructure:"required_penalty"`
	EnumPenalty     float64 `yaml:"enum_penalty" mapstructure:"enum_penalty"`
	FormatPenalty   float64 `yaml:"format_penalty" mapstructure:"format_penalty"`
	TokenPenalty    float64 `yaml:"token_penalty" mapstructure:"token_penalty"`
	TokenPenaltyCap float64 `yaml:"token_penalty_cap" mapstructure:"token_penalty_cap"`
}

// ScorerConfig holds the statistical scorer weights and flat penalties.
// Linear weights apply to continuous features; flat penalties fire once
// when a feature crosses its threshold so a single dominant feature cannot
// mask the others. Suspicious tokens carry no scorer weight by default
// because the pattern rules already penalize them per occurrence.
type ScorerConfig struct {
	WeightLowDiversity  float64 `yaml:"weight_low_diversity" mapstructure:"weight_low_diversity"`
	WeightUppercase     float64 `yaml:"weight_uppercase" mapstructure:"weight_uppercase"`
	WeightDigit         float64 `yaml:"weight_digit" mapstructure:"weight_digit"`
	WeightSuspicious    float64 `yaml:"weight_suspicious" mapstructure:"weight_suspicious"`
	DiversityHinge      float64 `yaml:"diversity_hinge" mapstructure:"diversity_hinge"`
	UppercaseHinge      float64 `yaml:"uppercase_hinge" mapstructure:"uppercase_hinge"`
	DigitHinge          float64 `yaml:"digit_hinge" mapstructure:"digit_hinge"`
	DiversityFloor      float64 `yaml:"diversity_floor" mapstructure:"diversity_floor"`
	FlatLowDiversity    float64 `yaml:"flat_low_diversity" mapstructure:"flat_low_diversity"`
	FlatFutureTimestamp float64 `yaml:"flat_future_timestamp" mapstructure:"flat_future_timestamp"`
	FlatStaleTimestamp  float64 `yaml:"flat_stale_timestamp" mapstructure:"flat_stale_timestamp"`
	FlatNegativeValue   float64 `yaml:"flat_negative_value" mapstructure:"flat_negative_value"`
	MaxNestingDepth     float64 `yaml:"max_nesting_depth" mapstructure:"max_nesting_depth"`
	FlatDeepNesting     float64 `yaml:"flat_deep_nesting" mapstructure:"flat_deep_nesting"`
	MaxPenalty          float64 `yaml:"max_penalty" mapstructure:"max_penalty"`
}

// BehaviorConfig tunes batch consistency analysis.
type BehaviorConfig struct {
	MaxEditDistance     int     `yaml:"max_edit_distance" mapstructure:"max_edit_distance"`
	DuplicatePenalty    float64 `yaml:"duplicate_penalty" mapstructure:"duplicate_penalty"`
	DuplicatePenaltyCap float64 `yaml:"duplicate_penalty_cap" mapstructure:"duplicate_penalty_cap"`
	MinDistribution     int     `yaml:"min_distribution" mapstructure:"min_distribution"`
	UniformEntropy      float64 `yaml:"uniform_entropy" mapstructure:"uniform_entropy"`
	SkewShare           float64 `yaml:"skew_share" mapstructure:"skew_share"`
	DistributionPenalty float64 `yaml:"distribution_penalty" mapstructure:"distribution_penalty"`
	ContextPenalty      float64 `yaml:"context_penalty" mapstructure:"context_penalty"`
	CountTolerance      float64 `yaml:"count_tolerance" mapstructure:"count_tolerance"`
	CountPenalty        float64 `yaml:"count_penalty" mapstructure:"count_penalty"`
	MaxPairwise         int     `yaml:"max_pairwise" mapstructure:"max_pairwise"`
}

// CrossValConfig tunes referential integrity checking.
type CrossValConfig struct {
	OrphanPenalty float64 `yaml:"orphan_penalty" mapstructure:"orphan_penalty"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VERACITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "veracity.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent", 8)
	v.SetDefault("batch.rate_per_second", 50)

	v.SetDefault("validation.levels.basic", 0.5)
	v.SetDefault("validation.levels.strict", 0.7)
	v.SetDefault("validation.levels.paranoid", 0.85)
	v.SetDefault("validation.adapt.history_window", 100)
	v.SetDefault("validation.adapt.min_samples", 10)
	v.SetDefault("validation.adapt.escalate_fail_rate", 0.5)
	v.SetDefault("validation.adapt.relax_fail_rate", 0.1)
	v.SetDefault("validation.feature.stale_horizon_days", 365)
	v.SetDefault("validation.rules.required_penalty", 0.2)
	v.SetDefault("validation.rules.enum_penalty", 0.6)
	v.SetDefault("validation.rules.format_penalty", 0.3)
	v.SetDefault("validation.rules.token_penalty", 0.15)
	v.SetDefault("validation.rules.token_penalty_cap", 0.45)
	v.SetDefault("validation.scorer.weight_low_diversity", 0.2)
	v.SetDefault("validation.scorer.weight_uppercase", 0.1)
	v.SetDefault("validation.scorer.weight_digit", 0.1)
	v.SetDefault("validation.scorer.weight_suspicious", 0.0)
	v.SetDefault("validation.scorer.diversity_hinge", 0.5)
	v.SetDefault("validation.scorer.uppercase_hinge", 0.5)
	v.SetDefault("validation.scorer.digit_hinge", 0.3)
	v.SetDefault("validation.scorer.diversity_floor", 0.3)
	v.SetDefault("validation.scorer.flat_low_diversity", 0.2)
	v.SetDefault("validation.scorer.flat_future_timestamp", 0.3)
	v.SetDefault("validation.scorer.flat_stale_timestamp", 0.15)
	v.SetDefault("validation.scorer.flat_negative_value", 0.1)
	v.SetDefault("validation.scorer.max_nesting_depth", 6)
	v.SetDefault("validation.scorer.flat_deep_nesting", 0.1)
	v.SetDefault("validation.scorer.max_penalty", 1.0)
	v.SetDefault("validation.behavior.max_edit_distance", 3)
	v.SetDefault("validation.behavior.duplicate_penalty", 0.1)
	v.SetDefault("validation.behavior.duplicate_penalty_cap", 0.5)
	v.SetDefault("validation.behavior.min_distribution", 5)
	v.SetDefault("validation.behavior.uniform_entropy", 0.97)
	v.SetDefault("validation.behavior.skew_share", 0.95)
	v.SetDefault("validation.behavior.distribution_penalty", 0.1)
	v.SetDefault("validation.behavior.context_penalty", 0.5)
	v.SetDefault("validation.behavior.count_tolerance", 0.5)
	v.SetDefault("validation.behavior.count_penalty", 0.1)
	v.SetDefault("validation.behavior.max_pairwise", 250000)
	v.SetDefault("validation.crossval.orphan_penalty", 0.4)
}

// DefaultValidation returns the validation tuning with all defaults
// applied, for callers that construct a Validator without going through
// Load (mainly tests and library embedding).
func DefaultValidation() ValidationConfig {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; an unmarshal failure here is a bug.
		panic(eris.Wrap(err, "config: unmarshal defaults"))
	}
	return cfg.Validation
}

// Threshold returns the confidence threshold for the given level name
// (basic/strict/paranoid). Unknown names fall back to strict.
func (t LevelThresholds) Threshold(level string) float64 {
	switch level {
	case "basic":
		return t.Basic
	case "paranoid":
		return t.Paranoid
	default:
		return t.Strict
	}
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
