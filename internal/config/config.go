package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/litreview-cli/internal/identity"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Dedupe  DedupeConfig  `yaml:"dedupe" mapstructure:"dedupe"`
	Prep    PrepConfig    `yaml:"prep" mapstructure:"prep"`
	Quality QualityConfig `yaml:"quality" mapstructure:"quality"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// DedupeConfig tunes the duplicate detection engine.
type DedupeConfig struct {
	MinSimilarity      float64          `yaml:"min_similarity" mapstructure:"min_similarity"`
	AutoMergeThreshold float64          `yaml:"auto_merge_threshold" mapstructure:"auto_merge_threshold"`
	PreventSameSource  bool             `yaml:"prevent_same_source" mapstructure:"prevent_same_source"`
	Concurrency        int              `yaml:"concurrency" mapstructure:"concurrency"`
	Weights            identity.Weights `yaml:"weights" mapstructure:"weights"`
}

// PrepConfig tunes batch metadata preparation.
type PrepConfig struct {
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries     int     `yaml:"retries" mapstructure:"retries"`
	Force       bool    `yaml:"force" mapstructure:"force"`
	LookupRPS   float64 `yaml:"lookup_rps" mapstructure:"lookup_rps"`
	LookupBurst int     `yaml:"lookup_burst" mapstructure:"lookup_burst"`
}

// QualityConfig configures the defect checkers.
type QualityConfig struct {
	AllowlistPath string `yaml:"allowlist_path" mapstructure:"allowlist_path"`
	TOCCheck      bool   `yaml:"toc_check" mapstructure:"toc_check"`
}

// ServerConfig configures the read-only API server.
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
	v.SetEnvPrefix("LITREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "review.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("dedupe.min_similarity", 0.7)
	v.SetDefault("dedupe.auto_merge_threshold", 0.95)
	v.SetDefault("dedupe.prevent_same_source", true)
	v.SetDefault("dedupe.concurrency", 4)
	v.SetDefault("prep.concurrency", 4)
	v.SetDefault("prep.timeout_secs", 10)
	v.SetDefault("prep.retries", 3)
	v.SetDefault("prep.lookup_rps", 10.0)
	v.SetDefault("prep.lookup_burst", 10)
	v.SetDefault("quality.toc_check", true)

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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		return eris.New("config: postgres driver requires store.database_url")
	}
	if c.Dedupe.MinSimilarity <= 0 || c.Dedupe.MinSimilarity > 1 {
		return eris.Errorf("config: dedupe.min_similarity %v out of (0,1]", c.Dedupe.MinSimilarity)
	}
	if c.Dedupe.AutoMergeThreshold <= 0 || c.Dedupe.AutoMergeThreshold > 1 {
		return eris.Errorf("config: dedupe.auto_merge_threshold %v out of (0,1]", c.Dedupe.AutoMergeThreshold)
	}
	if c.Dedupe.MinSimilarity > c.Dedupe.AutoMergeThreshold {
		return eris.New("config: dedupe.min_similarity above dedupe.auto_merge_threshold")
	}
	if c.Prep.TimeoutSecs <= 0 {
		return eris.Errorf("config: prep.timeout_secs %d must be positive", c.Prep.TimeoutSecs)
	}
	return nil
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
