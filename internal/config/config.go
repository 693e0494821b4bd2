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
	Catalog    CatalogConfig    `yaml:"catalog" mapstructure:"catalog"`
	InfoDengue InfoDengueConfig `yaml:"infodengue" mapstructure:"infodengue"`
	Forecast   ForecastConfig   `yaml:"forecast" mapstructure:"forecast"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// CatalogConfig points at the municipality dataset (GeoJSON or shapefile).
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// InfoDengueConfig configures the surveillance API client.
type InfoDengueConfig struct {
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	Format           string  `yaml:"format" mapstructure:"format"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	// MaxRetries counts retries after the first attempt.
	MaxRetries       int     `yaml:"max_retries" mapstructure:"max_retries"`
	StartYear        int     `yaml:"start_year" mapstructure:"start_year"`
	EndYear          int     `yaml:"end_year" mapstructure:"end_year"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// Timeout returns the per-request timeout.
func (c InfoDengueConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// BreakerReset returns how long an open breaker waits before probing.
func (c InfoDengueConfig) BreakerReset() time.Duration {
	return time.Duration(c.BreakerResetSecs) * time.Second
}

// ForecastConfig configures model training.
type ForecastConfig struct {
	Model           string  `yaml:"model" mapstructure:"model"`
	SplitRatio      float64 `yaml:"split_ratio" mapstructure:"split_ratio"`
	Seed            uint64  `yaml:"seed" mapstructure:"seed"`
	RandomSeed      bool    `yaml:"random_seed" mapstructure:"random_seed"`
	CrossValidation bool    `yaml:"cross_validation" mapstructure:"cross_validation"`
	Folds           int     `yaml:"folds" mapstructure:"folds"`
	Trees           int     `yaml:"trees" mapstructure:"trees"`
	CombineYears    bool    `yaml:"combine_years" mapstructure:"combine_years"`
}

// ServerConfig configures the JSON API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("ARBO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("catalog.path", "allmun.json")
	v.SetDefault("infodengue.base_url", "https://info.dengue.mat.br/api")
	v.SetDefault("infodengue.format", "json")
	v.SetDefault("infodengue.timeout_secs", 10)
	v.SetDefault("infodengue.max_retries", 3)
	v.SetDefault("infodengue.start_year", 2014)
	v.SetDefault("infodengue.end_year", 2024)
	v.SetDefault("infodengue.rate_per_sec", 5.0)
	v.SetDefault("infodengue.breaker_threshold", 5)
	v.SetDefault("infodengue.breaker_reset_secs", 30)
	v.SetDefault("forecast.model", "random_forest")
	v.SetDefault("forecast.split_ratio", 0.8)
	v.SetDefault("forecast.seed", 42)
	v.SetDefault("forecast.random_seed", false)
	v.SetDefault("forecast.cross_validation", false)
	v.SetDefault("forecast.folds", 5)
	v.SetDefault("forecast.trees", 100)
	v.SetDefault("forecast.combine_years", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var errs []string

	if c.Catalog.Path == "" {
		errs = append(errs, "catalog.path is required")
	}
	if c.InfoDengue.BaseURL == "" {
		errs = append(errs, "infodengue.base_url is required")
	}
	switch strings.ToLower(c.InfoDengue.Format) {
	case "json", "csv":
	default:
		errs = append(errs, "infodengue.format must be json or csv")
	}
	if c.InfoDengue.TimeoutSecs <= 0 {
		errs = append(errs, "infodengue.timeout_secs must be positive")
	}
	if c.InfoDengue.StartYear > c.InfoDengue.EndYear {
		errs = append(errs, "infodengue.start_year must not exceed end_year")
	}
	if c.Forecast.SplitRatio <= 0 || c.Forecast.SplitRatio >= 1 {
		errs = append(errs, "forecast.split_ratio must be in (0, 1)")
	}
	if c.Forecast.Folds < 2 {
		errs = append(errs, "forecast.folds must be at least 2")
	}
	if c.Forecast.Trees < 1 {
		errs = append(errs, "forecast.trees must be at least 1")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid: %s", strings.Join(errs, "; "))
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
