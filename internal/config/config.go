// Package config loads and validates application configuration from a yaml
// file, environment variables and defaults.
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
	Source SourceConfig `yaml:"source" mapstructure:"source"`
	Amap   AmapConfig   `yaml:"amap" mapstructure:"amap"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures the attraction list API client. Session fields
// (client ID, cookie, headers) come from a recorded browser session.
type SourceConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	ClientID    string `yaml:"client_id" mapstructure:"client_id"`
	Cookie      string `yaml:"cookie" mapstructure:"cookie"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	Referer     string `yaml:"referer" mapstructure:"referer"`
	Origin      string `yaml:"origin" mapstructure:"origin"`
	DistrictID  int    `yaml:"district_id" mapstructure:"district_id"`
	PageSize    int    `yaml:"page_size" mapstructure:"page_size"`
	MinDelayMs  int    `yaml:"min_delay_ms" mapstructure:"min_delay_ms"`
	MaxDelayMs  int    `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// MinDelay returns the lower pacing bound as a duration.
func (c SourceConfig) MinDelay() time.Duration {
	return time.Duration(c.MinDelayMs) * time.Millisecond
}

// MaxDelay returns the upper pacing bound as a duration.
func (c SourceConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMs) * time.Millisecond
}

// AmapConfig configures the AMap geocoding client.
type AmapConfig struct {
	Key        string  `yaml:"key" mapstructure:"key"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	City       string  `yaml:"city" mapstructure:"city"`
	CityPrefix string  `yaml:"city_prefix" mapstructure:"city_prefix"`
	RPS        float64 `yaml:"rps" mapstructure:"rps"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// IngestConfig configures the ingestion run.
type IngestConfig struct {
	Pages              int     `yaml:"pages" mapstructure:"pages"`
	GeocodeConcurrency int     `yaml:"geocode_concurrency" mapstructure:"geocode_concurrency"`
	NameThreshold      float64 `yaml:"name_threshold" mapstructure:"name_threshold"`
	MaxDistanceKm      float64 `yaml:"max_distance_km" mapstructure:"max_distance_km"`
	CategoryFile       string  `yaml:"category_file" mapstructure:"category_file"`
	StopOnEmptyPage    bool    `yaml:"stop_on_empty_page" mapstructure:"stop_on_empty_page"`
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
	v.SetEnvPrefix("SPOTSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.base_url", "https://m.ctrip.com/restapi/soa2/18109/json/getAttractionList")
	v.SetDefault("source.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36")
	v.SetDefault("source.referer", "https://you.ctrip.com/")
	v.SetDefault("source.origin", "https://you.ctrip.com")
	v.SetDefault("source.district_id", 104)
	v.SetDefault("source.page_size", 10)
	v.SetDefault("source.min_delay_ms", 1000)
	v.SetDefault("source.max_delay_ms", 3000)
	v.SetDefault("source.timeout_secs", 30)
	v.SetDefault("amap.base_url", "https://restapi.amap.com/v3/geocode/geo")
	v.SetDefault("amap.city", "成都")
	v.SetDefault("amap.city_prefix", "成都市")
	v.SetDefault("amap.rps", 3.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "spotsync.db")
	v.SetDefault("ingest.pages", 40)
	v.SetDefault("ingest.geocode_concurrency", 4)
	v.SetDefault("ingest.name_threshold", 0.6)
	v.SetDefault("ingest.max_distance_km", 0.5)
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

// Validate checks that the configuration is complete for the given mode
// ("ingest" or "migrate"). All problems are reported at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "ingest":
		if c.Source.BaseURL == "" {
			problems = append(problems, "source.base_url is required")
		}
		if c.Source.ClientID == "" {
			problems = append(problems, "source.client_id is required")
		}
		if c.Source.PageSize < 1 {
			problems = append(problems, "source.page_size must be > 0")
		}
		if c.Source.MaxDelayMs < c.Source.MinDelayMs {
			problems = append(problems, "source.max_delay_ms must be >= source.min_delay_ms")
		}
		if c.Amap.Key == "" {
			problems = append(problems, "amap.key is required")
		}
		if c.Ingest.Pages < 1 {
			problems = append(problems, "ingest.pages must be > 0")
		}
		if c.Ingest.NameThreshold <= 0 || c.Ingest.NameThreshold > 1 {
			problems = append(problems, "ingest.name_threshold must be in (0, 1]")
		}
		problems = append(problems, c.storeProblems()...)
	case "migrate":
		problems = append(problems, c.storeProblems()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) storeProblems() []string {
	var problems []string
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	return problems
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
