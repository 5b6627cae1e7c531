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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Mandi     MandiConfig     `yaml:"mandi" mapstructure:"mandi"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Scheduler SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
	Dishes    DishesConfig    `yaml:"dishes" mapstructure:"dishes"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the canonical price table backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MandiConfig configures the government commodity price API.
type MandiConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	State       string  `yaml:"state" mapstructure:"state"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// CatalogConfig configures the external catalog refresh provider.
type CatalogConfig struct {
	RefreshURL         string `yaml:"refresh_url" mapstructure:"refresh_url"`
	RefreshTimeoutSecs int    `yaml:"refresh_timeout_secs" mapstructure:"refresh_timeout_secs"`
}

// SchedulerConfig configures the periodic reconciliation loop.
type SchedulerConfig struct {
	IntervalMins int  `yaml:"interval_mins" mapstructure:"interval_mins"`
	Enabled      bool `yaml:"enabled" mapstructure:"enabled"`
}

// DishesConfig configures the dish → ingredient mapping source.
type DishesConfig struct {
	MappingPath string `yaml:"mapping_path" mapstructure:"mapping_path"`
}

// ServerConfig configures the HTTP API server.
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
	v.SetEnvPrefix("MARKETINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "market-intel.db")
	v.SetDefault("mandi.base_url", "https://api.data.gov.in/resource/9ef84268-d588-465a-a308-a864a43d0070")
	v.SetDefault("mandi.state", "Maharashtra")
	v.SetDefault("mandi.timeout_secs", 15)
	v.SetDefault("mandi.rate_per_sec", 5)
	v.SetDefault("mandi.max_retries", 3)
	v.SetDefault("catalog.refresh_timeout_secs", 10)
	v.SetDefault("scheduler.interval_mins", 60)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("dishes.mapping_path", "")
	v.SetDefault("server.port", 8080)
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
