// Package config provides configuration management for the dashboard.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	apperrors "stockdash/internal/errors"
	"stockdash/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Market    MarketConfig    `mapstructure:"market"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Server    ServerConfig    `mapstructure:"server"`
	UI        UIConfig        `mapstructure:"ui"`
	Logging   LoggingConfig   `mapstructure:"logging"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-"`
}

// MarketConfig controls the synthetic quote source.
type MarketConfig struct {
	Seed             int64         `mapstructure:"seed"` // 0 seeds from the clock
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	CacheBackend     string        `mapstructure:"cache_backend"` // memory, redis
	SimulatedLatency time.Duration `mapstructure:"simulated_latency"`
	FailureRate      float64       `mapstructure:"failure_rate"`
}

// WatchlistConfig controls where the watchlist is persisted.
type WatchlistConfig struct {
	Backend      string        `mapstructure:"backend"` // file, sqlite, redis
	Namespace    string        `mapstructure:"namespace"`
	FileDir      string        `mapstructure:"file_dir"`
	SQLitePath   string        `mapstructure:"sqlite_path"`
	RedisAddr    string        `mapstructure:"redis_addr"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// UIConfig holds terminal output configuration.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled"`
}

// LoggingConfig mirrors logging.LogConfig in the config file.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// Backends accepted by watchlist.backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// DefaultNamespace is the fixed key the watchlist is persisted under.
const DefaultNamespace = "watchlist-storage"

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stockdash"
	}
	return filepath.Join(home, ".config", "stockdash")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a commented template and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config.toml: %w", err)
	}
	cfg.Dir = configDir

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default(configDir string) *Config {
	v := viper.New()
	setDefaults(v, configDir)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	cfg.Dir = configDir
	return cfg
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("market.seed", 0)
	v.SetDefault("market.cache_ttl", "60s")
	v.SetDefault("market.cache_backend", "memory")
	v.SetDefault("market.simulated_latency", "0s")
	v.SetDefault("market.failure_rate", 0.0)

	v.SetDefault("watchlist.backend", BackendFile)
	v.SetDefault("watchlist.namespace", DefaultNamespace)
	v.SetDefault("watchlist.file_dir", configDir)
	v.SetDefault("watchlist.sqlite_path", filepath.Join(configDir, "stockdash.db"))
	v.SetDefault("watchlist.redis_addr", "localhost:6379")
	v.SetDefault("watchlist.poll_interval", "30s")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("ui.color_enabled", true)

	logDefaults := logging.DefaultLogConfig()
	v.SetDefault("logging.level", logDefaults.Level)
	v.SetDefault("logging.console", logDefaults.Console)
	v.SetDefault("logging.file", logDefaults.File)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "stockdash.log"))
	v.SetDefault("logging.max_size", logDefaults.MaxSize)
	v.SetDefault("logging.max_backups", logDefaults.MaxBackups)
	v.SetDefault("logging.max_age", logDefaults.MaxAge)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCKDASH_WATCHLIST_BACKEND"); v != "" {
		cfg.Watchlist.Backend = v
	}
	if v := os.Getenv("STOCKDASH_REDIS_ADDR"); v != "" {
		cfg.Watchlist.RedisAddr = v
	}
	if v := os.Getenv("STOCKDASH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STOCKDASH_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Watchlist.Backend {
	case BackendFile, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("%w: watchlist backend %q (must be file, sqlite or redis)", apperrors.ErrConfigInvalid, c.Watchlist.Backend)
	}

	switch c.Market.CacheBackend {
	case "memory", BackendRedis:
	default:
		return fmt.Errorf("%w: cache backend %q (must be memory or redis)", apperrors.ErrConfigInvalid, c.Market.CacheBackend)
	}

	if c.Watchlist.Namespace == "" {
		return fmt.Errorf("%w: watchlist namespace must not be empty", apperrors.ErrConfigInvalid)
	}
	if c.Market.FailureRate < 0 || c.Market.FailureRate > 1 {
		return fmt.Errorf("%w: failure_rate must be between 0 and 1", apperrors.ErrConfigInvalid)
	}
	if c.Market.CacheTTL < 0 || c.Market.SimulatedLatency < 0 {
		return fmt.Errorf("%w: durations must be non-negative", apperrors.ErrConfigInvalid)
	}
	if c.Watchlist.PollInterval < time.Second {
		return fmt.Errorf("%w: poll_interval must be at least 1s", apperrors.ErrConfigInvalid)
	}

	return nil
}

// LogConfig converts the logging section to a logging.LogConfig.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}
