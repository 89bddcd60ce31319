package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds connection settings for the league API server.
type ServerConfig struct {
	// BaseURL is the root URL of the API server.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec is the per-request HTTP timeout in seconds.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// CacheConfig tunes the query cache.
type CacheConfig struct {
	// StaleTimeSec is how long cached data stays fresh before becoming
	// eligible for a background refresh.
	StaleTimeSec int `mapstructure:"stale_time_sec" yaml:"stale_time_sec"`

	// CacheTimeSec is how long an unsubscribed entry survives before
	// eviction.
	CacheTimeSec int `mapstructure:"cache_time_sec" yaml:"cache_time_sec"`

	// Retry is the maximum retry attempts on a failed fetch.
	Retry int `mapstructure:"retry" yaml:"retry"`
}

// RefreshConfig holds the background poll intervals, in seconds.
type RefreshConfig struct {
	CurrentWeekSec   int `mapstructure:"current_week_sec" yaml:"current_week_sec"`
	StandingsSec     int `mapstructure:"standings_sec" yaml:"standings_sec"`
	NotificationsSec int `mapstructure:"notifications_sec" yaml:"notifications_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Refresh RefreshConfig `mapstructure:"refresh" yaml:"refresh"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// StaleTime returns the cache stale window as a duration.
func (c CacheConfig) StaleTime() time.Duration {
	return time.Duration(c.StaleTimeSec) * time.Second
}

// CacheTime returns the cache eviction window as a duration.
func (c CacheConfig) CacheTime() time.Duration {
	return time.Duration(c.CacheTimeSec) * time.Second
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/huddle/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "huddle", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BaseURL:    "http://localhost:8080",
			TimeoutSec: 30,
		},
		Cache: CacheConfig{
			StaleTimeSec: 30,
			CacheTimeSec: 300,
			Retry:        3,
		},
		Refresh: RefreshConfig{
			CurrentWeekSec:   120,
			StandingsSec:     60,
			NotificationsSec: 30,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.timeout_sec", 30)
	v.SetDefault("cache.stale_time_sec", 30)
	v.SetDefault("cache.cache_time_sec", 300)
	v.SetDefault("cache.retry", 3)
	v.SetDefault("refresh.current_week_sec", 120)
	v.SetDefault("refresh.standings_sec", 60)
	v.SetDefault("refresh.notifications_sec", 30)
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("cache", cfg.Cache)
	v.Set("refresh", cfg.Refresh)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
