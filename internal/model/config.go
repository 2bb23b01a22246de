package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIConfig holds connection settings for the payor REST backend.
type APIConfig struct {
	// BaseURL is the API root, including the /api prefix.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// MaxRetries is how many times a rate-limited request is retried.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// Timeout returns TimeoutSec as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// SyncConfig controls the real-time claim synchronization.
type SyncConfig struct {
	PollIntervalSec     int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	CriticalIntervalSec int `mapstructure:"critical_interval_sec" yaml:"critical_interval_sec"`
	PageSize            int `mapstructure:"page_size" yaml:"page_size"`
	CriticalPageSize    int `mapstructure:"critical_page_size" yaml:"critical_page_size"`
}

// NotificationsConfig controls the notification store and its eviction.
type NotificationsConfig struct {
	// DBPath is the SQLite database path. ":memory:" keeps notifications
	// for the lifetime of the process only.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	MaxAgeHours      int    `mapstructure:"max_age_hours" yaml:"max_age_hours"`
	EvictionSchedule string `mapstructure:"eviction_schedule" yaml:"eviction_schedule"`
}

// ToastsConfig holds toast display settings.
type ToastsConfig struct {
	DefaultDurationMs int `mapstructure:"default_duration_ms" yaml:"default_duration_ms"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API           APIConfig           `mapstructure:"api" yaml:"api"`
	Sync          SyncConfig          `mapstructure:"sync" yaml:"sync"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Toasts        ToastsConfig        `mapstructure:"toasts" yaml:"toasts"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
	Display       DisplayConfig       `mapstructure:"display" yaml:"display"`
}

// envPrefix is prepended to environment overrides, e.g.
// CLAIMSPORTAL_API_BASE_URL.
const envPrefix = "CLAIMSPORTAL"

// ConfigDir returns ~/.config/claimsportal.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "claimsportal")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/claimsportal/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://127.0.0.1:8000/api",
			TimeoutSec: 30,
			MaxRetries: 3,
		},
		Sync: SyncConfig{
			PollIntervalSec:     30,
			CriticalIntervalSec: 10,
			PageSize:            20,
			CriticalPageSize:    5,
		},
		Notifications: NotificationsConfig{
			DBPath:           ":memory:",
			MaxAgeHours:      24,
			EvictionSchedule: "@every 1m",
		},
		Toasts: ToastsConfig{
			DefaultDurationMs: 4000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "tint",
			File:   filepath.Join(ConfigDir(), "claimsportal.log"),
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// setDefaults registers every default with v so that missing keys and
// environment overrides resolve consistently.
func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("api.max_retries", d.API.MaxRetries)
	v.SetDefault("sync.poll_interval_sec", d.Sync.PollIntervalSec)
	v.SetDefault("sync.critical_interval_sec", d.Sync.CriticalIntervalSec)
	v.SetDefault("sync.page_size", d.Sync.PageSize)
	v.SetDefault("sync.critical_page_size", d.Sync.CriticalPageSize)
	v.SetDefault("notifications.db_path", d.Notifications.DBPath)
	v.SetDefault("notifications.max_age_hours", d.Notifications.MaxAgeHours)
	v.SetDefault("notifications.eviction_schedule", d.Notifications.EvictionSchedule)
	v.SetDefault("toasts.default_duration_ms", d.Toasts.DefaultDurationMs)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("display.theme", d.Display.Theme)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) are
// returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize replaces non-positive values with their defaults.
func (c *AppConfig) normalize() {
	d := DefaultAppConfig()
	if c.API.TimeoutSec <= 0 {
		c.API.TimeoutSec = d.API.TimeoutSec
	}
	if c.API.MaxRetries < 0 {
		c.API.MaxRetries = 0
	}
	if c.Sync.PollIntervalSec <= 0 {
		c.Sync.PollIntervalSec = d.Sync.PollIntervalSec
	}
	if c.Sync.CriticalIntervalSec <= 0 {
		c.Sync.CriticalIntervalSec = d.Sync.CriticalIntervalSec
	}
	if c.Sync.PageSize <= 0 {
		c.Sync.PageSize = d.Sync.PageSize
	}
	if c.Sync.CriticalPageSize <= 0 {
		c.Sync.CriticalPageSize = d.Sync.CriticalPageSize
	}
	if c.Notifications.MaxAgeHours <= 0 {
		c.Notifications.MaxAgeHours = d.Notifications.MaxAgeHours
	}
	if c.Notifications.EvictionSchedule == "" {
		c.Notifications.EvictionSchedule = d.Notifications.EvictionSchedule
	}
	if c.Notifications.DBPath == "" {
		c.Notifications.DBPath = d.Notifications.DBPath
	}
	if c.Toasts.DefaultDurationMs <= 0 {
		c.Toasts.DefaultDurationMs = d.Toasts.DefaultDurationMs
	}
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

	v.Set("api", cfg.API)
	v.Set("sync", cfg.Sync)
	v.Set("notifications", cfg.Notifications)
	v.Set("toasts", cfg.Toasts)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// PollInterval returns the primary poll interval.
func (c SyncConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// CriticalInterval returns the critical-check interval.
func (c SyncConfig) CriticalInterval() time.Duration {
	return time.Duration(c.CriticalIntervalSec) * time.Second
}

// MaxAge returns how long notifications are kept.
func (c NotificationsConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeHours) * time.Hour
}
