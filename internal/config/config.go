package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/samvad-hq/areweheadlessyet/pkg/cms"
)

const redactedValue = "******"

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	Instance              string        `mapstructure:"instance"`
	AuthUser              string        `mapstructure:"auth_user"`
	AuthPassword          string        `mapstructure:"auth_password"`
	BaseURL               string        `mapstructure:"base_url"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`

	PublishersFile      string        `mapstructure:"publishers_file"`
	SyncIntervalSeconds int64         `mapstructure:"sync_interval"`
	SyncInterval        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	MetricsAddr string `mapstructure:"metrics_addr"`
}

// defaults lists every recognised key with its fallback value.
var defaults = map[string]any{
	"app_name":                         "areweheadlessyet",
	"app_env":                          "development",
	"log_level":                        "info",
	"instance":                         "",
	"auth_user":                        "",
	"auth_password":                    "",
	"base_url":                         "",
	"request_timeout_seconds":          15,
	"publishers_file":                  "./configs/publishers.yaml",
	"sync_interval":                    900, // seconds
	"storage_type":                     "bbolt",
	"bbolt_path":                       "./data/pages.db",
	"storage_ttl_seconds":              int64((30 * 24 * time.Hour) / time.Second),
	"storage_cleanup_interval_seconds": int64((12 * time.Hour) / time.Second),
	"metrics_addr":                     "",
}

// LoadOption customises Load.
type LoadOption func(v *viper.Viper) error

// WithFlags lets explicitly set flags override environment values. A flag
// named base-url binds to the base_url key.
func WithFlags(fs *pflag.FlagSet) LoadOption {
	return func(v *viper.Viper) error {
		if fs == nil {
			return nil
		}
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, ok := defaults[key]; !ok || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(key, f)
		})
		return bindErr
	}
}

// Load reads configuration from environment variables and config files.
func Load(opts ...LoadOption) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finalize validates raw values and derives durations.
func (c *Config) finalize() error {
	c.Instance = strings.TrimSpace(c.Instance)
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}

	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	c.RequestTimeout = time.Duration(c.RequestTimeoutSeconds) * time.Second

	if c.SyncIntervalSeconds <= 0 {
		return fmt.Errorf("invalid sync_interval (must be positive seconds)")
	}
	c.SyncInterval = time.Duration(c.SyncIntervalSeconds) * time.Second

	if c.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if c.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	c.StorageTTL = time.Duration(c.StorageTTLSeconds) * time.Second
	c.StorageCleanupInterval = time.Duration(c.StorageCleanupSeconds) * time.Second

	return nil
}

// CMS returns the settings the API client needs.
func (c *Config) CMS() cms.Config {
	return cms.Config{
		Instance:     c.Instance,
		AuthUser:     c.AuthUser,
		AuthPassword: c.AuthPassword,
		BaseURL:      c.BaseURL,
		Timeout:      c.RequestTimeout,
	}
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.AuthPassword != "" {
		c.AuthPassword = redactedValue
	}
	return c
}
