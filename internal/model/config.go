package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. CLINICDESK_API_BASE_URL.
const envPrefix = "CLINICDESK"

// APIConfig holds settings for the clinic REST API.
type APIConfig struct {
	// BaseURL is the API root, without a trailing slash.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// NotificationsConfig holds settings for the admin notification poller.
type NotificationsConfig struct {
	PollIntervalMs int    `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
	AdminRole      string `mapstructure:"admin_role" yaml:"admin_role"`
	ToastTTLMs     int    `mapstructure:"toast_ttl_ms" yaml:"toast_ttl_ms"`
}

// GateConfig controls route access checks.
type GateConfig struct {
	// EnforceRoles requires the signed-in user's role to match the
	// route's roles. When false only the access token's presence counts.
	EnforceRoles bool `mapstructure:"enforce_roles" yaml:"enforce_roles"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// StoreConfig locates the local sqlite database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API           APIConfig           `mapstructure:"api" yaml:"api"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Gate          GateConfig          `mapstructure:"gate" yaml:"gate"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
	Store         StoreConfig         `mapstructure:"store" yaml:"store"`
}

// PollInterval returns the notification poll interval.
func (c AppConfig) PollInterval() time.Duration {
	return time.Duration(c.Notifications.PollIntervalMs) * time.Millisecond
}

// ToastTTL returns how long a toast stays on screen.
func (c AppConfig) ToastTTL() time.Duration {
	return time.Duration(c.Notifications.ToastTTLMs) * time.Millisecond
}

// RequestTimeout returns the per-request HTTP timeout.
func (c AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// configDir returns ~/.config/clinicdesk, or the working directory when
// the home directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "clinicdesk")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/clinicdesk/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultConfig returns the configuration used when no file or
// environment override is present.
func DefaultConfig() *AppConfig {
	return defaultAppConfig()
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := configDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:8000/api",
			TimeoutSec: 30,
		},
		Notifications: NotificationsConfig{
			PollIntervalMs: 12000,
			AdminRole:      RoleAdmin,
			ToastTTLMs:     5000,
		},
		Gate: GateConfig{
			EnforceRoles: true,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "clinicdesk.log"),
		},
		Store: StoreConfig{
			Path: filepath.Join(dir, "clinicdesk.db"),
		},
	}
}

// newViper returns a viper instance with defaults and environment
// overrides registered.
func newViper(path string) *viper.Viper {
	d := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Every key needs a default so AutomaticEnv can resolve it on Unmarshal.
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("notifications.poll_interval_ms", d.Notifications.PollIntervalMs)
	v.SetDefault("notifications.admin_role", d.Notifications.AdminRole)
	v.SetDefault("notifications.toast_ttl_ms", d.Notifications.ToastTTLMs)
	v.SetDefault("gate.enforce_roles", d.Gate.EnforceRoles)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("store.path", d.Store.Path)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) apply.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.Notifications.PollIntervalMs <= 0 {
		cfg.Notifications.PollIntervalMs = 12000
	}
	if cfg.Notifications.ToastTTLMs <= 0 {
		cfg.Notifications.ToastTTLMs = 5000
	}
	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = 30
	}
	if cfg.Notifications.AdminRole == "" {
		cfg.Notifications.AdminRole = RoleAdmin
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

	v.Set("api", cfg.API)
	v.Set("notifications", cfg.Notifications)
	v.Set("gate", cfg.Gate)
	v.Set("log", cfg.Log)
	v.Set("store", cfg.Store)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
