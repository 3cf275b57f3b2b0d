package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Catalog   ServiceConfig
	Execution ServiceConfig
	Storage   StorageConfig
	Tour      TourConfig
	UI        UIConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// ServiceConfig describes one remote endpoint.
type ServiceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects the key/value backend for saved code and preferences.
type StorageConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	RedisURL  string `mapstructure:"redis_url"`
	KeyPrefix string `mapstructure:"key_prefix"`
	// RedisPassword overrides the password in RedisURL. When empty the
	// credentials store is consulted.
	RedisPassword string `mapstructure:"redis_password"`
}

type TourConfig struct {
	DefaultVersion string `mapstructure:"default_version"`
}

type UIConfig struct {
	Theme string `mapstructure:"theme"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	File        string  `mapstructure:"file"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// Load reads configuration from file and env. Env var overrides use prefix RELEASETOUR_.
func Load() (Config, error) {
	v := viper.New()

	dataDir := filepath.Join(os.Getenv("HOME"), ".local", "share", "releasetour")

	// default values
	v.SetDefault("catalog.base_url", "http://localhost:8080")
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("execution.base_url", "http://localhost:8080")
	v.SetDefault("execution.timeout", 30*time.Second)
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.path", filepath.Join(dataDir, "releasetour.db"))
	v.SetDefault("storage.redis_url", "redis://localhost:6379/0")
	v.SetDefault("storage.key_prefix", "releasetour:")
	v.SetDefault("tour.default_version", "1.25")
	v.SetDefault("ui.theme", "mocha")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", filepath.Join(dataDir, "releasetour.log"))
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.file", filepath.Join(dataDir, "traces.jsonl"))
	v.SetDefault("telemetry.sample_ratio", 1.0)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("RELEASETOUR_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "releasetour"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("RELEASETOUR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Validate rejects settings the client cannot start with.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("config: storage.path is required for the sqlite driver")
		}
	case DriverRedis:
		if strings.TrimSpace(c.Storage.RedisURL) == "" {
			return fmt.Errorf("config: storage.redis_url is required for the redis driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	if !versionPattern.MatchString(c.Tour.DefaultVersion) {
		return fmt.Errorf("config: tour.default_version %q is not of the form N.N", c.Tour.DefaultVersion)
	}
	if strings.TrimSpace(c.Catalog.BaseURL) == "" || strings.TrimSpace(c.Execution.BaseURL) == "" {
		return fmt.Errorf("config: catalog.base_url and execution.base_url are required")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("config: telemetry.sample_ratio must be within [0,1]")
	}
	return nil
}
