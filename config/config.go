// Package config loads application settings from config.yml, an
// environment-specific profile and the process environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultEnv is used when APP_ENV is not set.
const DefaultEnv = "dev"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env                 string `mapstructure:"APP_ENV"`
	Debug               bool   `mapstructure:"DEBUG"`
	Testing             bool   `mapstructure:"TESTING"`
	Port                int    `mapstructure:"PORT"`
	SecretKey           string `mapstructure:"SECRET_KEY"`
	DatabasePath        string `mapstructure:"DATABASE_PATH"`
	DatabaseInMemory    bool   `mapstructure:"DATABASE_IN_MEMORY"`
	CacheType           string `mapstructure:"CACHE_TYPE"`
	CacheTTL            int    `mapstructure:"CACHE_TTL"`
	RedisURL            string `mapstructure:"REDIS_URL"`
	AssetsDebug         bool   `mapstructure:"ASSETS_DEBUG"`
	StaticDir           string `mapstructure:"STATIC_DIR"`
	HTTPUsername        string `mapstructure:"HTTP_USERNAME"`
	HTTPPassword        string `mapstructure:"HTTP_PASSWORD"`
	LogFile             string `mapstructure:"LOG_FILE"`
	LogLevel            string `mapstructure:"LOG_LEVEL"`
	DefaultLocale       string `mapstructure:"DEFAULT_LOCALE"`
	MethodOverrideField string `mapstructure:"METHOD_OVERRIDE_FIELD"`
	CSRFEnabled         bool   `mapstructure:"CSRF_ENABLED"`
}

var defaults = map[string]any{
	"DEBUG":                 false,
	"TESTING":               false,
	"PORT":                  5000,
	"SECRET_KEY":            "change-me-in-production",
	"DATABASE_PATH":         "data/badger",
	"DATABASE_IN_MEMORY":    false,
	"CACHE_TYPE":            "simple",
	"CACHE_TTL":             300,
	"REDIS_URL":             "localhost:6379",
	"ASSETS_DEBUG":          false,
	"STATIC_DIR":            "static",
	"HTTP_USERNAME":         "admin",
	"HTTP_PASSWORD":         "password",
	"LOG_FILE":              "",
	"LOG_LEVEL":             "info",
	"DEFAULT_LOCALE":        "en",
	"METHOD_OVERRIDE_FIELD": "_method",
	"CSRF_ENABLED":          true,
}

// LoadConfig loads configuration from the working directory (or its parent)
// and the environment. The profile is chosen by APP_ENV.
func LoadConfig() (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()
	return load(viper.New(), []string{".", ".."}, "")
}

// LoadConfigFrom loads configuration rooted at dir. A non-empty env
// overrides APP_ENV.
func LoadConfigFrom(dir, env string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))
	return load(viper.New(), []string{dir}, env)
}

func load(v *viper.Viper, paths []string, env string) (*Config, error) {
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		slog.Debug("config file not found; using environment variables and defaults")
	}

	if env == "" {
		env = v.GetString("APP_ENV")
	}
	if env == "" {
		env = DefaultEnv
	}
	v.Set("APP_ENV", env)

	v.SetConfigName("config." + env)
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && env == DefaultEnv:
			// dev is the default environment and its profile is optional.
		case errors.As(err, &notFound):
			return nil, fmt.Errorf("profile config 'config.%s.yml' not found: %w", env, err)
		default:
			return nil, fmt.Errorf("merge profile %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate ensures that required configuration values are present.
func (c *Config) Validate() error {
	if c.Port <= 0 {
		return errors.New("PORT must be positive")
	}
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	switch strings.ToLower(c.CacheType) {
	case "simple", "redis", "null":
	default:
		return fmt.Errorf("unknown CACHE_TYPE %q", c.CacheType)
	}
	if !c.DatabaseInMemory && c.DatabasePath == "" {
		return errors.New("DATABASE_PATH is required unless DATABASE_IN_MEMORY is set")
	}
	return nil
}

// IsProduction reports whether the app runs with the prod profile.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
