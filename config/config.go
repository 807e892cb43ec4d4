// Package config loads bridge configuration from a YAML file and
// BOARDBRIDGE_* environment variables, applying defaults for everything
// that is safe to default. Credentials only ever come from the
// environment.
package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonwraymond/boardbridge/secret"
)

// Config holds all configuration for the bridge.
type Config struct {
	Organization  OrganizationConfig  `mapstructure:"organization"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Resilience    ResilienceConfig    `mapstructure:"resilience"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// OrganizationConfig identifies the remote organization and credentials.
type OrganizationConfig struct {
	// URL is the organization base URL, e.g. https://dev.azure.com/myorg.
	URL string `mapstructure:"url"`

	// PAT is the personal access token. Never put the raw value in a
	// config file; use the environment or a secretref, e.g.
	// "secretref:file:/run/secrets/pat".
	PAT string `mapstructure:"pat"`

	// DefaultProject is used when an operation names no project.
	DefaultProject string `mapstructure:"default_project"`
}

// CacheConfig tunes the shared response cache.
type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	MaxSize       int           `mapstructure:"max_size"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// ResilienceConfig tunes the timeout and retry chain.
type ResilienceConfig struct {
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
	MaxRetries       int           `mapstructure:"max_retries"`
	BaseDelay        time.Duration `mapstructure:"base_delay"`
	MaxDelay         time.Duration `mapstructure:"max_delay"`
	Multiplier       float64       `mapstructure:"multiplier"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`
}

// TracingConfig holds tracing settings.
type TracingConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Exporter  string  `mapstructure:"exporter"`
	SamplePct float64 `mapstructure:"sample_pct"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"`
}

// Load reads configuration from the given file (optional) and the
// environment. Environment variables use the BOARDBRIDGE_ prefix with
// underscores, e.g. BOARDBRIDGE_ORGANIZATION_URL.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("boardbridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("BOARDBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the environment can carry
		// everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("failed to resolve secrets: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Organization keys default to empty so environment overrides are
	// visible to Unmarshal even without a config file.
	v.SetDefault("organization.url", "")
	v.SetDefault("organization.pat", "")
	v.SetDefault("organization.default_project", "")

	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.sweep_interval", "1m")

	v.SetDefault("resilience.operation_timeout", "30s")
	v.SetDefault("resilience.max_retries", 3)
	v.SetDefault("resilience.base_delay", "1s")
	v.SetDefault("resilience.max_delay", "60s")
	v.SetDefault("resilience.multiplier", 2.0)

	v.SetDefault("observability.logging.enabled", true)
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.exporter", "none")
	v.SetDefault("observability.tracing.sample_pct", 1.0)
	v.SetDefault("observability.metrics.enabled", false)
	v.SetDefault("observability.metrics.exporter", "none")
}

// resolveSecrets expands ${VAR} references and secretref: values in the
// organization settings, so a config file can point at a secret instead
// of containing it.
func (c *Config) resolveSecrets() error {
	resolver := secret.NewResolver(secret.NewEnvProvider(), secret.NewFileProvider())
	ctx := context.Background()

	for name, field := range map[string]*string{
		"organization.url":             &c.Organization.URL,
		"organization.pat":             &c.Organization.PAT,
		"organization.default_project": &c.Organization.DefaultProject,
	} {
		if *field == "" {
			continue
		}
		resolved, err := resolver.ResolveValue(ctx, *field)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*field = resolved
	}
	return nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Organization.URL == "" {
		return fmt.Errorf("organization URL is required (BOARDBRIDGE_ORGANIZATION_URL)")
	}
	u, err := url.Parse(c.Organization.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("organization URL %q is not a valid URL", c.Organization.URL)
	}

	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("cache max size must be positive, got %d", c.Cache.MaxSize)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.Cache.TTL)
	}

	if c.Resilience.OperationTimeout <= 0 {
		return fmt.Errorf("operation timeout must be positive, got %s", c.Resilience.OperationTimeout)
	}
	if c.Resilience.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative, got %d", c.Resilience.MaxRetries)
	}
	if c.Resilience.BaseDelay <= 0 || c.Resilience.MaxDelay <= 0 {
		return fmt.Errorf("retry delays must be positive")
	}
	if c.Resilience.Multiplier < 1.0 {
		return fmt.Errorf("retry multiplier must be >= 1.0, got %f", c.Resilience.Multiplier)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if c.Observability.Logging.Enabled && !validLevels[c.Observability.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Observability.Logging.Level)
	}

	return nil
}
