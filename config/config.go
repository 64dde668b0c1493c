// Package config loads middleware settings from a file or the environment
// and translates them into bearerauth options. It exists for services that
// configure authentication per deployment rather than in code.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	bearerauth "github.com/authgate/go-bearer-middleware"
)

// Outage policy names accepted in configuration.
const (
	PolicyFailClosed = "fail_closed"
	PolicyFailOpen   = "fail_open"
)

// Config carries every middleware setting that can be supplied without
// code. The validator wiring (key material) stays in code; see the jwks and
// validator packages.
type Config struct {
	HeaderName        string   `mapstructure:"header_name"`
	SchemePrefix      string   `mapstructure:"scheme_prefix"`
	RoleTagPrefix     string   `mapstructure:"role_tag_prefix"`
	Priority          int      `mapstructure:"priority"`
	OutagePolicy      string   `mapstructure:"outage_policy"`
	ValidateOnOptions bool     `mapstructure:"validate_on_options"`
	ExcludedPaths     []string `mapstructure:"excluded_paths"`

	// Token validation settings, consumed by the validator and jwks
	// packages.
	Issuer       string   `mapstructure:"issuer"`
	Audience     []string `mapstructure:"audience"`
	JWKSURI      string   `mapstructure:"jwks_uri"`
	RoleClaim    string   `mapstructure:"role_claim"`
	ClockSkewSec int      `mapstructure:"clock_skew_sec"`
	CacheTTLSec  int      `mapstructure:"cache_ttl_sec"`
}

// Load reads configuration from the given file (any format viper supports)
// plus BEARERAUTH_* environment variables. An empty path skips the file and
// uses defaults and the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("header_name", bearerauth.DefaultHeaderName)
	v.SetDefault("scheme_prefix", bearerauth.DefaultSchemePrefix)
	v.SetDefault("role_tag_prefix", "ROLE_")
	v.SetDefault("priority", 0)
	v.SetDefault("outage_policy", PolicyFailClosed)
	v.SetDefault("validate_on_options", true)
	v.SetDefault("role_claim", "roles")
	v.SetDefault("clock_skew_sec", 0)
	v.SetDefault("cache_ttl_sec", 300)

	v.SetEnvPrefix("BEARERAUTH")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.OutagePolicy != PolicyFailClosed && cfg.OutagePolicy != PolicyFailOpen {
		return nil, fmt.Errorf("unknown outage policy %q", cfg.OutagePolicy)
	}

	return &cfg, nil
}

// MiddlewareOptions translates the config into bearerauth options. The
// caller appends bearerauth.WithValidator before constructing the
// middleware.
func (c *Config) MiddlewareOptions() []bearerauth.Option {
	opts := []bearerauth.Option{
		bearerauth.WithHeaderScheme(c.HeaderName, c.SchemePrefix),
		bearerauth.WithRoleTagPrefix(c.RoleTagPrefix),
		bearerauth.WithPriority(c.Priority),
		bearerauth.WithOutagePolicy(c.outagePolicy()),
		bearerauth.WithValidateOnOptions(c.ValidateOnOptions),
	}
	if len(c.ExcludedPaths) > 0 {
		opts = append(opts, bearerauth.WithExcludedPaths(c.ExcludedPaths))
	}
	return opts
}

// ClockSkew returns the configured skew as a duration.
func (c *Config) ClockSkew() time.Duration {
	return time.Duration(c.ClockSkewSec) * time.Second
}

// CacheTTL returns the configured JWKS cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

func (c *Config) outagePolicy() bearerauth.OutagePolicy {
	if c.OutagePolicy == PolicyFailOpen {
		return bearerauth.OutageFailOpen
	}
	return bearerauth.OutageFailClosed
}
