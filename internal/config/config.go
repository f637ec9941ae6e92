// Package config holds the process configuration and its YAML file format.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full process configuration. Durations are strings in
// time.ParseDuration syntax so the YAML file stays human friendly.
type Config struct {
	Addr        string `yaml:"addr"`
	WebDir      string `yaml:"web_dir"`
	DatabaseURL string `yaml:"database_url"`
	// CachePath enables the warm-start cache when set.
	CachePath string `yaml:"cache_path"`
	Timezone  string `yaml:"timezone"`

	SessionTTL      string `yaml:"session_ttl"`
	StoreIdle       string `yaml:"store_idle"`
	JanitorInterval string `yaml:"janitor_interval"`

	// DevUser disables authentication and serves every request as this
	// user. Only for local development.
	DevUser string `yaml:"dev_user"`

	OIDC OIDCConfig `yaml:"oidc"`
}

// OIDCConfig configures single sign-on.
type OIDCConfig struct {
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Enabled reports whether enough is configured to attempt discovery.
func (o OIDCConfig) Enabled() bool {
	return o.Issuer != "" && o.ClientID != ""
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		WebDir:          "web",
		Timezone:        "UTC",
		SessionTTL:      "24h",
		StoreIdle:       "2h",
		JanitorInterval: "10m",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Location resolves Timezone. An empty value means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Durations holds the parsed duration settings.
type Durations struct {
	SessionTTL      time.Duration
	StoreIdle       time.Duration
	JanitorInterval time.Duration
}

// Durations parses the duration settings.
func (c *Config) Durations() (Durations, error) {
	var d Durations
	var errs []error
	parse := func(name, v string, dst *time.Duration) {
		p, err := time.ParseDuration(v)
		if err != nil || p <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, v))
			return
		}
		*dst = p
	}
	parse("session_ttl", c.SessionTTL, &d.SessionTTL)
	parse("store_idle", c.StoreIdle, &d.StoreIdle)
	parse("janitor_interval", c.JanitorInterval, &d.JanitorInterval)
	return d, errors.Join(errs...)
}

// Validate checks that the configuration can be started.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.DatabaseURL == "" && c.DevUser == "" {
		errs = append(errs, errors.New("database_url is required unless dev_user is set"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Durations(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
