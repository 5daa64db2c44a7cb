// Package config loads and validates enricher configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Search   SearchConfig   `mapstructure:"search"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Links    LinksConfig    `mapstructure:"links"`
	Enrich   EnrichConfig   `mapstructure:"enrich"`
	DB       DBConfig       `mapstructure:"db"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                   int `mapstructure:"port"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// HTTPConfig configures the outbound page fetcher.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
	MaxBodyBytes   int    `mapstructure:"max_body_bytes"`
}

// SearchConfig configures the search engine fallback stages.
type SearchConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	BaseURL         string   `mapstructure:"base_url"`
	ExcludedDomains []string `mapstructure:"excluded_domains"`
	RatePerSecond   float64  `mapstructure:"rate_per_second"`
	Burst           int      `mapstructure:"burst"`
}

// ResolverConfig lists the TLDs tried when guessing a domain from a company name.
type ResolverConfig struct {
	TLDs []string `mapstructure:"tlds"`
}

// LinksConfig caps how many candidate links per topic are followed.
type LinksConfig struct {
	ContactCap int `mapstructure:"contact_cap"`
	CareerCap  int `mapstructure:"career_cap"`
}

// EnrichConfig bounds a single enrichment request.
type EnrichConfig struct {
	BudgetSeconds int `mapstructure:"budget_seconds"`
}

// DBConfig controls access to the relational database. An empty DSN keeps results in memory.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ENRICHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout_seconds", 15)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("http.user_agent", "lead-enricher/0.1")
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("http.max_body_bytes", 4<<20)
	v.SetDefault("search.enabled", true)
	v.SetDefault("search.base_url", "https://html.duckduckgo.com/html/")
	v.SetDefault("search.excluded_domains", []string{"*.duckduckgo.com", "*.facebook.com", "*.linkedin.com"})
	v.SetDefault("search.rate_per_second", 1.0)
	v.SetDefault("search.burst", 1)
	v.SetDefault("resolver.tlds", []string{".com", ".in", ".co.in", ".net", ".org", ".io"})
	v.SetDefault("links.contact_cap", 8)
	v.SetDefault("links.career_cap", 6)
	v.SetDefault("enrich.budget_seconds", 300)
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds < 10 || c.HTTP.TimeoutSeconds > 12 {
		return fmt.Errorf("http.timeout_seconds must be between 10 and 12")
	}
	if c.Search.Enabled {
		if c.Search.BaseURL == "" {
			return fmt.Errorf("search.base_url must be set when search is enabled")
		}
		if c.Search.RatePerSecond <= 0 || c.Search.Burst <= 0 {
			return fmt.Errorf("search.rate_per_second and search.burst must be > 0")
		}
	}
	if len(c.Resolver.TLDs) == 0 {
		return fmt.Errorf("resolver.tlds must not be empty")
	}
	for _, tld := range c.Resolver.TLDs {
		if !strings.HasPrefix(tld, ".") {
			return fmt.Errorf("resolver.tlds entry %q must start with a dot", tld)
		}
	}
	if c.Links.ContactCap <= 0 || c.Links.CareerCap <= 0 {
		return fmt.Errorf("links.contact_cap and links.career_cap must be > 0")
	}
	if c.Enrich.BudgetSeconds < c.HTTP.TimeoutSeconds {
		return fmt.Errorf("enrich.budget_seconds must be >= http.timeout_seconds")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// FetchTimeout returns the per-request fetch timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// Budget returns the wall-clock bound for one enrichment.
func (c Config) Budget() time.Duration {
	return time.Duration(c.Enrich.BudgetSeconds) * time.Second
}

// ShutdownTimeout returns how long the server waits for in-flight requests on shutdown.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}
