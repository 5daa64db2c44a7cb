package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if got := cfg.FetchTimeout(); got != 10*time.Second {
		t.Fatalf("expected fetch timeout 10s, got %v", got)
	}
	if cfg.Links.ContactCap != 8 || cfg.Links.CareerCap != 6 {
		t.Fatalf("unexpected link caps: %+v", cfg.Links)
	}
	if len(cfg.Resolver.TLDs) != 6 || cfg.Resolver.TLDs[0] != ".com" || cfg.Resolver.TLDs[2] != ".co.in" {
		t.Fatalf("unexpected tlds: %v", cfg.Resolver.TLDs)
	}
	if !cfg.Search.Enabled || cfg.Search.BaseURL != "https://html.duckduckgo.com/html/" {
		t.Fatalf("unexpected search config: %+v", cfg.Search)
	}
	if cfg.DB.DSN != "" || cfg.PubSub.TopicName != "" {
		t.Fatalf("expected persistence and events disabled by default")
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
auth:
  enabled: true
  api_key: secret
http:
  user_agent: acme-bot
  timeout_seconds: 12
  respect_robots: true
search:
  enabled: true
  base_url: https://search.example/html/
  excluded_domains: ["*.directory.example"]
  rate_per_second: 0.5
  burst: 2
resolver:
  tlds: [".com", ".io"]
links:
  contact_cap: 3
  career_cap: 2
enrich:
  budget_seconds: 60
db:
  dsn: postgres://localhost/enricher
pubsub:
  project_id: acme
  topic_name: enrichments
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Auth.Enabled || cfg.Auth.APIKey != "secret" {
		t.Fatalf("expected auth enabled with secret key")
	}
	if cfg.HTTP.UserAgent != "acme-bot" || !cfg.HTTP.RespectRobots {
		t.Fatalf("expected http overrides to apply: %+v", cfg.HTTP)
	}
	if cfg.Search.RatePerSecond != 0.5 || cfg.Search.Burst != 2 {
		t.Fatalf("expected search throttle overrides: %+v", cfg.Search)
	}
	if len(cfg.Search.ExcludedDomains) != 1 || cfg.Search.ExcludedDomains[0] != "*.directory.example" {
		t.Fatalf("expected excluded domains override: %v", cfg.Search.ExcludedDomains)
	}
	if len(cfg.Resolver.TLDs) != 2 || cfg.Resolver.TLDs[1] != ".io" {
		t.Fatalf("expected tld override: %v", cfg.Resolver.TLDs)
	}
	if got := cfg.Budget(); got != 60*time.Second {
		t.Fatalf("expected budget 60s, got %v", got)
	}
	if cfg.Logging.Development {
		t.Fatalf("expected production logging")
	}
	if cfg.PubSub.TopicName != "enrichments" || cfg.DB.DSN == "" {
		t.Fatalf("expected db and pubsub overrides: %+v %+v", cfg.DB, cfg.PubSub)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ENRICHER_SERVER_PORT", "7070")
	t.Setenv("ENRICHER_LINKS_CAREER_CAP", "4")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Links.CareerCap != 4 {
		t.Fatalf("expected env career cap 4, got %d", cfg.Links.CareerCap)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("expected read config error, got %v", err)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:   ServerConfig{Port: 8080},
		HTTP:     HTTPConfig{TimeoutSeconds: 10},
		Search:   SearchConfig{Enabled: true, BaseURL: "https://search.example", RatePerSecond: 1, Burst: 1},
		Resolver: ResolverConfig{TLDs: []string{".com"}},
		Links:    LinksConfig{ContactCap: 8, CareerCap: 6},
		Enrich:   EnrichConfig{BudgetSeconds: 300},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should be valid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 0 }, want: "server.port"},
		{name: "timeout too short", mutate: func(c *Config) { c.HTTP.TimeoutSeconds = 5 }, want: "http.timeout_seconds"},
		{name: "timeout too long", mutate: func(c *Config) { c.HTTP.TimeoutSeconds = 30 }, want: "http.timeout_seconds"},
		{name: "search without url", mutate: func(c *Config) { c.Search.BaseURL = "" }, want: "search.base_url"},
		{name: "search without rate", mutate: func(c *Config) { c.Search.RatePerSecond = 0 }, want: "search.rate_per_second"},
		{name: "no tlds", mutate: func(c *Config) { c.Resolver.TLDs = nil }, want: "resolver.tlds"},
		{name: "tld without dot", mutate: func(c *Config) { c.Resolver.TLDs = []string{"com"} }, want: "must start with a dot"},
		{name: "zero link cap", mutate: func(c *Config) { c.Links.CareerCap = 0 }, want: "links.contact_cap"},
		{name: "budget below timeout", mutate: func(c *Config) { c.Enrich.BudgetSeconds = 5 }, want: "enrich.budget_seconds"},
		{name: "auth missing api key", mutate: func(c *Config) { c.Auth.Enabled = true }, want: "auth.api_key"},
		{name: "topic without project", mutate: func(c *Config) { c.PubSub.TopicName = "t" }, want: "pubsub.project_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			cfg.Resolver.TLDs = append([]string(nil), base.Resolver.TLDs...)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	disabled := base
	disabled.Search = SearchConfig{}
	if err := disabled.Validate(); err != nil {
		t.Fatalf("disabled search should not need throttle settings: %v", err)
	}
}
