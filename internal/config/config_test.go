package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Host: "localhost", Name: "knowledge_registry"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database host")
	}
}

func TestValidate_MaxLimitCapped(t *testing.T) {
	cfg := validConfig()
	cfg.Search.MaxLimit = 50

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for max_limit above 15")
	}
	expected := "search.max_limit must not exceed 15, got 50"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_CacheDependencies(t *testing.T) {
	tests := []struct {
		name    string
		cache   CacheConfig
		gaps    GapsConfig
		wantErr bool
	}{
		{"disabled", CacheConfig{}, GapsConfig{}, false},
		{"enabled without addrs", CacheConfig{Enabled: true}, GapsConfig{}, true},
		{"gaps without cache", CacheConfig{}, GapsConfig{Enabled: true}, true},
		{"gaps with cache", CacheConfig{Enabled: true, Addrs: []string{"localhost:6379"}}, GapsConfig{Enabled: true}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Cache.Enabled, cfg.Cache.Addrs = tc.cache.Enabled, tc.cache.Addrs
			cfg.Gaps.Enabled = tc.gaps.Enabled

			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Port != 5432 || cfg.Database.SSLMode != "require" {
		t.Errorf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Search.DefaultMinAuthority != 50 || cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 15 {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
	if !cfg.Search.Strict() {
		t.Error("strict filters should default to true")
	}
	if cfg.Gaps.MinCoverage != 2 {
		t.Errorf("expected MinCoverage=2, got %d", cfg.Gaps.MinCoverage)
	}
	if cfg.Ingest.BatchSize != 50 || cfg.Ingest.PoolSize != 4 {
		t.Errorf("unexpected ingest defaults: %+v", cfg.Ingest)
	}
	if cfg.MCP.Path != "/mcp" {
		t.Errorf("expected MCP path /mcp, got %q", cfg.MCP.Path)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	strict := false
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Search: SearchConfig{StrictFilters: &strict, DefaultLimit: 5, MaxLimit: 8},
		Cache:  CacheConfig{TTLSec: 60},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Search.DefaultLimit != 5 || cfg.Search.MaxLimit != 8 {
		t.Errorf("search limits overridden: %+v", cfg.Search)
	}
	if cfg.Search.Strict() {
		t.Error("explicit strict_filters=false must be kept")
	}
	if cfg.CacheTTL().Seconds() != 60 {
		t.Errorf("expected 60s TTL, got %v", cfg.CacheTTL())
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("KR_TEST_DB_HOST", "db.internal")

	cfg, err := Parse([]byte(`
http:
  port: ${KR_TEST_PORT:-9090}
database:
  host: ${KR_TEST_DB_HOST}
  name: registry
search:
  strict_filters: false
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected default port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("expected host from env, got %q", cfg.Database.Host)
	}
	if cfg.Search.Strict() {
		t.Error("expected lenient filters")
	}
}

func TestLoad_ShippedConfigs(t *testing.T) {
	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("DB_HOST", "localhost")
			t.Setenv("DB_NAME", "knowledge_registry")
			t.Setenv("REDIS_ADDR", "localhost:6379")
			if _, err := Load(env); err != nil {
				t.Fatalf("config/%s.yaml: %v", env, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("KR_DOTENV_PROBE=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("KR_DOTENV_PROBE") })

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("KR_DOTENV_PROBE"); !strings.EqualFold(got, "loaded") {
		t.Errorf("expected variable from .env, got %q", got)
	}
}
