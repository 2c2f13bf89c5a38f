package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.App.Port)
	}
	if got := cfg.Search.Timeout; got != 30*time.Second {
		t.Fatalf("expected search timeout 30s, got %v", got)
	}
	if got := cfg.PriceHistory.Timeout; got != 10*time.Second {
		t.Fatalf("expected price history timeout 10s, got %v", got)
	}
	if cfg.Search.Keyword != "high protein peanut butter" {
		t.Fatalf("unexpected default keyword %q", cfg.Search.Keyword)
	}
	if cfg.Search.MaxItems != 20 {
		t.Fatalf("expected 20 max items, got %d", cfg.Search.MaxItems)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", cfg.OpenAI.Model)
	}
	if cfg.Session.UsesRedis() {
		t.Fatalf("expected memory session store by default")
	}
	if len(cfg.App.CORSOrigins) != 2 || cfg.App.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected default cors origins %v", cfg.App.CORSOrigins)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis should be disabled without url or address")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RedisSessionStoreRequiresRedis(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvSessionStore, "redis")

	if _, err := Load(); err == nil {
		t.Fatal("expected redis session store without redis url to fail")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.Session.UsesRedis() {
		t.Fatalf("expected redis session store")
	}
}

func TestLoad_UnknownSessionStore(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvSessionStore, "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown session store to fail")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvSessionStore, "memory")
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvSerpAPIKey, "serp-key")
	t.Setenv(EnvRapidAPIKey, "rapid-key")
	t.Setenv(EnvOpenAIKey, "openai-key")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
