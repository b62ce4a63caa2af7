package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "FRONTEND_URL", "ALLOWED_ORIGINS", "STORE_BACKEND", "DB_PATH", "ASSISTANT_ADDR"} {
		t.Setenv(key, "")
	}
	t.Setenv("PORT", "8080")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("DB_PATH", "./data/wildscan.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Backend != BackendSQLite {
		t.Errorf("expected sqlite backend, got %q", cfg.Store.Backend)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard origins without FRONTEND_URL, got %v", cfg.AllowedOrigins)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development mode without FRONTEND_URL")
	}
	if cfg.Timeout.HealthCheck != 5*time.Second {
		t.Errorf("unexpected health check timeout %v", cfg.Timeout.HealthCheck)
	}
}

func TestLoadRedisAndOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("FRONTEND_URL", "https://wildscan.example")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("HEALTH_CHECK_TIMEOUT", "750ms")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Backend != BackendRedis || cfg.Store.RedisAddr != "cache:6379" || cfg.Store.RedisDB != 3 {
		t.Errorf("unexpected store config %+v", cfg.Store)
	}
	if cfg.IsDevelopment() {
		t.Error("expected production mode for public FRONTEND_URL")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.Timeout.HealthCheck != 750*time.Millisecond {
		t.Errorf("unexpected health check timeout %v", cfg.Timeout.HealthCheck)
	}
	if cfg.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("expected fallback rate limit, got %d", cfg.RateLimit.RequestsPerMinute)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestValidateRejectsEmptyDBPath(t *testing.T) {
	cfg := &Config{
		Port:      "8080",
		Store:     StoreConfig{Backend: BackendSQLite},
		RateLimit: RateLimitConfig{RequestsPerMinute: 1, Burst: 1},
		Timeout:   TimeoutConfig{HealthCheck: time.Second},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty DB_PATH")
	}
}
