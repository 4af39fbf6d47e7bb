package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8089" {
		t.Errorf("Expected Port to be 8089, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Cache.Backend != "sqlite" {
		t.Errorf("Expected cache backend sqlite, got %s", cfg.Cache.Backend)
	}

	s := cfg.Screening
	if s.Benchmark != "SPY" || s.EarningsGrowthThreshold != 0.20 || s.RelativeStrengthMin != 1.0 {
		t.Errorf("Unexpected screening defaults: %+v", s)
	}
	if s.SMAPeriod != 50 {
		t.Errorf("Expected SMA period 50, got %d", s.SMAPeriod)
	}
	if s.FreshnessWindow != 24*time.Hour {
		t.Errorf("Expected freshness window 24h, got %v", s.FreshnessWindow)
	}

	f := cfg.Fetch
	if f.MaxAttempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", f.MaxAttempts)
	}
	wantBackoff := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if len(f.Backoff) != len(wantBackoff) {
		t.Fatalf("Expected backoff %v, got %v", wantBackoff, f.Backoff)
	}
	for i := range wantBackoff {
		if f.Backoff[i] != wantBackoff[i] {
			t.Errorf("Backoff[%d] = %v, want %v", i, f.Backoff[i], wantBackoff[i])
		}
	}
	if f.CourtesyDelay != 300*time.Millisecond {
		t.Errorf("Expected courtesy delay 300ms, got %v", f.CourtesyDelay)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("BENCHMARK_TICKER", "qqq")
	t.Setenv("EARNINGS_GROWTH_THRESHOLD", "0.25")
	t.Setenv("FETCH_BACKOFF", "500ms, 1s")
	t.Setenv("SCREEN_CONCURRENCY", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}
	if cfg.Screening.Benchmark != "QQQ" {
		t.Errorf("Expected benchmark QQQ, got %s", cfg.Screening.Benchmark)
	}
	if cfg.Screening.EarningsGrowthThreshold != 0.25 {
		t.Errorf("Expected threshold 0.25, got %v", cfg.Screening.EarningsGrowthThreshold)
	}
	if len(cfg.Fetch.Backoff) != 2 || cfg.Fetch.Backoff[0] != 500*time.Millisecond {
		t.Errorf("Unexpected backoff %v", cfg.Fetch.Backoff)
	}
	if cfg.Screening.Concurrency != 1 {
		t.Errorf("Expected concurrency to be clamped to 1, got %d", cfg.Screening.Concurrency)
	}
}

func TestValidatePostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "postgres")
	os.Unsetenv("DATABASE_URL")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when DATABASE_URL is missing, got nil")
	}
}

func TestValidateRedisBackendRequiresRedis(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ENABLED", "false")

	if _, err := Load(); err == nil {
		t.Error("Expected error when redis backend is selected without REDIS_ENABLED")
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	t.Setenv("ENV", "invalid")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when ENV is invalid, got nil")
	}
}

func TestValidateUnknownBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "mongo")

	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown cache backend")
	}
}

func TestMissingKeys(t *testing.T) {
	cfg := &Config{}
	missing := cfg.MissingKeys()
	if len(missing) != 2 {
		t.Fatalf("Expected 2 missing keys, got %v", missing)
	}

	cfg.Alpaca = AlpacaConfig{APIKey: "k", APISecret: "s"}
	cfg.SEC.UserAgent = "Jane Doe jane@example.com"
	if missing := cfg.MissingKeys(); len(missing) != 0 {
		t.Errorf("Expected no missing keys, got %v", missing)
	}

	cfg.SEC.UserAgent = "no email here"
	if cfg.SECConfigured() {
		t.Error("Expected user agent without email to be rejected")
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "2h")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	if duration != 2*time.Hour {
		t.Errorf("Expected duration to be %v, got %v", 2*time.Hour, duration)
	}
}

func TestGetEnvAsDurationsFallback(t *testing.T) {
	t.Setenv("TEST_DURATIONS", "1s,banana")

	got := getEnvAsDurations("TEST_DURATIONS", "1s,2s")
	if len(got) != 2 || got[1] != 2*time.Second {
		t.Errorf("Expected fallback to default list, got %v", got)
	}
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("TEST_LIST", " https://a.example.com, ,https://b.example.com ")

	got := getEnvAsList("TEST_LIST")
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Errorf("Expected two trimmed entries, got %q", got)
	}

	if got := getEnvAsList("TEST_LIST_UNSET"); got != nil {
		t.Errorf("Expected nil for unset key, got %q", got)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "1.5")

	if v := getEnvAsFloat("TEST_FLOAT", 0); v != 1.5 {
		t.Errorf("Expected 1.5, got %v", v)
	}
	if v := getEnvAsFloat("TEST_FLOAT_UNSET", 0.2); v != 0.2 {
		t.Errorf("Expected default 0.2, got %v", v)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "100")

	value := getEnvAsInt("TEST_INT", 50)
	if value != 100 {
		t.Errorf("Expected value to be 100, got %d", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")

	value := getEnvAsBool("TEST_BOOL", false)
	if value != true {
		t.Errorf("Expected value to be true, got %v", value)
	}
}
