package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the screener
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// AllowedOrigins are cross-origin pages allowed on /ws/screen; same-host pages always are
	AllowedOrigins []string

	// Storage
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig

	// External providers
	Alpaca AlpacaConfig
	SEC    SECConfig

	// Screening
	Screening ScreeningConfig
	Fetch     FetchConfig
	Schedule  ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DatabaseConfig holds PostgreSQL configuration (postgres cache backend)
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// CacheConfig selects the result cache backend
type CacheConfig struct {
	Backend    string // memory, sqlite, postgres, redis
	SQLitePath string
	KeyPrefix  string
}

// AlpacaConfig holds Alpaca Market Data credentials
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	DataURL   string
	Feed      string // iex, sip
}

// SECConfig holds SEC EDGAR configuration
// EDGAR requires a User-Agent of the form "Name email@example.com"
type SECConfig struct {
	UserAgent string
	BaseURL   string // www.sec.gov (ticker map, archives)
	DataURL   string // data.sec.gov (submissions, xbrl)
}

// ScreeningConfig holds CANSLIM thresholds and windows
type ScreeningConfig struct {
	Benchmark               string
	EarningsGrowthThreshold float64
	RelativeStrengthMin     float64
	SMAPeriod               int
	RSLookbackDays          int // trading days
	HistoryDays             int // calendar days of bars requested
	FreshnessWindow         time.Duration
	Concurrency             int
	ScreenLimit             int
	ProfilePath             string
}

// FetchConfig holds retry and rate limit settings for provider calls
type FetchConfig struct {
	MaxAttempts   int
	Backoff       []time.Duration
	CourtesyDelay time.Duration
	Timeout       time.Duration
	RateLimiter   string // local, redis
}

// ScheduleConfig holds the refresh job schedule
type ScheduleConfig struct {
	RefreshCron string
	Universe    string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port:           getEnv("PORT", "8089"),
		Env:            getEnv("ENV", "development"),
		AllowedOrigins: getEnvAsList("API_ALLOWED_ORIGINS"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Cache: CacheConfig{
			Backend:    strings.ToLower(getEnv("CACHE_BACKEND", "sqlite")),
			SQLitePath: getEnv("CACHE_SQLITE_PATH", "canslim.db"),
			KeyPrefix:  getEnv("CACHE_KEY_PREFIX", "canslim"),
		},

		Alpaca: AlpacaConfig{
			APIKey:    getEnv("ALPACA_API_KEY", ""),
			APISecret: getEnv("ALPACA_SECRET_KEY", ""),
			DataURL:   getEnv("ALPACA_DATA_URL", "https://data.alpaca.markets"),
			Feed:      getEnv("ALPACA_FEED", "iex"),
		},

		SEC: SECConfig{
			UserAgent: getEnv("SEC_API_USER_AGENT", ""),
			BaseURL:   getEnv("SEC_BASE_URL", "https://www.sec.gov"),
			DataURL:   getEnv("SEC_DATA_URL", "https://data.sec.gov"),
		},

		Screening: ScreeningConfig{
			Benchmark:               strings.ToUpper(getEnv("BENCHMARK_TICKER", "SPY")),
			EarningsGrowthThreshold: getEnvAsFloat("EARNINGS_GROWTH_THRESHOLD", 0.20),
			RelativeStrengthMin:     getEnvAsFloat("RELATIVE_STRENGTH_THRESHOLD", 1.0),
			SMAPeriod:               getEnvAsInt("SMA_PERIOD", 50),
			RSLookbackDays:          getEnvAsInt("RS_LOOKBACK_DAYS", 252),
			HistoryDays:             getEnvAsInt("HISTORY_DAYS", 400),
			FreshnessWindow:         getEnvAsDuration("CACHE_FRESHNESS_WINDOW", "24h"),
			Concurrency:             getEnvAsInt("SCREEN_CONCURRENCY", 1),
			ScreenLimit:             getEnvAsInt("DEFAULT_SCREEN_LIMIT", 50),
			ProfilePath:             getEnv("SCREEN_PROFILE", ""),
		},

		Fetch: FetchConfig{
			MaxAttempts:   getEnvAsInt("FETCH_MAX_ATTEMPTS", 3),
			Backoff:       getEnvAsDurations("FETCH_BACKOFF", "1s,2s,3s"),
			CourtesyDelay: getEnvAsDuration("RATE_LIMIT_DELAY", "300ms"),
			Timeout:       getEnvAsDuration("FETCH_TIMEOUT", "30s"),
			RateLimiter:   strings.ToLower(getEnv("RATE_LIMITER", "local")),
		},

		Schedule: ScheduleConfig{
			RefreshCron: getEnv("SCHEDULE_REFRESH_CRON", "0 30 16 * * 1-5"),
			Universe:    getEnv("SCHEDULE_UNIVERSE", "watchlist"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Cache.Backend {
	case "memory", "sqlite", "redis":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for CACHE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: memory, sqlite, postgres, redis")
	}

	if c.Cache.Backend == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("REDIS_ENABLED must be true for CACHE_BACKEND=redis")
	}

	if c.Fetch.RateLimiter != "local" && c.Fetch.RateLimiter != "redis" {
		return fmt.Errorf("RATE_LIMITER must be one of: local, redis")
	}

	if c.Fetch.MaxAttempts < 1 {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be at least 1")
	}

	if c.Screening.SMAPeriod < 1 || c.Screening.RSLookbackDays < 1 {
		return fmt.Errorf("SMA_PERIOD and RS_LOOKBACK_DAYS must be positive")
	}

	if c.Screening.FreshnessWindow < 0 {
		return fmt.Errorf("CACHE_FRESHNESS_WINDOW must not be negative")
	}

	if c.Screening.Concurrency < 1 {
		c.Screening.Concurrency = 1
	}

	return nil
}

// MissingKeys lists provider settings that are unset
// Missing keys never fail Load; the affected fetches surface as DataUnavailable
func (c *Config) MissingKeys() []string {
	var missing []string
	if c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "" {
		missing = append(missing, "ALPACA_API_KEY/ALPACA_SECRET_KEY")
	}
	if !c.SECConfigured() {
		missing = append(missing, "SEC_API_USER_AGENT")
	}
	return missing
}

// SECConfigured reports whether the EDGAR User-Agent carries a contact email
func (c *Config) SECConfigured() bool {
	ua := strings.TrimSpace(c.SEC.UserAgent)
	return ua != "" && strings.Contains(ua, "@")
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping empty entries
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsDurations parses a comma separated list such as "1s,2s,3s"
func getEnvAsDurations(key string, defaultValue string) []time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	durations, err := parseDurations(valueStr)
	if err != nil {
		durations, _ = parseDurations(defaultValue)
	}

	return durations
}

func parseDurations(s string) ([]time.Duration, error) {
	parts := strings.Split(s, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
