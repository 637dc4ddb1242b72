package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Line      LineConfig
	LLM       LLMConfig
	Fetcher   FetcherConfig
	Store     StoreConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// LineConfig holds LINE Messaging API credentials and endpoints.
type LineConfig struct {
	// ChannelSecret signs inbound webhook bodies (HMAC-SHA256).
	// Verification is mandatory: an empty secret rejects all deliveries.
	ChannelSecret string

	// ChannelToken is the bearer token for reply/push calls.
	ChannelToken string

	// APIBaseURL is the Messaging API origin. Overridable for tests.
	APIBaseURL string // default: "https://api.line.me"
}

// LLMConfig controls the optional analysis model.
// An empty APIKey disables the LLM path entirely; the deterministic
// fallback analyzer handles everything in that case.
type LLMConfig struct {
	APIKey  string
	Model   string        // default: "gpt-4o-mini"
	BaseURL string        // default: "https://api.openai.com/v1"
	Timeout time.Duration // default: 30s
}

// FetcherConfig controls page fetching.
type FetcherConfig struct {
	Timeout       time.Duration // default: 12s
	MaxBodyBytes  int64         // default: 10 MiB
	MaxTextChars  int           // default: 8000
	MaxParagraphs int           // default: 80
	Proxy         string        // optional "http://", "https://" or "socks5://" proxy
}

// StoreConfig controls persistence.
type StoreConfig struct {
	// Path is the SQLite database file. ":memory:" works for tests.
	Path string // default: "linksaver.db"

	// DedupScope is "owner" (one record per owner per URL) or "global"
	// (one record per URL across all owners).
	DedupScope string // default: "owner"
}

// AuthConfig controls dashboard API key authentication.
type AuthConfig struct {
	// APIKeys is the list of valid dashboard keys. Empty disables auth
	// (local development). The webhook is authenticated by its signature
	// and is unaffected.
	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting on the dashboard API.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 5
	Burst             int     // default: 10
}

// CacheConfig controls the fetch-result cache.
type CacheConfig struct {
	MaxEntries int           // default: 500
	TTL        time.Duration // default: 15m
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("LINKSAVER_HOST", "0.0.0.0"),
			Port: envIntOr("PORT", 8080),
			Mode: envOr("LINKSAVER_MODE", "release"),
		},
		Line: LineConfig{
			ChannelSecret: os.Getenv("LINE_CHANNEL_SECRET"),
			ChannelToken:  os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
			APIBaseURL:    envOr("LINE_API_BASE_URL", "https://api.line.me"),
		},
		LLM: LLMConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   envOr("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Timeout: envDurationOr("LINKSAVER_LLM_TIMEOUT", 30*time.Second),
		},
		Fetcher: FetcherConfig{
			Timeout:       envDurationOr("LINKSAVER_FETCH_TIMEOUT", 12*time.Second),
			MaxBodyBytes:  int64(envIntOr("LINKSAVER_FETCH_MAX_BYTES", 10*1024*1024)),
			MaxTextChars:  envIntOr("LINKSAVER_FETCH_MAX_CHARS", 8000),
			MaxParagraphs: envIntOr("LINKSAVER_FETCH_MAX_PARAGRAPHS", 80),
			Proxy:         os.Getenv("LINKSAVER_PROXY"),
		},
		Store: StoreConfig{
			Path:       envOr("LINKSAVER_DB_PATH", "linksaver.db"),
			DedupScope: envOr("LINKSAVER_DEDUP_SCOPE", "owner"),
		},
		Auth: AuthConfig{
			APIKeys: envSliceOr("LINKSAVER_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("LINKSAVER_RATE_RPS", 5.0),
			Burst:             envIntOr("LINKSAVER_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("LINKSAVER_CACHE_MAX_ENTRIES", 500),
			TTL:        envDurationOr("LINKSAVER_CACHE_TTL", 15*time.Minute),
		},
		Log: LogConfig{
			Level:  envOr("LINKSAVER_LOG_LEVEL", "info"),
			Format: envOr("LINKSAVER_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
