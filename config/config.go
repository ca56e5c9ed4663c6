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
	Browser   BrowserConfig
	Capture   CaptureConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
	Engine    EngineConfig
	Webhook   WebhookConfig

	// ProfilePath points at a YAML/JSON/TOML site profile. Empty means the
	// built-in default profile.
	ProfilePath string
}

// EngineConfig controls how a page is obtained before validation.
type EngineConfig struct {
	// EnableMultiEngine lets the dispatcher try a plain HTTP fetch before
	// escalating to the browser. Layout checks are skipped for HTTP results.
	EnableMultiEngine bool // default: false

	// EscalationDelays is the staged start delay for each engine tier.
	EscalationDelays []time.Duration // default: [0s, 2s]

	// HTTPTimeout is the deadline for the pure HTTP engine.
	HTTPTimeout time.Duration // default: 5s
}

// CacheConfig controls the report cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached reports.
	MaxEntries int // default: 1000

	// CleanupInterval is how often expired reports are purged.
	CleanupInterval time.Duration // default: 5m
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects go-rod/stealth into every new page.
	Stealth bool // default: true
}

// CaptureConfig controls a single page capture.
type CaptureConfig struct {
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout time.Duration // default: 45s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 120s

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 15s

	// BodyTimeout bounds the wait for <body>. Exceeding it fails the
	// whole capture.
	BodyTimeout time.Duration // default: 15s

	// RegionTimeout bounds each per-region await (footer). Exceeding it
	// fails only that region.
	RegionTimeout time.Duration // default: 10s

	// ViewportWidth and ViewportHeight size the emulated window.
	ViewportWidth  int // default: 1920
	ViewportHeight int // default: 1080

	// DismissConsent clicks a cookie banner's accept button, best effort.
	DismissConsent bool // default: true

	// BlockedResourceTypes lists resource types to block. Images and
	// stylesheets stay enabled since they drive layout.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// WebhookConfig controls report delivery.
type WebhookConfig struct {
	// Secret signs payloads with HMAC-SHA256. Empty disables signing.
	Secret string

	// Timeout bounds one delivery attempt.
	Timeout time.Duration // default: 10s
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SITECHECK_HOST", "0.0.0.0"),
			Port: envIntOr("SITECHECK_PORT", 8080),
			Mode: envOr("SITECHECK_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("SITECHECK_HEADLESS", true),
			MaxPages:     envIntOr("SITECHECK_MAX_PAGES", 4),
			DefaultProxy: os.Getenv("SITECHECK_PROXY"),
			NoSandbox:    envBoolOr("SITECHECK_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("SITECHECK_BROWSER_BIN"),
			Stealth:      envBoolOr("SITECHECK_STEALTH", true),
		},
		Capture: CaptureConfig{
			DefaultTimeout:    envDurationOr("SITECHECK_DEFAULT_TIMEOUT", 45*time.Second),
			MaxTimeout:        envDurationOr("SITECHECK_MAX_TIMEOUT", 120*time.Second),
			NavigationTimeout: envDurationOr("SITECHECK_NAV_TIMEOUT", 15*time.Second),
			BodyTimeout:       envDurationOr("SITECHECK_BODY_TIMEOUT", 15*time.Second),
			RegionTimeout:     envDurationOr("SITECHECK_REGION_TIMEOUT", 10*time.Second),
			ViewportWidth:     envIntOr("SITECHECK_VIEWPORT_WIDTH", 1920),
			ViewportHeight:    envIntOr("SITECHECK_VIEWPORT_HEIGHT", 1080),
			DismissConsent:    envBoolOr("SITECHECK_DISMISS_CONSENT", true),
			BlockedResourceTypes: envSliceOr("SITECHECK_BLOCKED_RESOURCES", []string{
				"Font", "Media",
			}),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SITECHECK_AUTH_ENABLED", true),
			APIKeys: envSliceOr("SITECHECK_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SITECHECK_RATE_RPS", 2.0),
			Burst:             envIntOr("SITECHECK_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries:      envIntOr("SITECHECK_CACHE_MAX_ENTRIES", 1000),
			CleanupInterval: envDurationOr("SITECHECK_CACHE_CLEANUP", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  envOr("SITECHECK_LOG_LEVEL", "info"),
			Format: envOr("SITECHECK_LOG_FORMAT", "json"),
		},
		Engine: EngineConfig{
			EnableMultiEngine: envBoolOr("SITECHECK_MULTI_ENGINE", false),
			EscalationDelays:  envDurationSliceOr("SITECHECK_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second}),
			HTTPTimeout:       envDurationOr("SITECHECK_HTTP_TIMEOUT", 5*time.Second),
		},
		Webhook: WebhookConfig{
			Secret:  os.Getenv("SITECHECK_WEBHOOK_SECRET"),
			Timeout: envDurationOr("SITECHECK_WEBHOOK_TIMEOUT", 10*time.Second),
		},
		ProfilePath: os.Getenv("SITECHECK_PROFILE"),
	}
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
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

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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
