package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Data store
	DatabasePath string
	SeedDemoData bool

	// External services
	GatewayAPIURL   string
	GatewayKeyID    string
	MessengerAPIURL string
	MessengerSID    string

	// Payment links
	LinkSigningSecret string
	LinkTTL           time.Duration

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	ContextCacheTTL time.Duration

	// Context builder windows
	PaymentHistoryMonths   int
	InteractionWindowDays  int
	RecentInteractionLimit int

	// Decision rules
	RulesPath string // optional YAML overriding the built-in rule table

	// Trigger
	ReminderDays []int

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabasePath: getEnv("DATABASE_PATH", "data/emi_collections.db"),
		SeedDemoData: getEnv("SEED_DEMO_DATA", "false") == "true",

		GatewayAPIURL:   getEnv("GATEWAY_API_URL", ""),
		GatewayKeyID:    getEnv("GATEWAY_KEY_ID", ""),
		MessengerAPIURL: getEnv("MESSENGER_API_URL", ""),
		MessengerSID:    getEnv("MESSENGER_SID", ""),

		LinkSigningSecret: getEnv("LINK_SIGNING_SECRET", "emi-default-dev-secret-change-me"),
		LinkTTL:           getEnvDuration("LINK_TTL", 24*time.Hour),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 10),

		ContextCacheTTL: getEnvDuration("CONTEXT_CACHE_TTL", 5*time.Minute),

		PaymentHistoryMonths:   getEnvInt("PAYMENT_HISTORY_MONTHS", 6),
		InteractionWindowDays:  getEnvInt("INTERACTION_WINDOW_DAYS", 30),
		RecentInteractionLimit: getEnvInt("RECENT_INTERACTION_LIMIT", 10),

		RulesPath: getEnv("DECISION_RULES_PATH", ""),

		ReminderDays: getEnvInts("REMINDER_DAYS", []int{7, 3, 1, 0}),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInts(key string, fallback []int) []int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fallback
		}
		out = append(out, i)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
