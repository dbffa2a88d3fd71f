// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// AWS / LocalStack
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// DynamoDB table names
	TenantsTable       string
	ServicesTable      string
	ProvidersTable     string
	FAQsTable          string
	BookingsTable      string
	AvailabilityTable  string
	WorkflowsTable     string
	ConversationsTable string

	// Redis conversation cache
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool
	ConversationTTL time.Duration

	// Postgres booking-events ledger. Empty disables ledger writes.
	DatabaseURL string

	// Notification delivery
	NotifyProvider       string // ses, sendgrid or stub
	NotifyQueueURL       string
	UseMemoryQueue       bool
	NotifyWorkerCount    int
	NotifyFromEmail      string
	NotifyFromName       string
	SendGridAPIKey       string
	NotifyReceiveWaitSec int

	// Stripe payment intents
	StripeSecretKey string
	StripeDryRun    bool

	// Slot generation
	SlotIntervalMinutes int

	// HTTP surface
	CORSAllowedOrigins   []string
	WebchatRatePerSecond float64
	WebchatRateBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		TenantsTable:       getEnv("TENANTS_TABLE", "tenants"),
		ServicesTable:      getEnv("SERVICES_TABLE", "services"),
		ProvidersTable:     getEnv("PROVIDERS_TABLE", "providers"),
		FAQsTable:          getEnv("FAQS_TABLE", "faqs"),
		BookingsTable:      getEnv("BOOKINGS_TABLE", "bookings"),
		AvailabilityTable:  getEnv("AVAILABILITY_TABLE", "availability"),
		WorkflowsTable:     getEnv("WORKFLOWS_TABLE", "workflows"),
		ConversationsTable: getEnv("CONVERSATIONS_TABLE", "conversations"),

		RedisAddr:       getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		ConversationTTL: getEnvAsDuration("CONVERSATION_TTL", 24*time.Hour),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		NotifyProvider:       strings.ToLower(strings.TrimSpace(getEnv("NOTIFY_PROVIDER", "stub"))),
		NotifyQueueURL:       getEnv("NOTIFY_QUEUE_URL", ""),
		UseMemoryQueue:       getEnvAsBool("USE_MEMORY_QUEUE", false),
		NotifyWorkerCount:    getEnvAsInt("NOTIFY_WORKER_COUNT", 2),
		NotifyFromEmail:      getEnv("NOTIFY_FROM_EMAIL", "reservas@turnoflow.io"),
		NotifyFromName:       getEnv("NOTIFY_FROM_NAME", "TurnoFlow"),
		SendGridAPIKey:       getEnv("SENDGRID_API_KEY", ""),
		NotifyReceiveWaitSec: getEnvAsInt("NOTIFY_RECEIVE_WAIT_SECONDS", 10),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		StripeDryRun:    getEnvAsBool("STRIPE_DRY_RUN", false),

		SlotIntervalMinutes: getEnvAsInt("SLOT_INTERVAL_MINUTES", 15),

		CORSAllowedOrigins:   getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
		WebchatRatePerSecond: getEnvAsFloat("WEBCHAT_RATE_PER_SECOND", 0),
		WebchatRateBurst:     getEnvAsInt("WEBCHAT_RATE_BURST", 20),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable, dropping empty entries
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
