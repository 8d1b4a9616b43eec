package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string // default: 8080

	// Database
	PostgresDSN string

	// Cache / rate limit store
	RedisAddr string

	// Providers
	AIProvider      string // "gemini", "claude" or "openai"; default: gemini
	GeminiAPIKey    string
	AnthropicAPIKey string
	OpenAIAPIKey    string

	// Billing webhook
	StripeWebhookSecret string
	StripeStarterPrice  string
	StripeProPrice      string

	// Observability
	OTELExporterType     string // "stdout" or "otlp"
	OTELExporterEndpoint string // default: "localhost:4317"
}

func Load() (*Config, error) {
	// Load .env file if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		PostgresDSN:          os.Getenv("POSTGRES_DSN"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		AIProvider:           getEnv("AI_PROVIDER", "gemini"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		AnthropicAPIKey:      os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeStarterPrice:   os.Getenv("STRIPE_STARTER_PRICE_ID"),
		StripeProPrice:       os.Getenv("STRIPE_PRO_PRICE_ID"),
		OTELExporterType:     getEnv("OTEL_EXPORTER_TYPE", "stdout"),
		OTELExporterEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
	}

	// Validation
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required")
	}
	switch cfg.AIProvider {
	case "gemini", "claude", "openai":
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q (want gemini, claude or openai)", cfg.AIProvider)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
