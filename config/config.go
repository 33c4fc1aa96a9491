package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Payment gateway configuration
	GatewaySecretKey     string
	GatewayWebhookSecret string
	PlatformFeePercent   int64

	// Gateway notification channel (PubNub)
	PNSubscribeKey string
	PNSecretKey    string
	PNUUID         string
	PNChannel      string

	// Notifier configuration
	SMSAccountID string
	SMSAuthToken string
	SMSFrom      string

	// Pass configuration
	PassValidity       time.Duration
	PurchaseContextTTL time.Duration

	// Rate limiting
	RateLimitPerMinute int

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Payment gateway
		GatewaySecretKey:     getEnv("GATEWAY_SECRET_KEY", ""),
		GatewayWebhookSecret: getEnv("GATEWAY_WEBHOOK_SECRET", ""),
		PlatformFeePercent:   int64(getEnvAsInt("PLATFORM_FEE_PERCENT", 15)),

		// Gateway notifications
		PNSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PNSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PNUUID:         getEnv("PUBNUB_UUID", "lightning-pass-server"),
		PNChannel:      getEnv("PUBNUB_CHANNEL", "gateway-payment-notifications"),

		// Notifier
		SMSAccountID: getEnv("SMS_ACCOUNT_ID", ""),
		SMSAuthToken: getEnv("SMS_AUTH_TOKEN", ""),
		SMSFrom:      getEnv("SMS_FROM", ""),

		// Passes
		PassValidity:       getEnvAsDuration("PASS_VALIDITY", "24h"),
		PurchaseContextTTL: getEnvAsDuration("PURCHASE_CONTEXT_TTL", "15m"),

		// Rate limiting
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
