package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	TwelveAPIKey     string
	BinanceAPIKey    string
	BinanceSecretKey string
	TelegramToken    string

	RSIPeriod           int
	PivotWindow         int
	ClusterTolerancePct float64
	ActiveBandPct       float64
	DivergenceLookback  int
	CacheTTLSeconds     int
	RequestTimeout      int // seconds
	LogLevel            string
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.TwelveAPIKey = os.Getenv("TWELVE_API_KEY")
	cfg.BinanceAPIKey = os.Getenv("BINANCE_API_KEY")
	cfg.BinanceSecretKey = os.Getenv("BINANCE_SECRET_KEY")
	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	cfg.RSIPeriod = getEnvIntWithDefault("RSI_PERIOD", 14)
	cfg.PivotWindow = getEnvIntWithDefault("PIVOT_WINDOW", 5)
	cfg.ClusterTolerancePct = getEnvFloatWithDefault("CLUSTER_TOLERANCE_PCT", 0.3)
	cfg.ActiveBandPct = getEnvFloatWithDefault("ACTIVE_BAND_PCT", 15)
	cfg.DivergenceLookback = getEnvIntWithDefault("DIVERGENCE_LOOKBACK", 200)
	cfg.CacheTTLSeconds = getEnvIntWithDefault("CACHE_TTL_SECONDS", 240)
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	return &cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer value, using default")
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid float value, using default")
	}
	return defaultValue
}
