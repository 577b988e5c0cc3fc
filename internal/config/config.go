package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings read from the environment and an optional .env file.
type Config struct {
	// Market data
	AlphaVantageAPIKey  string
	AlphaVantageBaseURL string
	QuoteCurrency       string
	RequestsPerMinute   int
	MarketCacheTTL      time.Duration
	HTTPTimeout         time.Duration

	// Inputs
	SettingsFile       string
	TransactionsSource string
	GCPProject         string

	// Service account key for Google Sheets; ADC when empty.
	SheetsCredentialsFile string

	// Runtime
	LogLevel string
	Port     string
}

// Load reads .env (if present) and the environment.
func Load() *Config {
	_ = godotenv.Load()

	apiKey := getEnv("ALPHAVANTAGE_API_KEY", "")
	if apiKey == "" {
		// Older .env files name it API_KEY.
		apiKey = getEnv("API_KEY", "")
	}

	return &Config{
		AlphaVantageAPIKey:  apiKey,
		AlphaVantageBaseURL: getEnv("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
		QuoteCurrency:       strings.ToUpper(getEnv("QUOTE_CURRENCY", "RUB")),
		RequestsPerMinute:   getEnvInt("MARKET_REQUESTS_PER_MINUTE", 5),
		MarketCacheTTL:      getEnvDuration("MARKET_CACHE_TTL", 10*time.Minute),
		HTTPTimeout:         getEnvDuration("HTTP_TIMEOUT", 20*time.Second),

		SettingsFile:          getEnv("SETTINGS_FILE", "user_settings.json"),
		TransactionsSource:    getEnv("TRANSACTIONS_SOURCE", ""),
		GCPProject:            getEnv("GCP_PROJECT", getEnv("GOOGLE_CLOUD_PROJECT", "")),
		SheetsCredentialsFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if u, err := url.Parse(c.AlphaVantageBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errors = append(errors, fmt.Sprintf("invalid market data URL '%s': must be an http(s) URL", c.AlphaVantageBaseURL))
	}

	if len(c.QuoteCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid quote currency '%s': must be a 3-letter code", c.QuoteCurrency))
	}

	if c.RequestsPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid requests per minute %d: must be at least 1", c.RequestsPerMinute))
	}

	if c.MarketCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid market cache TTL %v: must not be negative", c.MarketCacheTTL))
	}

	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	}

	if c.SettingsFile == "" {
		errors = append(errors, "settings file path cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := getEnv(key, ""); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := getEnv(key, ""); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
