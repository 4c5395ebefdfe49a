package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Backend-as-a-service connection
	BaaSURL     string
	BaaSAnonKey string

	// Local storage
	DataDir      string
	HeartRateCap int
	DietCap      int

	// Weather lookup
	WeatherURL string
	WeatherTTL time.Duration

	// Background sync
	SyncInterval    time.Duration
	WeatherInterval time.Duration

	// Home location used for scheduled weather refreshes
	HomeLatitude  float64
	HomeLongitude float64

	// Crash reporting
	CrashEndpoint string
	CrashAPIKey   string

	// Metrics endpoint for the sync daemon
	MetricsAddr string

	Environment string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		BaaSURL:     getEnv("BAAS_URL", ""),
		BaaSAnonKey: getEnv("BAAS_ANON_KEY", ""),

		DataDir:      getEnv("DATA_DIR", "./data"),
		HeartRateCap: getIntEnv("HEART_RATE_CAP", 200),
		DietCap:      getIntEnv("DIET_CAP", 500),

		WeatherURL: getEnv("WEATHER_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherTTL: time.Duration(getIntEnv("WEATHER_TTL_MINUTES", 30)) * time.Minute,

		SyncInterval:    time.Duration(getIntEnv("SYNC_INTERVAL_MINUTES", 15)) * time.Minute,
		WeatherInterval: time.Duration(getIntEnv("WEATHER_INTERVAL_MINUTES", 60)) * time.Minute,

		HomeLatitude:  getFloatEnv("HOME_LATITUDE", 0),
		HomeLongitude: getFloatEnv("HOME_LONGITUDE", 0),

		CrashEndpoint: getEnv("CRASH_ENDPOINT", ""),
		CrashAPIKey:   getEnv("CRASH_API_KEY", ""),

		MetricsAddr: getEnv("METRICS_ADDR", ":9091"),

		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
