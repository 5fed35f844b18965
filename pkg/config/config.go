package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	RedisURL           string
	LogLevel           string
	CORSAllowedOrigins []string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret string
	TokenTTL  time.Duration

	RateLimitPerMinute   int
	StatsRefreshInterval time.Duration
	ListingCacheTTL      time.Duration
	CountsCacheTTL       time.Duration
	NearbyMaxRadiusKm    float64
}

// Load reads configuration from environment variables. A .env file is loaded
// first when present, matching how the development compose setup works.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	statsInterval, err := strconv.Atoi(getEnv("STATS_REFRESH_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_REFRESH_SECONDS: %w", err)
	}

	listingTTL, err := strconv.Atoi(getEnv("LISTING_CACHE_TTL_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid LISTING_CACHE_TTL_SECONDS: %w", err)
	}

	countsTTL, err := strconv.Atoi(getEnv("COUNTS_CACHE_TTL_SECONDS", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid COUNTS_CACHE_TTL_SECONDS: %w", err)
	}

	tokenTTLHours, err := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL_HOURS: %w", err)
	}

	maxRadius, err := strconv.ParseFloat(getEnv("NEARBY_MAX_RADIUS_KM", "50"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid NEARBY_MAX_RADIUS_KM: %w", err)
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  port,
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "rentalhub"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "rentalhub"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  time.Duration(tokenTTLHours) * time.Hour,

		RateLimitPerMinute:   rateLimit,
		StatsRefreshInterval: time.Duration(statsInterval) * time.Second,
		ListingCacheTTL:      time.Duration(listingTTL) * time.Second,
		CountsCacheTTL:       time.Duration(countsTTL) * time.Second,
		NearbyMaxRadiusKm:    maxRadius,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
