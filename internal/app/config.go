package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr        string
	PNCPBaseURL     string
	ExtractorURL    string
	SearchTimeout   time.Duration
	UpstreamTimeout time.Duration
	PageSize        int
	Concurrency     int
	UpstreamRPS     float64
	UpstreamBurst   int
	RedisURL        string
	RateLimitWindow time.Duration
	RateLimitMax    int
	LogLevel        string
	LogFormat       string
	UserAgent       string
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8091"),
		PNCPBaseURL:     getEnv("PNCP_BASE_URL", "https://pncp.gov.br/api/consulta"),
		ExtractorURL:    getEnv("EXTRACTOR_URL", ""),
		SearchTimeout:   time.Duration(getEnvInt("SEARCH_TIMEOUT_SECONDS", 120)) * time.Second,
		UpstreamTimeout: time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 30)) * time.Second,
		PageSize:        getEnvInt("SEARCH_PAGE_SIZE", 50),
		Concurrency:     getEnvInt("FETCH_CONCURRENCY", 4),
		UpstreamRPS:     getEnvFloat("FETCH_RATE_LIMIT_RPS", 5),
		UpstreamBurst:   getEnvInt("FETCH_RATE_LIMIT_BURST", 1),
		RedisURL:        getEnv("REDIS_URL", ""),
		RateLimitWindow: time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX_REQUESTS", 20),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
		UserAgent:       getEnv("SEARCH_USER_AGENT", "licita-search/1.0"),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
