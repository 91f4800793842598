package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port              string
	DatabaseDSN       string // empty means the in-memory document store
	DatabaseLogLevel  string
	RedisAddr         string
	JWTSecret         string
	JWTTTL            time.Duration
	CORSOrigins       []string
	AllowRegistration bool
	GeminiAPIKey      string
	LogLevel          string
	UnknownSupplier   string
	CartCapPolicy     string

	// Warnings collects problems found while loading; they are logged once
	// the logger exists.
	Warnings []string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	var warnings []string
	if err := godotenv.Load(); err != nil {
		warnings = append(warnings, "No .env file found")
	}

	cfg := Config{
		Port:              envOr("PORT", "8080"),
		DatabaseDSN:       os.Getenv("DB_DSN"),
		DatabaseLogLevel:  envOr("DB_LOG_LEVEL", "warn"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTTTL:            24 * time.Hour,
		CORSOrigins:       splitList(envOr("CORS_ORIGINS", "http://localhost:8081")),
		AllowRegistration: os.Getenv("ALLOW_REGISTRATION") == "true",
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		UnknownSupplier:   envOr("UNKNOWN_SUPPLIER", "Неизвестный"),
		CartCapPolicy:     envOr("CART_CAP_POLICY", "cap"),
		Warnings:          warnings,
	}

	if raw := os.Getenv("JWT_TTL"); raw != "" {
		if ttl, err := time.ParseDuration(raw); err == nil {
			cfg.JWTTTL = ttl
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid JWT_TTL %q, using %s", raw, cfg.JWTTTL))
		}
	}
	if cfg.JWTSecret == "" {
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET is empty, using a development secret")
		cfg.JWTSecret = "dev-secret-change-me"
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
