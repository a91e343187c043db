package config

import (
	"log/slog"
	"os"
	"time"
)

type Config struct {
	Port           string
	Env            string
	DatabaseDriver string
	DatabaseDSN    string
	JWTSecret      string
	JWTExpiry      time.Duration
	PublicDir      string
}

func Load() Config {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "taskdeck.db"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		JWTExpiry:      getDuration("JWT_EXPIRY", 24*time.Hour),
		PublicDir:      getEnv("PUBLIC_DIR", ""),
	}

	if cfg.Env == "production" && cfg.JWTSecret == "dev-secret-change-in-production" {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v)
		return fallback
	}
	return d
}
