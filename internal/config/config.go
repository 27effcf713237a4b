package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret is the deterministic development fallback for the token
// signing secret. Never rely on it outside local development.
const DevJWTSecret = "dev_secret_change_later"

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string // sqlite (default), postgres or mysql
	DatabasePath   string // sqlite only
	DatabaseURL    string // postgres/mysql only
	MigrationsPath string
	JWTSecret      string
	TokenTTL       time.Duration
}

// Load reads configuration from environment variables with development defaults.
// A .env file in the working directory is honoured when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:     getEnv("PORT", "5050"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./finlingo.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		JWTSecret:      getEnv("JWT_SECRET", DevJWTSecret),
		TokenTTL:       7 * 24 * time.Hour,
	}
}

// UsingDevSecret reports whether the signing secret is the development fallback
func (c *Config) UsingDevSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
