package config

import (
	"os"
	"strconv"
)

// Config holds everything the binaries read from the environment.
type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string

	// Media storage
	MediaRoot    string
	MediaBaseURL string

	// Maximum Base64 image payload length, in bytes, before decoding
	MaxUploadBytes int
}

// Load reads configuration from the environment with dev-friendly defaults.
func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    env,
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWKSURL:        getEnv("JWKS_URL", ""),
		CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:    getTablePrefix(env),
		MediaRoot:      getEnv("MEDIA_ROOT", "media"),
		MediaBaseURL:   getEnv("MEDIA_BASE_URL", "/media"),
		MaxUploadBytes: getEnvInt("MAX_UPLOAD_BYTES", 5<<20),
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
