package config

import (
	"fmt"
	"os"
)

// Config carries the environment-supplied settings shared by both services.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	// ChatEncryptionKey is the raw 32-byte secret (hex or base64 encoded)
	// consumed by chat.NewEncryptor. Validated there, required here.
	ChatEncryptionKey string

	AdminAPIKey string
}

// Load reads the environment. Fields listed in required must be present;
// the caller decides which ones its service actually needs.
func Load(required ...string) (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		ChatEncryptionKey: os.Getenv("CHAT_ENCRYPTION_KEY"),
		AdminAPIKey:       os.Getenv("ADMIN_API_KEY"),
	}

	for _, name := range required {
		if os.Getenv(name) == "" {
			return nil, fmt.Errorf("%s environment variable is not set", name)
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
