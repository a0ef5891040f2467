package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	// EncryptionKey is the hex-encoded AES key for message content; empty
	// disables the transform.
	EncryptionKey string
	// RedisAddr enables the cross-instance fan-out bridge when set.
	RedisAddr string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     getEnv("JWT_SECRET", "secret-key"),
		EncryptionKey: os.Getenv("MESSAGE_ENCRYPTION_KEY"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
