package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

// DatabaseConfig.Connection empty means the in-memory data provider with seed data.
type DatabaseConfig struct {
	Connection string
}

type SessionConfig struct {
	TTL           time.Duration // 0 keeps sessions for the process lifetime
	PurgeInterval time.Duration
}

type CacheConfig struct {
	QueryTTL time.Duration // 0 disables the query cache
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type AuditConfig struct {
	Topic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Session: SessionConfig{
			TTL:           time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 0)) * time.Minute,
			PurgeInterval: time.Duration(getEnvAsInt("SESSION_PURGE_MINUTES", 10)) * time.Minute,
		},
		Cache: CacheConfig{
			QueryTTL: time.Duration(getEnvAsInt("QUERY_CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Audit: AuditConfig{
			Topic: getEnv("AUDIT_TOPIC", "CONVERSATION_AUDIT"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
