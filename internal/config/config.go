package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	PRServer   PRServerConfig
	Moderation ModerationConfig
	Session    SessionConfig
	Auth       AuthConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type PRServerConfig struct {
	BaseURL string
	APIKey  string
}

type ModerationConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type SessionConfig struct {
	TTLMinutes int
}

type AuthConfig struct {
	JWTSecret    string
	AllowedUsers []string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		PRServer: PRServerConfig{
			BaseURL: getEnv("PR_SERVER_BASE_URL", "http://localhost:8000"),
			APIKey:  getEnv("PR_SERVER_API_KEY", ""),
		},
		Moderation: ModerationConfig{
			APIKey:  getEnv("MODERATION_API_KEY", ""),
			BaseURL: getEnv("MODERATION_BASE_URL", ""),
			Model:   getEnv("MODERATION_MODEL", "gpt-4o-mini"),
		},
		Session: SessionConfig{
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 30),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			AllowedUsers: getEnvAsList("ALLOWED_USERS", nil),
		},
	}
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

func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
