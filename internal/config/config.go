package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort           string
	DatabaseURL        string
	SessionSecret      string
	SessionTTL         time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	OpenAIAPIKey       string
	AnthropicAPIKey    string
	CORSOrigins        []string
	MaxMessagesPerChat int
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file (useful for development)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
		// Don't fail if .env is not present, might be in production
	}

	port := getEnv("HTTP_PORT", "8000")
	sessionSecret := getEnv("SESSION_SECRET", "dev-secret-key-change-in-production")
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set.")
	}

	sessionTTLStr := getEnv("SESSION_TTL_HOURS", "24")
	sessionTTLHours, err := strconv.Atoi(sessionTTLStr)
	if err != nil {
		log.Printf("Warning: Invalid SESSION_TTL_HOURS '%s', using default 24h. Error: %v", sessionTTLStr, err)
		sessionTTLHours = 24
	}

	maxMessagesStr := getEnv("MAX_MESSAGES_PER_CHAT", "20")
	maxMessages, err := strconv.Atoi(maxMessagesStr)
	if err != nil || maxMessages <= 0 {
		log.Printf("Warning: Invalid MAX_MESSAGES_PER_CHAT '%s', using default 20.", maxMessagesStr)
		maxMessages = 20
	}

	corsOrigins := strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}

	cfg := &Config{
		HTTPPort:           port,
		DatabaseURL:        dbURL,
		SessionSecret:      sessionSecret,
		SessionTTL:         time.Hour * time.Duration(sessionTTLHours),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		CORSOrigins:        corsOrigins,
		MaxMessagesPerChat: maxMessages,
	}

	log.Printf("Loaded config: Port=%s, DB_URL=***, SessionTTL=%s, MaxMessagesPerChat=%d", cfg.HTTPPort, cfg.SessionTTL, cfg.MaxMessagesPerChat)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}
