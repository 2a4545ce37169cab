package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the client and the bot
type Config struct {
	// Rating API
	APIBaseURL         string
	HTTPTimeoutSeconds int

	// Service account used by the bot (optional)
	APIUsername string
	APIPassword string

	// Discord
	DiscordToken         string
	DiscordApplicationID string

	// Database (credential store, tracked players)
	DatabasePath string

	// Match views
	HistoryPageSize int
	ProfilePageSize int
	DateLayout      string

	// Polling
	PollingIntervalSeconds int

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:           getEnvOrDefault("RATING_API_URL", "http://localhost:8000"),
		APIUsername:          os.Getenv("RATING_API_USERNAME"),
		APIPassword:          os.Getenv("RATING_API_PASSWORD"),
		DiscordToken:         os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordApplicationID: os.Getenv("DISCORD_APPLICATION_ID"),
		DatabasePath:         getEnvOrDefault("DATABASE_PATH", "./data/client.db"),
		DateLayout:           getEnvOrDefault("DATE_LAYOUT", "1/2/2006"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
	}

	ints := []struct {
		key      string
		fallback string
		dst      *int
	}{
		{"HTTP_TIMEOUT_SECONDS", "10", &cfg.HTTPTimeoutSeconds},
		{"HISTORY_PAGE_SIZE", "20", &cfg.HistoryPageSize},
		{"PROFILE_PAGE_SIZE", "10", &cfg.ProfilePageSize},
		{"POLLING_INTERVAL_SECONDS", "90", &cfg.PollingIntervalSeconds},
	}
	for _, v := range ints {
		n, err := strconv.Atoi(getEnvOrDefault(v.key, v.fallback))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", v.key, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive, got %d", v.key, n)
		}
		*v.dst = n
	}

	return cfg, nil
}

// RequireDiscord validates the fields the bot cannot run without
func (c *Config) RequireDiscord() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
