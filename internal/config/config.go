package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Config holds the configuration for the application.
type Config struct {
	AIProvider           string
	GeminiAPIKey         string
	GeminiModel          string
	GroqAPIKey           string
	GroqModel            string
	AIRateLimitPerMinute int
	AITimeout            time.Duration

	DatabasePath string
	LogLevel     string
	LogFormat    string

	// Ghost Config (optional import source)
	GhostURL        string
	GhostContentKey string
	GhostAdminKey   string

	// Telegram Config (optional for CLI, required for Bot)
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
	Port                   string
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file is loaded first when present (or the file named by ENV_FILE).
func NewFromEnv() (*Config, error) {
	if err := loadEnv(); err != nil {
		return nil, err
	}

	provider := strings.ToLower(getEnv("AI_PROVIDER", ProviderGemini))

	cfg := &Config{
		AIProvider:   provider,
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
		GroqModel:    getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		DatabasePath: getEnv("DATABASE_PATH", "data/pantry.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),

		GhostURL:        os.Getenv("GHOST_API_URL"),
		GhostContentKey: os.Getenv("GHOST_CONTENT_API_KEY"),
		GhostAdminKey:   os.Getenv("GHOST_ADMIN_API_KEY"),

		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
		Port:               getEnv("PORT", "8080"),
	}

	switch provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", provider)
	}

	if cfg.GhostAdminKey == "" {
		// Fallback to content key if only one is provided
		cfg.GhostAdminKey = cfg.GhostContentKey
	}

	var err error
	if cfg.AIRateLimitPerMinute, err = parseIntEnv("AI_RATE_LIMIT_PER_MINUTE", 15); err != nil {
		return nil, err
	}
	if cfg.AITimeout, err = parseDurationEnv("AI_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.TelegramAllowedUserIDs, err = parseIDListEnv("TELEGRAM_ALLOWED_USER_IDS"); err != nil {
		return nil, err
	}
	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		if cfg.AdminTelegramID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID must be an integer: %w", err)
		}
	}

	return cfg, nil
}

// HasGhost reports whether a Ghost blog is configured as an import source.
func (c *Config) HasGhost() bool {
	return c.GhostURL != "" && c.GhostContentKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return parsed, nil
}

func parseIDListEnv(key string) ([]int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s contains an invalid id %q: %w", key, part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
