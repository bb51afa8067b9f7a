package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

type Config struct {
	// Required
	GoogleAPIKey          string
	GoogleCredentialsFile string
	GoogleTokenFile       string

	// Language model
	LLMProvider   string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Calendar and slots
	CalendarID     string
	Timezone       string
	SlotMinutes    int
	BookingSummary string
	MaxEventSpan   time.Duration

	// Optional with defaults
	DBPath        string
	HTTPPort      int
	BaseURL       string
	RatePerMinute int
	DevMode       bool

	// Booking confirmation e-mail
	ResendAPIKey string
	EmailFrom    string
	NotifyEmail  string
}

func LoadFromEnv() *Config {
	cfg := &Config{
		// Required
		GoogleAPIKey:          os.Getenv("GOOGLE_API_KEY"),
		GoogleCredentialsFile: getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", "./credentials.json"),
		GoogleTokenFile:       getEnvOrDefault("GOOGLE_TOKEN_FILE", "./token.json"),

		LLMProvider:   getEnvOrDefault("ASSISTANT_LLM_PROVIDER", "gemini"),
		GeminiModel:   getEnvOrDefault("ASSISTANT_GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   getEnvOrDefault("ASSISTANT_OPENAI_MODEL", "gpt-4o-mini"),

		CalendarID:     getEnvOrDefault("ASSISTANT_CALENDAR_ID", "primary"),
		Timezone:       getEnvOrDefault("ASSISTANT_TIMEZONE", "Asia/Kolkata"),
		SlotMinutes:    getEnvAsIntOrDefault("ASSISTANT_SLOT_MINUTES", 30),
		BookingSummary: getEnvOrDefault("ASSISTANT_BOOKING_SUMMARY", "Booked via AI"),
		MaxEventSpan:   getEnvAsDurationOrDefault("ASSISTANT_MAX_EVENT_SPAN", 0),

		// Optional with defaults
		DBPath:        getEnvOrDefault("ASSISTANT_DB_PATH", "./assistant.db"),
		HTTPPort:      getEnvAsIntOrDefault("ASSISTANT_HTTP_PORT", 8000),
		BaseURL:       os.Getenv("ASSISTANT_BASE_URL"),
		RatePerMinute: getEnvAsIntOrDefault("ASSISTANT_RATE_PER_MINUTE", 30),
		DevMode:       getEnvAsBoolOrDefault("ASSISTANT_DEV_MODE", false),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getEnvOrDefault("ASSISTANT_EMAIL_FROM", "Calendar Assistant <assistant@resend.dev>"),
		NotifyEmail:  os.Getenv("ASSISTANT_NOTIFY_EMAIL"),
	}

	return cfg
}

// SlotLength returns the configured slot duration, never less than one minute.
func (c *Config) SlotLength() time.Duration {
	if c.SlotMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.SlotMinutes) * time.Minute
}

// LLMAPIKey returns the credential for the selected language model provider.
func (c *Config) LLMAPIKey() string {
	if c.LLMProvider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.GoogleAPIKey
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
