package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	MongoDB   MongoDBConfig
	AI        AIConfig
	Reporting ReportingConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port        string
	Environment string
	CORSOrigin  string
	LogLevel    string
}

// AuthConfig holds JWT signing settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// AIConfig holds settings for the summarization provider.
type AIConfig struct {
	Provider     string
	AnthropicKey string
	GeminiKey    string
	Model        string
	Timeout      time.Duration
}

// ReportingConfig holds the timezone used for every period window and the
// schedule of the automatic daily summary.
type ReportingConfig struct {
	Timezone            string
	SummaryCronSchedule string
}

// WhatsAppConfig contains credentials for the Meta WhatsApp Cloud API.
// The integration is optional: an empty AccessToken disables notifications.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	ManagerID     string
}

// SheetsConfig contains configuration required to export to Google Sheets.
// An empty SpreadsheetID disables the export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	tokenTTL, err := getDurationWithDefault("JWT_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	aiTimeout, err := getDurationWithDefault("AI_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getenvWithDefault("APP_PORT", "8080"),
			Environment: getenvWithDefault("APP_ENV", "development"),
			CORSOrigin:  getenvWithDefault("CORS_ORIGIN", "http://localhost:3000"),
			LogLevel:    getenvWithDefault("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  tokenTTL,
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "farmhand"),
		},
		AI: AIConfig{
			Provider:     strings.ToLower(getenvWithDefault("AI_PROVIDER", ProviderAnthropic)),
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
			GeminiKey:    os.Getenv("GEMINI_API_KEY"),
			Model:        os.Getenv("AI_MODEL"),
			Timeout:      aiTimeout,
		},
		Reporting: ReportingConfig{
			Timezone:            getenvWithDefault("TIMEZONE", "UTC"),
			SummaryCronSchedule: os.Getenv("SUMMARY_CRON_SCHEDULE"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			ManagerID:     os.Getenv("WHATSAPP_MANAGER_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}

	switch {
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	switch c.AI.Provider {
	case ProviderAnthropic:
		if c.AI.AnthropicKey == "" {
			return errors.New("ANTHROPIC_API_KEY must be provided")
		}
	case ProviderGemini:
		if c.AI.GeminiKey == "" {
			return errors.New("GEMINI_API_KEY must be provided")
		}
	default:
		return fmt.Errorf("AI_PROVIDER %q is not supported", c.AI.Provider)
	}

	if c.AI.Timeout <= 0 {
		return errors.New("AI_TIMEOUT must be positive")
	}

	if c.WhatsApp.Enabled() && c.WhatsApp.PhoneNumberID == "" {
		return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided when WHATSAPP_TOKEN is set")
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_DATABASE_ID is set")
	}

	return nil
}

// Location returns the configured reporting timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Reporting.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether the server runs in production mode.
func (c ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Enabled reports whether WhatsApp notifications are configured.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != ""
}

// Enabled reports whether the Google Sheets export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.SpreadsheetID != ""
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid duration: %w", key, err)
	}
	return d, nil
}
