// internal/infrastructure/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string

	// Sessions
	SessionTTL   time.Duration
	SweepEvery   time.Duration
	ConvertLimit time.Duration

	// Conversion
	MaxUploadBytes int64
	ExtractWorkers int
	SamplePDFPath  string

	// Extraction defaults
	ArrivalPrefix   string
	DeparturePrefix string

	// MongoDB, optional
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// SQL, optional
	DatabaseDriver string
	DatabaseURL    string

	// Gmail, optional
	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string
	GmailPollInterval time.Duration
	GmailQuery        string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		AppVersion: getEnv("APP_VERSION", "1.0.0"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		Port:         getEnv("PORT", "8000"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 90)) * time.Second,
		CORSOrigins:  parseList(getEnv("CORS_ORIGINS", "*")),

		SessionTTL:   time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 30)) * time.Minute,
		SweepEvery:   time.Duration(getEnvAsInt("SESSION_SWEEP_SECONDS", 0)) * time.Second,
		ConvertLimit: time.Duration(getEnvAsInt("CONVERT_TIMEOUT_SECONDS", 60)) * time.Second,

		MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_MB", 25)) << 20,
		ExtractWorkers: getEnvAsInt("EXTRACT_WORKERS", 4),
		SamplePDFPath:  getEnv("SAMPLE_PDF_PATH", "samples/voucher.pdf"),

		ArrivalPrefix:   getEnv("ARRIVAL_PREFIX", ""),
		DeparturePrefix: getEnv("DEPARTURE_PREFIX", ""),

		MongoURI:      getEnv("MONGODB_DSN", ""),
		MongoDB:       getEnv("MONGO_DB", "vouchers"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
		GmailPollInterval: time.Duration(getEnvAsInt("GMAIL_POLL_INTERVAL", 60)) * time.Second,
		GmailQuery:        getEnv("GMAIL_QUERY", "has:attachment filename:pdf"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL_MINUTES must be positive"))
	}
	if c.ConvertLimit <= 0 {
		errs = append(errs, errors.New("CONVERT_TIMEOUT_SECONDS must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	if c.ExtractWorkers <= 0 {
		errs = append(errs, errors.New("EXTRACT_WORKERS must be positive"))
	}
	if c.DatabaseURL != "" && c.DatabaseDriver != "postgres" && c.DatabaseDriver != "mysql" {
		errs = append(errs, errors.New("DATABASE_DRIVER must be postgres or mysql"))
	}
	if c.GmailEnabled() && c.GmailPollInterval <= 0 {
		errs = append(errs, errors.New("GMAIL_POLL_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

// MongoEnabled reports whether a MongoDB DSN was configured
func (c *Config) MongoEnabled() bool { return c.MongoURI != "" }

// SQLEnabled reports whether a relational database was configured
func (c *Config) SQLEnabled() bool { return c.DatabaseURL != "" }

// GmailEnabled reports whether mailbox ingestion can start
func (c *Config) GmailEnabled() bool {
	return c.GmailRefreshToken != "" && c.GmailClientID != "" && c.GmailClientSecret != ""
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func parseList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
