package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds the whole application configuration,
// populated from environment variables.
type Config struct {
	App      AppConfig
	Telegram TelegramConfig
	SheetDB  SheetDBConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	MinIO    MinIOConfig
	JWT      JWTConfig
	Bot      BotConfig
	Jobs     JobConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type TelegramConfig struct {
	BotToken      string
	APIURL        string // override for tests; default https://api.telegram.org
	WebhookSecret string // X-Telegram-Bot-Api-Secret-Token check, optional
}

// SheetDBConfig points at the spreadsheet-style cloud store
// (Airtable-compatible REST API).
type SheetDBConfig struct {
	APIURL string
	APIKey string
	BaseID string
}

type StoreConfig struct {
	// Backend selects the catalogue store: "sheet" or "postgres"
	Backend string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
	// AdminAPIKey gates the token-issue endpoint of the back-office API.
	// Empty disables token issuance entirely.
	AdminAPIKey string
}

// BotConfig carries runtime knobs for the command pipeline.
type BotConfig struct {
	AllowedChatIDs     []int64
	IdempotencyTTLSecs int     // duplicate-submission suppression window
	LargeQtyThreshold  float64 // soft warning above this quantity
	CatalogCacheTTL    int     // seconds, catalogue snapshot TTL
	PendingMaxAgeHours int     // pending-batch sweep cutoff
}

type JobConfig struct {
	ExportLimit int // max rows per export sheet
}

// Load reads config from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Sitestock Bot"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Telegram: TelegramConfig{
			BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
			APIURL:        getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
			WebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
		},
		SheetDB: SheetDBConfig{
			APIURL: getEnv("SHEETDB_API_URL", "https://api.airtable.com/v0"),
			APIKey: getEnv("SHEETDB_API_KEY", ""),
			BaseID: getEnv("SHEETDB_BASE_ID", ""),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", "sheet"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "sitestock"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "sitestock-reports"),
			UseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpiryHours: getEnvInt("JWT_EXPIRY_HOURS", 24),
			AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
		},
		Bot: BotConfig{
			AllowedChatIDs:     getEnvInt64List("ALLOWED_CHAT_IDS"),
			IdempotencyTTLSecs: getEnvInt("IDEMPOTENCY_TTL_SECONDS", 300),
			LargeQtyThreshold:  getEnvFloat("LARGE_QTY_THRESHOLD", 10000),
			CatalogCacheTTL:    getEnvInt("CATALOG_CACHE_TTL_SECONDS", 300),
			PendingMaxAgeHours: getEnvInt("PENDING_MAX_AGE_HOURS", 48),
		},
		Jobs: JobConfig{
			ExportLimit: getEnvInt("EXPORT_ROW_LIMIT", 5000),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Store,
		validation.Field(&c.Store.Backend, validation.Required, validation.In("sheet", "postgres")),
	); err != nil {
		return err
	}

	if err := validation.ValidateStruct(&c.Bot,
		validation.Field(&c.Bot.IdempotencyTTLSecs, validation.Min(0)),
		validation.Field(&c.Bot.CatalogCacheTTL, validation.Min(1)),
	); err != nil {
		return err
	}

	if c.App.Environment == "production" {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN must be set in production")
		}
		if c.JWT.Secret == "change-me-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Store.Backend == "sheet" && c.SheetDB.APIKey == "" {
			return fmt.Errorf("SHEETDB_API_KEY must be set in production")
		}
		if c.Store.Backend == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt64List(key string) []int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
