package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Gemini    GeminiConfig
	Firestore FirestoreConfig
	Qdrant    QdrantConfig
	Search    SearchConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Scheduler SchedulerConfig
	Email     EmailConfig
	Market    MarketConfig
	Auth      AuthConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type GeminiConfig struct {
	APIKey         string
	TextModel      string
	EmbedModel     string
	EmbedTransport string // sdk | rest
	RESTBaseURL    string
}

type FirestoreConfig struct {
	BaseURL         string
	ProjectID       string
	DatabaseID      string
	APIKey          string
	CredentialsFile string
}

type QdrantConfig struct {
	URL              string
	APIKey           string
	CollectionPrefix string
}

type SearchConfig struct {
	Backend      string // firestore | qdrant
	DefaultLimit int
	MaxQueryLen  int
}

type StorageConfig struct {
	MaxFileSize      int64
	MaxEmbeddingText int
}

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

type SchedulerConfig struct {
	Enabled        bool
	ReaperInterval time.Duration
	WarningWindow  time.Duration
	StaleInterval  time.Duration
	StaleAfter     time.Duration
}

type EmailConfig struct {
	Enabled   bool
	Region    string
	FromEmail string
}

type MarketConfig struct {
	BaseURL  string
	AppID    string
	AppKey   string
	Country  string
	CacheTTL time.Duration
}

type AuthConfig struct {
	IdentityBaseURL string
	APIKey          string
}

type TelemetryConfig struct {
	SentryDSN string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment and default values.")
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		Server: ServerConfig{
			Port:     v.GetString("PORT"),
			Env:      v.GetString("ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("REDIS_ADDRESS"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Gemini: GeminiConfig{
			APIKey:         v.GetString("GEMINI_API_KEY"),
			TextModel:      v.GetString("GEMINI_TEXT_MODEL"),
			EmbedModel:     v.GetString("GEMINI_EMBED_MODEL"),
			EmbedTransport: strings.ToLower(v.GetString("GEMINI_EMBED_TRANSPORT")),
			RESTBaseURL:    v.GetString("GEMINI_REST_BASE_URL"),
		},
		Firestore: FirestoreConfig{
			BaseURL:         v.GetString("FIRESTORE_BASE_URL"),
			ProjectID:       v.GetString("FIRESTORE_PROJECT_ID"),
			DatabaseID:      v.GetString("FIRESTORE_DATABASE_ID"),
			APIKey:          v.GetString("FIRESTORE_API_KEY"),
			CredentialsFile: v.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
		},
		Qdrant: QdrantConfig{
			URL:              v.GetString("QDRANT_URL"),
			APIKey:           v.GetString("QDRANT_API_KEY"),
			CollectionPrefix: v.GetString("QDRANT_COLLECTION_PREFIX"),
		},
		Search: SearchConfig{
			Backend:      strings.ToLower(v.GetString("SEARCH_BACKEND")),
			DefaultLimit: v.GetInt("SEARCH_DEFAULT_LIMIT"),
			MaxQueryLen:  v.GetInt("SEARCH_MAX_QUERY_LENGTH"),
		},
		Storage: StorageConfig{
			MaxFileSize:      v.GetInt64("MAX_FILE_SIZE"),
			MaxEmbeddingText: v.GetInt("MAX_EMBEDDING_TEXT"),
		},
		RateLimit: RateLimitConfig{
			Max:    v.GetInt("RATE_LIMIT_MAX"),
			Window: v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Scheduler: SchedulerConfig{
			Enabled:        v.GetBool("SCHEDULER_ENABLED"),
			ReaperInterval: v.GetDuration("SCHEDULER_REAPER_INTERVAL"),
			WarningWindow:  v.GetDuration("SCHEDULER_WARNING_WINDOW"),
			StaleInterval:  v.GetDuration("SCHEDULER_STALE_INTERVAL"),
			StaleAfter:     v.GetDuration("SCHEDULER_STALE_AFTER"),
		},
		Email: EmailConfig{
			Enabled:   v.GetBool("EMAIL_ENABLED"),
			Region:    v.GetString("AWS_REGION"),
			FromEmail: v.GetString("EMAIL_FROM"),
		},
		Market: MarketConfig{
			BaseURL:  v.GetString("MARKET_BASE_URL"),
			AppID:    v.GetString("MARKET_APP_ID"),
			AppKey:   v.GetString("MARKET_APP_KEY"),
			Country:  v.GetString("MARKET_COUNTRY"),
			CacheTTL: v.GetDuration("MARKET_CACHE_TTL"),
		},
		Auth: AuthConfig{
			IdentityBaseURL: v.GetString("AUTH_IDENTITY_BASE_URL"),
			APIKey:          v.GetString("AUTH_API_KEY"),
		},
		Telemetry: TelemetryConfig{
			SentryDSN: v.GetString("SENTRY_DSN"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]interface{}{
		"PORT":      "3000",
		"ENV":       "development",
		"LOG_LEVEL": "",

		"DB_HOST":     "localhost",
		"DB_PORT":     "5432",
		"DB_USER":     "postgres",
		"DB_PASSWORD": "postgres",
		"DB_NAME":     "hirematch",
		"DB_SSLMODE":  "disable",

		"REDIS_ADDRESS":  "localhost:6379",
		"REDIS_PASSWORD": "",
		"REDIS_DB":       0,

		"GEMINI_API_KEY":         "",
		"GEMINI_TEXT_MODEL":      "gemini-2.5-flash",
		"GEMINI_EMBED_MODEL":     "text-embedding-004",
		"GEMINI_EMBED_TRANSPORT": "sdk",
		"GEMINI_REST_BASE_URL":   "https://generativelanguage.googleapis.com",

		"FIRESTORE_BASE_URL":             "https://firestore.googleapis.com",
		"FIRESTORE_PROJECT_ID":           "",
		"FIRESTORE_DATABASE_ID":          "(default)",
		"FIRESTORE_API_KEY":              "",
		"GOOGLE_APPLICATION_CREDENTIALS": "",

		"QDRANT_URL":               "http://localhost:6334",
		"QDRANT_API_KEY":           "",
		"QDRANT_COLLECTION_PREFIX": "hirematch",

		"SEARCH_BACKEND":          "firestore",
		"SEARCH_DEFAULT_LIMIT":    10,
		"SEARCH_MAX_QUERY_LENGTH": 500,

		"MAX_FILE_SIZE":      10485760,
		"MAX_EMBEDDING_TEXT": 5000,

		"RATE_LIMIT_MAX":    50,
		"RATE_LIMIT_WINDOW": "15m",

		"SCHEDULER_ENABLED":         true,
		"SCHEDULER_REAPER_INTERVAL": "1h",
		"SCHEDULER_WARNING_WINDOW":  "72h",
		"SCHEDULER_STALE_INTERVAL":  "6h",
		"SCHEDULER_STALE_AFTER":     "336h",

		"EMAIL_ENABLED": false,
		"AWS_REGION":    "us-east-1",
		"EMAIL_FROM":    "no-reply@hirematch.dev",

		"MARKET_BASE_URL":  "https://api.adzuna.com/v1/api",
		"MARKET_APP_ID":    "",
		"MARKET_APP_KEY":   "",
		"MARKET_COUNTRY":   "in",
		"MARKET_CACHE_TTL": "24h",

		"AUTH_IDENTITY_BASE_URL": "https://identitytoolkit.googleapis.com",
		"AUTH_API_KEY":           "",

		"SENTRY_DSN": "",
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}
