package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTAccessSecret []byte
	AuthHTTPURL     string

	KafkaBrokers []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	PayPal PayPalConfig

	PublicBaseURL     string
	AdminEmails       []string
	ReportEvery       time.Duration
	WeeklyReportEvery time.Duration

	SMTP SMTPConfig
}

type PayPalConfig struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	Currency       string
	ExecuteTimeout time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// LoadDotEnv reads path into the process environment; a missing file is not fatal.
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		log.Printf("notice: could not load %s: %v, using system environment", path, err)
	}
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: []byte(os.Getenv("JWT_SECRET")),
		AuthHTTPURL:     os.Getenv("AUTH_URL"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),
		SessionTTL:    EnvDurationDefault("SESSION_TTL", 14*24*time.Hour),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		PayPal: PayPalConfig{
			BaseURL:        EnvDefault("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
			ClientID:       os.Getenv("PAYPAL_CLIENT_ID"),
			ClientSecret:   os.Getenv("PAYPAL_CLIENT_SECRET"),
			Currency:       EnvDefault("PAYPAL_CURRENCY", "USD"),
			ExecuteTimeout: EnvDurationDefault("PAYPAL_EXECUTE_TIMEOUT", 30*time.Second),
		},

		PublicBaseURL:     EnvDefault("PUBLIC_BASE_URL", "http://localhost:8080"),
		AdminEmails:       CSV(os.Getenv("ADMIN_EMAILS")),
		ReportEvery:       EnvDurationDefault("REPORT_EVERY", 24*time.Hour),
		WeeklyReportEvery: EnvDurationDefault("WEEKLY_REPORT_EVERY", 7*24*time.Hour),

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     EnvIntDefault("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     EnvDefault("MAIL_FROM", "noreply@pay2me.local"),
		},
	}
}
