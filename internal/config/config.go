package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	MetricsPort string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	AutoMigrate bool

	JWTSecret   string
	JWTAudience string

	RequestTimeout    time.Duration
	CORSAllowedOrigin string

	MaxMessageLength       int
	AllowSoloConversations bool
	SendRatePerSecond      float64
	SendRateBurst          int

	LogLevel  string
	LogPretty bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "relay"),
		DBPassword:  getEnv("DB_PASSWORD", "relay_dev_password"),
		DBName:      getEnv("DB_NAME", "relay"),
		AutoMigrate: getEnvAsBool("AUTO_MIGRATE", true),

		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTAudience: getEnv("JWT_AUDIENCE", "authenticated"),

		RequestTimeout:    getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),

		MaxMessageLength:       getEnvAsInt("MAX_MESSAGE_LENGTH", 2000),
		AllowSoloConversations: getEnvAsBool("ALLOW_SOLO_CONVERSATIONS", true),
		SendRatePerSecond:      getEnvAsFloat("SEND_RATE_PER_SECOND", 5),
		SendRateBurst:          getEnvAsInt("SEND_RATE_BURST", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
	}
}

// DSN returns DATABASE_URL when set, otherwise a URL built from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if val, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if val, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if val, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
