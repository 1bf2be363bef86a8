package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	ServerPort  string
	Environment string
	JWTExpiry   time.Duration

	// Confirmation mail dispatch: "file" (local outbox) or "redis" (channel)
	MailBackend string
	OutboxPath  string
	MailChannel string

	// Rate limiting (auth endpoints)
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	RateLimitBlockTime   time.Duration

	Limits Validation
}

// Validation carries the field limits and role literals shared by the
// services. Passed explicitly instead of living as package globals.
type Validation struct {
	UsernameMaxLength int
	EmailMaxLength    int
	NameMaxLength     int
	SlugMaxLength     int
	BioMaxLength      int
	ScoreMin          int
	ScoreMax          int
	DefaultPageSize   int
	MaxPageSize       int
}

func DefaultValidation() Validation {
	return Validation{
		UsernameMaxLength: 150,
		EmailMaxLength:    254,
		NameMaxLength:     256,
		SlugMaxLength:     50,
		BioMaxLength:      2000,
		ScoreMin:          1,
		ScoreMax:          10,
		DefaultPageSize:   10,
		MaxPageSize:       100,
	}
}

func Load() *Config {
	// Try to load .env file, but don't fail if it doesn't exist
	// (containers use environment variables directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded")
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		ServerPort:  getEnv("SERVER_PORT", ":8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Access tokens live for three days
		JWTExpiry: getEnvAsDuration("JWT_EXPIRY", "72h"),

		MailBackend: getEnv("MAIL_BACKEND", "file"),
		OutboxPath:  getEnv("OUTBOX_PATH", "data/mail_outbox.log"),
		MailChannel: getEnv("MAIL_CHANNEL", "mail:confirmation"),

		RateLimitMaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),
		RateLimitBlockTime:   getEnvAsDuration("RATE_LIMIT_BLOCK_TIME", "5m"),

		Limits: DefaultValidation(),
	}

	return cfg
}

// getEnv retrieves environment variable with default value
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvAsInt retrieves environment variable as int with default value
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %d", key, defaultVal)
		return defaultVal
	}
	return val
}

// getEnvAsDuration retrieves environment variable as duration with default value
func getEnvAsDuration(key string, defaultVal string) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		valStr = defaultVal
	}
	duration, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %s", key, defaultVal)
		duration, _ = time.ParseDuration(defaultVal)
	}
	return duration
}
