package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	DatabaseURL       string
	SlotCount         int
	OTelServiceName   string
	OTelEndpoint      string
	Environment       string
	JWTSecret         string
	JWTExpiration     time.Duration
	AdminPassword     string
	UserPassword      string
	DBConnectAttempts int
}

// Load reads configuration from the environment after merging a .env file
// from the working directory, if one exists.
func Load() *Config {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path. Variables already present
// in the environment take precedence over the file.
func LoadFrom(envFile string) *Config {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	return &Config{
		Port:              envOr("APP_PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SlotCount:         envOrInt("SLOT_COUNT", 50),
		OTelServiceName:   envOr("OTEL_SERVICE_NAME", "parking-lot-service"),
		OTelEndpoint:      envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		Environment:       envOr("APP_ENV", "development"),
		JWTSecret:         envOr("JWT_SECRET", "dev-secret-change-me"),
		JWTExpiration:     envOrDuration("JWT_EXPIRATION", 24*time.Hour),
		AdminPassword:     envOr("ADMIN_PASSWORD", "admin123"),
		UserPassword:      envOr("USER_PASSWORD", "user123"),
		DBConnectAttempts: envOrInt("DB_CONNECT_ATTEMPTS", 5),
	}
}

// UsesDatabase reports whether a PostgreSQL store is configured.
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != ""
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
