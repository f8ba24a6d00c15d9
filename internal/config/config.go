package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Table Settings
	TickRateHz             int
	SnapshotEveryTicks     int
	TableIdleSeconds       int
	IdleWorkerPollInterval int
	MaxTables              int

	// Security
	JWTSecret        string
	TokenExpiryHours int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database (set DATABASE_URL="" to keep round history in memory)
		DatabaseURL:    getOptionalEnv("DATABASE_URL", "postgres://localhost:5432/virtuallego?sslmode=disable"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		// Redis (set REDIS_URL="" to run without snapshots or the event channel)
		RedisURL: getOptionalEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Table Settings
		TickRateHz:             getEnvInt("TICK_RATE_HZ", 60),
		SnapshotEveryTicks:     getEnvInt("SNAPSHOT_EVERY_TICKS", 30),
		TableIdleSeconds:       getEnvInt("TABLE_IDLE_SECONDS", 600),
		IdleWorkerPollInterval: getEnvInt("IDLE_WORKER_POLL_SECONDS", 15),
		MaxTables:              getEnvInt("MAX_TABLES", 200),

		// Security
		JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production"),
		TokenExpiryHours: getEnvInt("TOKEN_EXPIRY_HOURS", 12),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getOptionalEnv is getEnv for collaborators that can be switched off: a variable that is
// set but empty wins over the default.
func getOptionalEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
