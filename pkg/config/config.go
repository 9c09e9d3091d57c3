package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverFirestore = "firestore"
	StoreDriverMemory    = "memory"
)

type Config struct {
	ServerPort         string
	Environment        string
	LogLevel           string
	FirebaseProject    string
	// Service account credentials; JSON wins over a file path. With neither,
	// Application Default Credentials are used.
	ServiceAccountJSON string
	ServiceAccountPath string
	StorageBucket      string
	StoreDriver        string
	RedisURL           string
	// JSON file of resort boundary rings. Empty disables the pin geofence.
	BoundariesPath     string

	TxMaxAttempts    int
	TxRetryBackoff   time.Duration
	SweepInterval    time.Duration
	SweepBatchLimit  int
	CORSAllowOrigins string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StorageBucket:      getEnv("STORAGE_BUCKET", ""),
		StoreDriver:        getEnv("STORE_DRIVER", StoreDriverFirestore),
		RedisURL:           getEnv("REDIS_URL", ""),
		BoundariesPath:     getEnv("RESORT_BOUNDARIES_PATH", ""),
		TxMaxAttempts:      int(getEnvAsInt64("TX_MAX_ATTEMPTS", 5)),
		TxRetryBackoff:     time.Duration(getEnvAsInt64("TX_RETRY_BACKOFF_MS", 25)) * time.Millisecond,
		SweepInterval:      time.Duration(getEnvAsInt64("SWEEP_INTERVAL_SECONDS", 600)) * time.Second,
		SweepBatchLimit:    int(getEnvAsInt64("SWEEP_BATCH_LIMIT", 100)),
		CORSAllowOrigins:   getEnv("CORS_ORIGINS", "*"),
	}

	if config.TxMaxAttempts < 1 {
		config.TxMaxAttempts = 1
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
