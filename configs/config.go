package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PresignTTL time.Duration
}

type Facebook struct {
	GraphURL  string
	Timeout   time.Duration
	RateLimit int
}

type Sweep struct {
	Schedule      string
	Timeout       time.Duration
	Concurrency   int
	ClaimTimeout  time.Duration
	StaleSchedule string
}

type Config struct {
	AppEnv       string
	Port         string
	StoreDriver  string
	PostgresURI  string
	MongoURI     string
	DatabaseName string
	RedisURI     string
	FrontendURL  string
	SecretKey    string
	CookieName   string
	CronSecret   string
	SentryDSN    string
	R2           R2
	Facebook     Facebook
	Sweep        Sweep
}

func LoadConfig() *Config {
	return &Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		Port:         getEnv("PORT", "3000"),
		StoreDriver:  getEnv("STORE_DRIVER", StoreDriverPostgres),
		PostgresURI:  getEnv("POSTGRES_URI", ""),
		MongoURI:     getEnv("MONGODB_URI", ""),
		DatabaseName: getEnv("DATABASE_NAME", "postflow"),
		RedisURI:     getEnv("REDIS_URI", ""),
		FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),
		SecretKey:    getEnv("SECRET_KEY", ""),
		CookieName:   getEnv("COOKIE_NAME", "postflow_session"),
		CronSecret:   getEnv("CRON_SECRET", ""),
		SentryDSN:    getEnv("SENTRY_DSN", ""),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PresignTTL: getEnvDuration("R2_PRESIGN_TTL", 15*time.Minute),
		},
		Facebook: Facebook{
			GraphURL:  getEnv("FACEBOOK_GRAPH_URL", "https://graph.facebook.com/v18.0"),
			Timeout:   getEnvDuration("FACEBOOK_TIMEOUT", 20*time.Second),
			RateLimit: getEnvInt("FACEBOOK_RATE_LIMIT", 10),
		},
		Sweep: Sweep{
			Schedule:      getEnv("SWEEP_SCHEDULE", "@every 1m"),
			Timeout:       getEnvDuration("SWEEP_TIMEOUT", 50*time.Second),
			Concurrency:   getEnvInt("SWEEP_CONCURRENCY", 1),
			ClaimTimeout:  getEnvDuration("CLAIM_TIMEOUT", 10*time.Minute),
			StaleSchedule: getEnv("STALE_CLAIM_SCHEDULE", "@every 5m"),
		},
	}
}

// Validate reports configuration that would prevent the service from starting.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.PostgresURI == "" {
			return errors.New("POSTGRES_URI is required when STORE_DRIVER=postgres")
		}
	case StoreDriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required when STORE_DRIVER=mongo")
		}
	default:
		return errors.New("STORE_DRIVER must be one of postgres, mongo")
	}

	// AES-256 key for stored access tokens
	if len(c.SecretKey) != 32 {
		return errors.New("SECRET_KEY must be exactly 32 bytes")
	}
	if c.Sweep.Concurrency < 1 {
		return errors.New("SWEEP_CONCURRENCY must be at least 1")
	}
	return nil
}

// R2Enabled reports whether object storage credentials are present.
func (c *Config) R2Enabled() bool {
	return c.R2.AccountID != "" && c.R2.AccessKey != "" && c.R2.SecretKey != "" && c.R2.BucketName != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
