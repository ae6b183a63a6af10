package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
)

type DispatcherConfig struct {
	ServerAddr     string
	RequestTimeout time.Duration
	DatabasePath   string
	EndpointsFile  string
	SyncInterval   time.Duration

	AdminUsername  string
	AdminPassword  string
	ReaderUsername string
	ReaderPassword string

	RateLimitMax    int
	RateLimitWindow time.Duration

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	// Startup retry configuration
	StartupMaxRetries     int
	StartupInitialBackoff time.Duration
}

// RedisEnabled reports whether change notifications go through Redis.
func (c *DispatcherConfig) RedisEnabled() bool {
	return c.RedisHost != ""
}

func (c *DispatcherConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// LoadDispatcherConfig reads dispatcher config from environment or returns defaults.
// A value that is set but not a valid number fails with *failure.ConfigurationError.
func LoadDispatcherConfig() (*DispatcherConfig, error) {
	timeoutMs, err := intOrDefault("REQUEST_TIMEOUT_MS", 10000)
	if err != nil {
		return nil, err
	}
	if timeoutMs <= 0 {
		return nil, failure.NewConfigurationError("request timeout must be positive", "REQUEST_TIMEOUT_MS")
	}

	syncSec, err := intOrDefault("SYNC_INTERVAL", 30)
	if err != nil {
		return nil, err
	}
	if syncSec <= 0 {
		return nil, failure.NewConfigurationError("sync interval must be positive", "SYNC_INTERVAL")
	}

	rateMax, err := intOrDefault("RATE_LIMIT_MAX", 60)
	if err != nil {
		return nil, err
	}

	rateWindow, err := intOrDefault("RATE_LIMIT_WINDOW", 60)
	if err != nil {
		return nil, err
	}

	redisPort, err := intOrDefault("REDIS_PORT", 6379)
	if err != nil {
		return nil, err
	}

	redisDB, err := intOrDefault("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	maxRetries, err := intOrDefault("STARTUP_MAX_RETRIES", 5)
	if err != nil {
		return nil, err
	}

	backoffMs, err := intOrDefault("STARTUP_INITIAL_BACKOFF_MS", 1000)
	if err != nil {
		return nil, err
	}

	return &DispatcherConfig{
		ServerAddr:            envOrDefault("SERVER_ADDR", ":8080"),
		RequestTimeout:        time.Duration(timeoutMs) * time.Millisecond,
		DatabasePath:          envOrDefault("DATABASE_PATH", "./data/endpoints.db"),
		EndpointsFile:         os.Getenv("ENDPOINTS_FILE"),
		SyncInterval:          time.Duration(syncSec) * time.Second,
		AdminUsername:         envOrDefault("ADMIN_USER", "admin"),
		AdminPassword:         envOrDefault("ADMIN_PASSWORD", "password"),
		ReaderUsername:        envOrDefault("READER_USER", "reader"),
		ReaderPassword:        envOrDefault("READER_PASSWORD", "readerpass"),
		RateLimitMax:          rateMax,
		RateLimitWindow:       time.Duration(rateWindow) * time.Second,
		RedisHost:             os.Getenv("REDIS_HOST"),
		RedisPort:             redisPort,
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		RedisChannel:          envOrDefault("REDIS_CHANNEL", "endpoints.changed"),
		StartupMaxRetries:     maxRetries,
		StartupInitialBackoff: time.Duration(backoffMs) * time.Millisecond,
	}, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOrDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, failure.NewConfigurationError(fmt.Sprintf("invalid integer %q", v), key)
	}
	return i, nil
}
