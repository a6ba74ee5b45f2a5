// Package config loads the viewer configuration from environment variables
// and validates it before anything is started.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Session store backends
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config represents the application configuration
type Config struct {
	Environment string
	Port        string
	Host        string
	Picker      PickerConfig
	Session     SessionConfig
	Redis       RedisConfig
	Logging     *LoggingConfig
	Server      *ServerConfig
}

// PickerConfig describes how to reach the remote picker service
type PickerConfig struct {
	// BaseURL is used by the viewer process for API calls
	BaseURL string
	// PublicURL is the base browsers use to load images; defaults to BaseURL
	PublicURL string
	// Timeout bounds each call, 0 disables it
	Timeout time.Duration
}

// SessionConfig holds viewer session settings
type SessionConfig struct {
	Store       string
	TTL         time.Duration
	IdleTimeout time.Duration
}

// RedisConfig holds the Redis/Valkey connection used by the redis session store
type RedisConfig struct {
	Address      string
	Password     string
	Database     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MaxRetries   int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	// File receives the logs of the terminal viewer, empty discards them
	File string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load creates a new configuration from environment variables with validation
func Load() (*Config, error) {
	baseURL := strings.TrimRight(getEnv("PICKER_BASE_URL", "http://localhost:8000"), "/")

	config := &Config{
		Environment: getEnv("GO_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		Host:        getEnv("HOST", "localhost"),
		Picker: PickerConfig{
			BaseURL:   baseURL,
			PublicURL: strings.TrimRight(getEnv("PICKER_PUBLIC_URL", baseURL), "/"),
			Timeout:   getEnvDuration("PICKER_TIMEOUT", 0),
		},
		Session: SessionConfig{
			Store:       strings.ToLower(getEnv("SESSION_STORE", StoreMemory)),
			TTL:         getEnvDuration("SESSION_TTL", 24*time.Hour),
			IdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		},
		Redis: RedisConfig{
			Address:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			Database:     getEnvInt("REDIS_DB", 0),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MaxRetries:   getEnvInt("REDIS_MAX_RETRIES", 3),
		},
		Logging: &LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Server: &ServerConfig{
			ReadTimeout:  getEnvDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_TIMEOUT", 30*time.Second),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Addr is the listen address of the HTTP viewer
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration returns -1 for unparsable values so validation reports them
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return -1
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}

// MustLoad loads configuration and panics on error
func MustLoad() *Config {
	config, err := Load()
	if err != nil {
		panic(err)
	}
	return config
}
