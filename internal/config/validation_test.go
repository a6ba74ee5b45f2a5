package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Environment: "development",
		Port:        "8080",
		Host:        "localhost",
		Picker: PickerConfig{
			BaseURL:   "http://localhost:8000",
			PublicURL: "http://localhost:8000",
		},
		Session: SessionConfig{
			Store: StoreMemory,
			TTL:   time.Hour,
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			PoolSize: 10,
		},
		Logging: &LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: &ServerConfig{
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(c *Config)
		expectedFields []string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name: "valid redis config",
			mutate: func(c *Config) {
				c.Session.Store = StoreRedis
			},
		},
		{
			name: "optional sections may be nil",
			mutate: func(c *Config) {
				c.Logging = nil
				c.Server = nil
			},
		},
		{
			name: "unknown environment",
			mutate: func(c *Config) {
				c.Environment = "qa"
			},
			expectedFields: []string{"environment"},
		},
		{
			name: "port not a number",
			mutate: func(c *Config) {
				c.Port = "http"
			},
			expectedFields: []string{"port"},
		},
		{
			name: "missing picker base URL",
			mutate: func(c *Config) {
				c.Picker.BaseURL = ""
			},
			expectedFields: []string{"picker.base_url"},
		},
		{
			name: "picker URL without host",
			mutate: func(c *Config) {
				c.Picker.PublicURL = "http://"
			},
			expectedFields: []string{"picker.public_url"},
		},
		{
			name: "redis store without address",
			mutate: func(c *Config) {
				c.Session.Store = StoreRedis
				c.Redis.Address = ""
				c.Redis.Database = 16
			},
			expectedFields: []string{"redis.address", "redis.database"},
		},
		{
			name: "session TTL unset",
			mutate: func(c *Config) {
				c.Session.TTL = 0
			},
			expectedFields: []string{"session.ttl"},
		},
		{
			name: "bad logging",
			mutate: func(c *Config) {
				c.Logging.Level = "trace"
				c.Logging.Format = "xml"
			},
			expectedFields: []string{"logging.level", "logging.format"},
		},
		{
			name: "bad timeouts",
			mutate: func(c *Config) {
				c.Server.ReadTimeout = 0
				c.Server.WriteTimeout = 10 * time.Minute
				c.Server.IdleTimeout = -1
			},
			expectedFields: []string{"server.read_timeout", "server.write_timeout", "server.idle_timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)

			err := config.Validate()
			if len(tt.expectedFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var ve ValidationErrors
			require.ErrorAs(t, err, &ve)
			assert.ElementsMatch(t, tt.expectedFields, ve.Fields())
		})
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "test_field",
		Value:   "test_value",
		Message: "test message",
	}

	expected := "config validation failed for test_field: test message (value: test_value)"
	assert.Equal(t, expected, err.Error())
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())

	ve := ValidationErrors{
		{Field: "port", Value: "", Message: "port cannot be empty"},
		{Field: "session.ttl", Value: 0, Message: "session TTL must be greater than 0"},
	}
	assert.Contains(t, ve.Error(), "port cannot be empty; ")
	assert.True(t, ve.Has())
}
