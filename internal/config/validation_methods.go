package config

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}

	return fmt.Sprintf("configuration validation failed: %s", strings.Join(messages, "; "))
}

// Has checks if ValidationErrors contains any errors
func (ve ValidationErrors) Has() bool {
	return len(ve) > 0
}

// Fields returns the names of the invalid fields
func (ve ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(ve))
	for _, err := range ve {
		fields = append(fields, err.Field)
	}
	return fields
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	var validationErrors ValidationErrors

	validationErrors = append(validationErrors, c.validateServer()...)
	validationErrors = append(validationErrors, c.validatePicker()...)
	validationErrors = append(validationErrors, c.validateSession()...)

	if c.Logging != nil {
		validationErrors = append(validationErrors, c.validateLogging()...)
	}

	if c.Server != nil {
		validationErrors = append(validationErrors, c.validateServerTimeouts()...)
	}

	if validationErrors.Has() {
		return validationErrors
	}

	return nil
}

func (c *Config) validateServer() ValidationErrors {
	var errors ValidationErrors

	if c.Port == "" {
		errors = append(errors, ValidationError{
			Field:   "port",
			Value:   c.Port,
			Message: "port cannot be empty",
		})
	} else {
		if port, err := strconv.Atoi(c.Port); err != nil {
			errors = append(errors, ValidationError{
				Field:   "port",
				Value:   c.Port,
				Message: "port must be a valid integer",
			})
		} else if port < 1 || port > 65535 {
			errors = append(errors, ValidationError{
				Field:   "port",
				Value:   c.Port,
				Message: "port must be between 1 and 65535",
			})
		}
	}

	if c.Environment != "" {
		validEnvs := []string{"development", "production", "test", "staging"}
		if !slices.Contains(validEnvs, c.Environment) {
			errors = append(errors, ValidationError{
				Field:   "environment",
				Value:   c.Environment,
				Message: "environment must be one of: development, production, test, staging",
			})
		}
	}

	return errors
}

func (c *Config) validatePicker() ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, validateServiceURL("picker.base_url", c.Picker.BaseURL)...)
	if c.Picker.PublicURL != "" {
		errors = append(errors, validateServiceURL("picker.public_url", c.Picker.PublicURL)...)
	}

	if c.Picker.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "picker.timeout",
			Value:   c.Picker.Timeout,
			Message: "picker timeout must be a duration, 0 disables it",
		})
	}

	return errors
}

func validateServiceURL(field, raw string) ValidationErrors {
	var errors ValidationErrors

	if raw == "" {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   raw,
			Message: "URL cannot be empty",
		})
		return errors
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   raw,
			Message: "must be a valid URL",
		})
		return errors
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   parsedURL.Scheme,
			Message: "URL must use http or https scheme",
		})
	}

	if parsedURL.Host == "" {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   raw,
			Message: "URL must include host",
		})
	}

	return errors
}

func (c *Config) validateSession() ValidationErrors {
	var errors ValidationErrors

	switch c.Session.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Address == "" {
			errors = append(errors, ValidationError{
				Field:   "redis.address",
				Value:   c.Redis.Address,
				Message: "redis address is required when the redis session store is selected",
			})
		}
		if c.Redis.Database < 0 || c.Redis.Database > 15 {
			errors = append(errors, ValidationError{
				Field:   "redis.database",
				Value:   c.Redis.Database,
				Message: "redis database must be between 0 and 15",
			})
		}
		if c.Redis.PoolSize < 1 {
			errors = append(errors, ValidationError{
				Field:   "redis.pool_size",
				Value:   c.Redis.PoolSize,
				Message: "redis pool size must be at least 1",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "session.store",
			Value:   c.Session.Store,
			Message: "session store must be one of: memory, redis",
		})
	}

	if c.Session.TTL <= 0 {
		errors = append(errors, ValidationError{
			Field:   "session.ttl",
			Value:   c.Session.TTL,
			Message: "session TTL must be greater than 0",
		})
	}

	if c.Session.IdleTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "session.idle_timeout",
			Value:   c.Session.IdleTimeout,
			Message: "session idle timeout must be a duration, 0 keeps sessions forever",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.ContainsFunc(validLevels, func(level string) bool {
		return strings.EqualFold(c.Logging.Level, level)
	}) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "logging level must be one of: debug, info, warn, error",
		})
	}

	validFormats := []string{"json", "console"}
	if !slices.ContainsFunc(validFormats, func(format string) bool {
		return strings.EqualFold(c.Logging.Format, format)
	}) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: "logging format must be either 'json' or 'console'",
		})
	}

	return errors
}

func (c *Config) validateServerTimeouts() ValidationErrors {
	var errors ValidationErrors

	if c.Server.ReadTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.read_timeout",
			Value:   c.Server.ReadTimeout,
			Message: "read timeout must be greater than 0",
		})
	} else if c.Server.ReadTimeout > 5*time.Minute {
		errors = append(errors, ValidationError{
			Field:   "server.read_timeout",
			Value:   c.Server.ReadTimeout,
			Message: "read timeout should not exceed 5 minutes",
		})
	}

	if c.Server.WriteTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.write_timeout",
			Value:   c.Server.WriteTimeout,
			Message: "write timeout must be greater than 0",
		})
	} else if c.Server.WriteTimeout > 5*time.Minute {
		errors = append(errors, ValidationError{
			Field:   "server.write_timeout",
			Value:   c.Server.WriteTimeout,
			Message: "write timeout should not exceed 5 minutes",
		})
	}

	if c.Server.IdleTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.idle_timeout",
			Value:   c.Server.IdleTimeout,
			Message: "idle timeout must be greater than 0",
		})
	}

	return errors
}
