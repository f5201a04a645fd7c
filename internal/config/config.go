package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"billpay/internal/log"
)

type Config struct {
	// Logging
	LogLevel  string
	LogFormat string

	// Journal
	JournalEnabled bool
	JournalDSN     string

	// AMQP event notifier, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	EventBuffer     int
	ShutdownTimeout time.Duration
}

func Load() *Config {
	cfg := &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		JournalEnabled: getEnvBool("JOURNAL_ENABLED", true),
		JournalDSN:     getEnv("JOURNAL_DSN", ":memory:"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "billpay"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		EventBuffer:     getEnvInt("EVENT_BUFFER", 64),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}

	return cfg
}

// NotifierEnabled reports whether ledger events are published over AMQP.
func (c *Config) NotifierEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	validFormats := []string{"text", "json"}
	if !slices.Contains(validFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	if c.JournalEnabled && strings.TrimSpace(c.JournalDSN) == "" {
		errors = append(errors, "journal DSN cannot be empty when the journal is enabled")
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.EventBuffer < 1 {
		errors = append(errors, fmt.Sprintf("invalid event buffer %d: must be at least 1", c.EventBuffer))
	} else if c.EventBuffer > 10000 {
		errors = append(errors, fmt.Sprintf("invalid event buffer %d: must be at most 10000", c.EventBuffer))
	}

	if c.ShutdownTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must not be negative", c.ShutdownTimeout))
	} else if c.ShutdownTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at most 1 minute", c.ShutdownTimeout))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
