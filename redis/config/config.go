// Package config provides Redis configuration management for the connector.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// RedisConfig holds Redis connection and worker parameters. The same
// instance backs both the credential store and the task queue.
type RedisConfig struct {
	Host            string
	Port            int
	Password        string
	DB              int
	Workers         int
	RetryInterval   time.Duration
	MaxRetries      int
	QueuePriorities map[string]int
}

const (
	defaultHost          = "localhost"
	defaultPort          = 6379
	defaultDB            = 0
	defaultWorkers       = 10
	defaultRetryInterval = 5 * time.Second
	defaultMaxRetries    = 3
	minPort              = 1
	maxPort              = 65535
	minDB                = 0
	maxDB                = 15
	minWorkers           = 1
	maxWorkers           = 100
)

// DefaultQueuePriorities defines the default priority settings for task queues
var DefaultQueuePriorities = map[string]int{
	"critical": 6,
	"default":  3,
	"low":      1,
}

// NewRedisConfig creates a new Redis configuration from environment
// variables. REDIS_URL takes precedence over the discrete REDIS_* variables.
func NewRedisConfig() (*RedisConfig, error) {
	cfg := &RedisConfig{
		Host:            getEnvOrDefault("REDIS_HOST", defaultHost),
		Password:        os.Getenv("REDIS_PASSWORD"),
		QueuePriorities: make(map[string]int),
	}

	for queue, priority := range DefaultQueuePriorities {
		cfg.QueuePriorities[queue] = priority
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		if err := cfg.applyURL(redisURL); err != nil {
			return nil, err
		}

		return cfg.applyWorkerSettings()
	}

	if port, err := validateRange("port", getEnvOrDefault("REDIS_PORT", strconv.Itoa(defaultPort)), minPort, maxPort); err != nil {
		return nil, err
	} else {
		cfg.Port = port
	}

	if db, err := validateRange("DB", getEnvOrDefault("REDIS_DB", strconv.Itoa(defaultDB)), minDB, maxDB); err != nil {
		return nil, err
	} else {
		cfg.DB = db
	}

	return cfg.applyWorkerSettings()
}

func (c *RedisConfig) applyURL(redisURL string) error {
	parsedURL, err := url.Parse(redisURL)
	if err != nil {
		return fmt.Errorf("invalid Redis URL: %w", err)
	}

	if host := parsedURL.Hostname(); host != "" {
		c.Host = host
	}

	if port := parsedURL.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid port in Redis URL: %w", err)
		}
		c.Port = p
	} else {
		c.Port = defaultPort
	}

	if password, ok := parsedURL.User.Password(); ok {
		c.Password = password
	}

	if path := strings.TrimPrefix(parsedURL.Path, "/"); path != "" {
		db, err := strconv.Atoi(path)
		if err != nil {
			return fmt.Errorf("invalid database number in Redis URL: %w", err)
		}
		c.DB = db
	}

	return nil
}

func (c *RedisConfig) applyWorkerSettings() (*RedisConfig, error) {
	workers, err := validateRange("workers", getEnvOrDefault("REDIS_WORKERS", strconv.Itoa(defaultWorkers)), minWorkers, maxWorkers)
	if err != nil {
		return nil, err
	}
	c.Workers = workers

	interval, err := time.ParseDuration(getEnvOrDefault("REDIS_RETRY_INTERVAL", defaultRetryInterval.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid retry interval: %w", err)
	}
	c.RetryInterval = interval

	retries, err := strconv.Atoi(getEnvOrDefault("REDIS_MAX_RETRIES", strconv.Itoa(defaultMaxRetries)))
	if err != nil {
		return nil, fmt.Errorf("invalid max retries: %w", err)
	}
	c.MaxRetries = retries

	return c, nil
}

// GetRedisAddr returns the formatted Redis address
func (c *RedisConfig) GetRedisAddr() string {
	host := c.Host
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return fmt.Sprintf("%s:%d", host, c.Port)
}

func validateRange(name, value string, min, max int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", name, err)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s must be between %d and %d", name, min, max)
	}
	return v, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
