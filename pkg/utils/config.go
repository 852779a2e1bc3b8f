package utils

import (
	"log"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config is a thread-safe snapshot of configuration values with typed getters
type Config struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewConfig creates a new Config holding a copy of values
func NewConfig(values map[string]string) *Config {
	config := &Config{
		values: make(map[string]string),
	}

	maps.Copy(config.values, values)

	return config
}

// NewConfigFromEnv loads the given .env files into the environment and snapshots it
func NewConfigFromEnv(files ...string) *Config {
	return NewConfig(LoadEnv(files...))
}

// Get retrieves a configuration value by key
// Returns empty string if key doesn't exist
func (c *Config) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[key]
}

// GetWithDefault retrieves a configuration value by key with a fallback default
func (c *Config) GetWithDefault(key, defaultValue string) string {
	if value := c.Get(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBool retrieves a configuration value as a boolean
// Returns false if key doesn't exist or cannot be parsed as boolean
func (c *Config) GetBool(key string) bool {
	value := strings.ToLower(strings.TrimSpace(c.Get(key)))

	switch value {
	case "yes", "on", "enabled":
		return true
	case "no", "off", "disabled":
		return false
	}

	parsed, err := strconv.ParseBool(value)
	return err == nil && parsed
}

// GetIntWithDefault retrieves a configuration value as an integer with a fallback default.
// Unparseable values fall back too
func (c *Config) GetIntWithDefault(key string, defaultValue int) int {
	value := c.Get(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Printf("[UTILS]: Warning, %s is not an integer (%q), using %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// GetDurationWithDefault retrieves a configuration value as a duration ("10s", "4h") with a
// fallback default. Unparseable values fall back too
func (c *Config) GetDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := c.Get(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		log.Printf("[UTILS]: Warning, %s is not a duration (%q), using %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// GetList retrieves a comma-separated configuration value, trimming entries and skipping
// empty ones
func (c *Config) GetList(key string) []string {
	var list []string
	for _, entry := range strings.Split(c.Get(key), ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			list = append(list, entry)
		}
	}
	return list
}

// Set modifies a configuration value
func (c *Config) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}
