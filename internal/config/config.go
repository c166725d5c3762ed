// ABOUTME: Centralized configuration for sqlpilot
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the agent and its collaborators.
type Config struct {
	// MySQL settings (the managed relational engine)
	MySQLHost     string
	MySQLPort     int
	MySQLUser     string
	MySQLPassword string
	EngineTimeout time.Duration

	// Durable store settings
	StorePath string

	// OpenAI settings (the text-generation oracle)
	OpenAIKey     string
	ChatModel     string
	Temperature   float32
	OracleTimeout time.Duration
	MaxRetries    int
	RetryDelay    time.Duration

	// Orchestration settings
	RecentWindow    int
	MaxHealAttempts int
	RefinerEnabled  bool

	LogLevel string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		MySQLHost:     getEnv("SQLPILOT_MYSQL_HOST", "127.0.0.1"),
		MySQLPort:     getEnvInt("SQLPILOT_MYSQL_PORT", 3306),
		MySQLUser:     getEnv("SQLPILOT_MYSQL_USER", "root"),
		MySQLPassword: os.Getenv("SQLPILOT_MYSQL_PASSWORD"),
		EngineTimeout: getEnvDuration("SQLPILOT_ENGINE_TIMEOUT", 15*time.Second),

		StorePath: os.Getenv("SQLPILOT_STORE_PATH"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		ChatModel:     getEnv("SQLPILOT_OPENAI_MODEL", "gpt-4o-mini"),
		Temperature:   float32(getEnvFloat("SQLPILOT_TEMPERATURE", 0.1)),
		OracleTimeout: getEnvDuration("SQLPILOT_ORACLE_TIMEOUT", 60*time.Second),
		MaxRetries:    getEnvInt("SQLPILOT_ORACLE_MAX_RETRIES", 2),
		RetryDelay:    getEnvDuration("SQLPILOT_ORACLE_RETRY_DELAY", 2*time.Second),

		RecentWindow:    getEnvInt("SQLPILOT_RECENT_WINDOW", 40),
		MaxHealAttempts: getEnvInt("SQLPILOT_MAX_HEAL_ATTEMPTS", 3),
		RefinerEnabled:  getEnvBool("SQLPILOT_REFINER_ENABLED", false),

		LogLevel: getEnv("SQLPILOT_LOG_LEVEL", "info"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.RecentWindow < 1 {
		return fmt.Errorf("SQLPILOT_RECENT_WINDOW must be >= 1, got %d", c.RecentWindow)
	}
	if c.MaxHealAttempts < 0 || c.MaxHealAttempts > 10 {
		return fmt.Errorf("SQLPILOT_MAX_HEAL_ATTEMPTS must be 0-10, got %d", c.MaxHealAttempts)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("SQLPILOT_ORACLE_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("SQLPILOT_TEMPERATURE must be 0-2, got %f", c.Temperature)
	}
	return nil
}

// MySQLDSN builds a go-sql-driver DSN without a default database; the
// active database is selected per session via USE.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/?parseTime=true&timeout=%s",
		c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLPort, c.EngineTimeout)
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
