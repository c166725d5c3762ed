// ABOUTME: Tests for environment-driven configuration
// ABOUTME: Verifies defaults, overrides, validation, and DSN building

package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.RecentWindow != 40 {
		t.Errorf("RecentWindow = %d, want 40", cfg.RecentWindow)
	}
	if cfg.MaxHealAttempts != 3 {
		t.Errorf("MaxHealAttempts = %d, want 3", cfg.MaxHealAttempts)
	}
	if cfg.RefinerEnabled {
		t.Error("RefinerEnabled should default to false")
	}
	if cfg.OracleTimeout != 60*time.Second {
		t.Errorf("OracleTimeout = %v, want 60s", cfg.OracleTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SQLPILOT_RECENT_WINDOW", "10")
	t.Setenv("SQLPILOT_MAX_HEAL_ATTEMPTS", "5")
	t.Setenv("SQLPILOT_REFINER_ENABLED", "true")
	t.Setenv("SQLPILOT_ORACLE_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.RecentWindow != 10 {
		t.Errorf("RecentWindow = %d, want 10", cfg.RecentWindow)
	}
	if cfg.MaxHealAttempts != 5 {
		t.Errorf("MaxHealAttempts = %d, want 5", cfg.MaxHealAttempts)
	}
	if !cfg.RefinerEnabled {
		t.Error("RefinerEnabled should be true")
	}
	if cfg.OracleTimeout != 5*time.Second {
		t.Errorf("OracleTimeout = %v, want 5s", cfg.OracleTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"window too small", func(c *Config) { c.RecentWindow = 0 }},
		{"heal attempts negative", func(c *Config) { c.MaxHealAttempts = -1 }},
		{"heal attempts too large", func(c *Config) { c.MaxHealAttempts = 11 }},
		{"temperature out of range", func(c *Config) { c.Temperature = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error, got nil")
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	t.Setenv("SQLPILOT_MYSQL_HOST", "db.internal")
	t.Setenv("SQLPILOT_MYSQL_USER", "svc")
	t.Setenv("SQLPILOT_MYSQL_PASSWORD", "hunter2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	dsn := cfg.MySQLDSN()
	if !strings.HasPrefix(dsn, "svc:hunter2@tcp(db.internal:3306)/") {
		t.Errorf("MySQLDSN() = %q, unexpected prefix", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("MySQLDSN() = %q, want parseTime=true", dsn)
	}
}
