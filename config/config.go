/*
Package config loads server configuration.

SOURCES (later wins):
  1. Defaults()
  2. .env in the working directory (optional, godotenv)
  3. YAML file given to Load (optional)
  4. AGENCY_* environment variables
  5. Command-line flags, applied by cmd/server

EXAMPLE (agency.yaml):
  server:
    port: 8080
    allowed_origins: ["http://localhost:5173"]
  ledger:
    backend: sqlite
    dsn: ./data/agency.db
  log:
    environment: production
    level: info
  audit:
    enabled: true
    schedule: "@every 1h"
  scenario: sample-agency
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/warp/agency-ledger/logging"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	Server   ServerConfig `yaml:"server"`
	Ledger   LedgerConfig `yaml:"ledger"`
	Log      LogConfig    `yaml:"log"`
	Audit    AuditConfig  `yaml:"audit"`
	Scenario string       `yaml:"scenario"` // fixture loaded at startup, empty for none
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LedgerConfig selects where wallet transactions are kept.
type LedgerConfig struct {
	Backend string `yaml:"backend"` // "memory" or "sqlite"
	DSN     string `yaml:"dsn"`     // sqlite only
}

type LogConfig struct {
	Environment string `yaml:"environment"`
	Level       string `yaml:"level"`
}

// AuditConfig drives the periodic ledger replay check.
type AuditConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron spec or descriptor, e.g. "@every 1h"
}

func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Ledger: LedgerConfig{Backend: BackendMemory, DSN: ":memory:"},
		Log:    LogConfig{Environment: string(logging.EnvironmentDevelopment)},
		Audit:  AuditConfig{Enabled: true, Schedule: "@every 1h"},
	}
}

// Load builds the configuration. An empty path skips the YAML file; a
// missing .env is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.overrideWithEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) overrideWithEnv() error {
	if val := os.Getenv("AGENCY_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("AGENCY_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if val := os.Getenv("AGENCY_LEDGER_BACKEND"); val != "" {
		c.Ledger.Backend = val
	}
	if val := os.Getenv("AGENCY_LEDGER_DSN"); val != "" {
		c.Ledger.DSN = val
	}
	if val := os.Getenv("AGENCY_ENV"); val != "" {
		c.Log.Environment = val
	}
	if val := os.Getenv("AGENCY_LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("AGENCY_AUDIT_ENABLED"); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("AGENCY_AUDIT_ENABLED: %w", err)
		}
		c.Audit.Enabled = enabled
	}
	if val := os.Getenv("AGENCY_AUDIT_SCHEDULE"); val != "" {
		c.Audit.Schedule = val
	}
	if val := os.Getenv("AGENCY_SCENARIO"); val != "" {
		c.Scenario = val
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Ledger.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.Ledger.DSN) == "" {
			return fmt.Errorf("ledger.dsn is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown ledger.backend %q", c.Ledger.Backend)
	}
	if err := c.Logging().Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if c.Audit.Enabled {
		if _, err := cron.ParseStandard(c.Audit.Schedule); err != nil {
			return fmt.Errorf("audit.schedule: %w", err)
		}
	}
	return nil
}

// Logging returns the logger settings.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Environment: logging.Environment(c.Log.Environment),
		Level:       c.Log.Level,
	}
}
