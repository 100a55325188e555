// ABOUTME: Environment configuration for the lifecycle gate
// ABOUTME: Loads optional .env files, then parses GATE_* variables with defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// AppName names the data directory under XDG_DATA_HOME.
const AppName = "lifecycle-gate"

// Storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
)

type Config struct {
	Backend   string `env:"GATE_BACKEND" envDefault:"sqlite"`
	DBPath    string `env:"GATE_DB_PATH"`
	RulesFile string `env:"GATE_RULES_FILE"`
	PortalID  string `env:"GATE_PORTAL_ID" envDefault:"default"`
	LogLevel  string `env:"GATE_LOG_LEVEL" envDefault:"info"`

	TrendMinViolations int           `env:"GATE_TREND_MIN_VIOLATIONS" envDefault:"5"`
	TrendWindow        time.Duration `env:"GATE_TREND_WINDOW" envDefault:"168h"`

	AlertRetentionDays       int     `env:"GATE_ALERT_RETENTION_DAYS" envDefault:"30"`
	ComplianceAlertThreshold float64 `env:"GATE_COMPLIANCE_ALERT_THRESHOLD" envDefault:"70"`
}

// Load reads envFiles (missing files are skipped) and then the process
// environment. Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendSQLite, BackendCharm:
	default:
		return fmt.Errorf("invalid GATE_BACKEND %q (valid: memory, sqlite, charm)", c.Backend)
	}
	if c.TrendMinViolations < 0 {
		return fmt.Errorf("GATE_TREND_MIN_VIOLATIONS must not be negative")
	}
	if c.TrendWindow <= 0 {
		return fmt.Errorf("GATE_TREND_WINDOW must be positive")
	}
	if c.ComplianceAlertThreshold < 0 || c.ComplianceAlertThreshold > 100 {
		return fmt.Errorf("GATE_COMPLIANCE_ALERT_THRESHOLD must be between 0 and 100")
	}
	return nil
}

// DataDir is where local state lives.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

func DefaultDBPath() string {
	return filepath.Join(DataDir(), "gate.db")
}
