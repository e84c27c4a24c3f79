// Package config handles configuration loading and validation for foreman.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alexanderramin/foreman/internal/pricing"
	"github.com/alexanderramin/foreman/internal/service"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load and DefaultPath.
const (
	EnvConfigPath = "FOREMAN_CONFIG"
	EnvDBPath     = "FOREMAN_DB"
)

// Config holds the application configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Numbering NumberingConfig `yaml:"numbering"`
	DataDir   string          `yaml:"-"` // set by caller, not from config file
}

// DatabaseConfig tunes the SQLite file. BusyRetries counts attempts per
// transaction, so 1 means no retry.
type DatabaseConfig struct {
	Path          string `yaml:"path"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
	BusyRetries   int    `yaml:"busy_retries"`
}

// LogConfig controls the zerolog logger. An empty file means <data dir>/foreman.log.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// PricingConfig holds rates as strings so YAML floats never touch money.
type PricingConfig struct {
	PartTimeWeeklyRate          string `yaml:"part_time_weekly_rate"`
	FullTimeWeeklyRate          string `yaml:"full_time_weekly_rate"`
	DefaultGeneralConditionsPct string `yaml:"default_general_conditions_pct"`
	RejectNegativeAmounts       bool   `yaml:"reject_negative_amounts"`
}

type NumberingConfig struct {
	ProposalPrefix    string `yaml:"proposal_prefix"`
	InvoicePrefix     string `yaml:"invoice_prefix"`
	ProjectPrefix     string `yaml:"project_prefix"`
	ChangeOrderPrefix string `yaml:"change_order_prefix"`
}

// DefaultConfig returns a Config with the standard rates and prefixes.
func DefaultConfig() Config {
	policy := pricing.DefaultPolicy()
	numbering := service.DefaultNumbering()
	return Config{
		Database: DatabaseConfig{BusyTimeoutMS: 5000, BusyRetries: 3},
		Log:      LogConfig{Level: "info"},
		Pricing: PricingConfig{
			PartTimeWeeklyRate:          policy.PartTimeWeeklyRate.String(),
			FullTimeWeeklyRate:          policy.FullTimeWeeklyRate.String(),
			DefaultGeneralConditionsPct: policy.DefaultGeneralConditionsPct.String(),
		},
		Numbering: NumberingConfig{
			ProposalPrefix:    numbering.Proposal,
			InvoicePrefix:     numbering.Invoice,
			ProjectPrefix:     numbering.Project,
			ChangeOrderPrefix: numbering.ChangeOrder,
		},
	}
}

// DefaultDataDir returns ~/.foreman.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".foreman"), nil
}

// DefaultPath returns $FOREMAN_CONFIG, or config.yaml inside dataDir.
func DefaultPath(dataDir string) string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(dataDir, "config.yaml")
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
// FOREMAN_DB overrides database.path.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	if p := os.Getenv(EnvDBPath); p != "" {
		cfg.Database.Path = p
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Database.Path == "" && c.DataDir != "" {
		c.Database.Path = filepath.Join(c.DataDir, "foreman.db")
	}
	if c.Database.BusyTimeoutMS == 0 {
		c.Database.BusyTimeoutMS = defaults.Database.BusyTimeoutMS
	}
	if c.Database.BusyRetries == 0 {
		c.Database.BusyRetries = defaults.Database.BusyRetries
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.File == "" && c.DataDir != "" {
		c.Log.File = filepath.Join(c.DataDir, "foreman.log")
	}
	if c.Pricing.PartTimeWeeklyRate == "" {
		c.Pricing.PartTimeWeeklyRate = defaults.Pricing.PartTimeWeeklyRate
	}
	if c.Pricing.FullTimeWeeklyRate == "" {
		c.Pricing.FullTimeWeeklyRate = defaults.Pricing.FullTimeWeeklyRate
	}
	if c.Pricing.DefaultGeneralConditionsPct == "" {
		c.Pricing.DefaultGeneralConditionsPct = defaults.Pricing.DefaultGeneralConditionsPct
	}
	if c.Numbering.ProposalPrefix == "" {
		c.Numbering.ProposalPrefix = defaults.Numbering.ProposalPrefix
	}
	if c.Numbering.InvoicePrefix == "" {
		c.Numbering.InvoicePrefix = defaults.Numbering.InvoicePrefix
	}
	if c.Numbering.ProjectPrefix == "" {
		c.Numbering.ProjectPrefix = defaults.Numbering.ProjectPrefix
	}
	if c.Numbering.ChangeOrderPrefix == "" {
		c.Numbering.ChangeOrderPrefix = defaults.Numbering.ChangeOrderPrefix
	}
}

// Settings converts the validated config into service settings.
func (c *Config) Settings() service.Settings {
	return service.Settings{
		Policy: pricing.Policy{
			PartTimeWeeklyRate:          decimal.RequireFromString(c.Pricing.PartTimeWeeklyRate),
			FullTimeWeeklyRate:          decimal.RequireFromString(c.Pricing.FullTimeWeeklyRate),
			DefaultGeneralConditionsPct: decimal.RequireFromString(c.Pricing.DefaultGeneralConditionsPct),
		},
		RejectNegativeAmounts: c.Pricing.RejectNegativeAmounts,
		Numbering: service.Numbering{
			Proposal:    c.Numbering.ProposalPrefix,
			Invoice:     c.Numbering.InvoicePrefix,
			Project:     c.Numbering.ProjectPrefix,
			ChangeOrder: c.Numbering.ChangeOrderPrefix,
		},
	}
}
