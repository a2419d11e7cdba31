package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level ledger.yaml configuration.
type Config struct {
	Company  CompanyConfig  `yaml:"company" mapstructure:"company"`
	Fiscal   FiscalConfig   `yaml:"fiscal" mapstructure:"fiscal"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Sequence SequenceConfig `yaml:"sequence" mapstructure:"sequence"`
}

// CompanyConfig identifies the company whose books the CLI operates on.
type CompanyConfig struct {
	ID       string `yaml:"id" mapstructure:"id"`
	Name     string `yaml:"name" mapstructure:"name"`
	Currency string `yaml:"currency" mapstructure:"currency"`
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start" mapstructure:"year_start"` // "MM-DD" format, e.g. "01-01"
}

// DatabaseConfig selects and tunes the ledger database.
type DatabaseConfig struct {
	Driver          string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	DSN             string `yaml:"dsn" mapstructure:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"` // in minutes
	LogLevel        string `yaml:"log_level" mapstructure:"log_level"`                 // silent, error, warn, info
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json, console
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// SequenceConfig controls the default entry-number sequence.
type SequenceConfig struct {
	DefaultPrefix string `yaml:"default_prefix" mapstructure:"default_prefix"`
}

// EnvPrefix prefixes environment overrides, e.g. LEDGER_DATABASE_DSN.
const EnvPrefix = "LEDGER"

// Load reads a ledger.yaml file from disk.
// Priority (highest to lowest):
// 1. Environment variables with LEDGER_ prefix
// 2. the file at path
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new set of books.
func Default(companyName string) *Config {
	return &Config{
		Company: CompanyConfig{
			ID:       uuid.NewString(),
			Name:     companyName,
			Currency: "MAD",
		},
		Fiscal: FiscalConfig{
			YearStart: "01-01",
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "ledger.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 60,
			LogLevel:        "warn",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Sequence: SequenceConfig{
			DefaultPrefix: "JE",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default("")
	v.SetDefault("company.id", "")
	v.SetDefault("company.name", "")
	v.SetDefault("company.currency", d.Company.Currency)
	v.SetDefault("fiscal.year_start", d.Fiscal.YearStart)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("database.log_level", d.Database.LogLevel)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("sequence.default_prefix", d.Sequence.DefaultPrefix)
}

func (c *Config) validate() error {
	var errs []error
	if _, err := uuid.Parse(c.Company.ID); err != nil {
		errs = append(errs, fmt.Errorf("company.id: %w", err))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver))
	}
	if _, _, err := c.Fiscal.Start(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CompanyID returns the parsed company ID.
func (c *Config) CompanyID() uuid.UUID {
	id, _ := uuid.Parse(c.Company.ID)
	return id
}

// Start parses YearStart into month and day.
func (f FiscalConfig) Start() (time.Month, int, error) {
	if f.YearStart == "" {
		return time.January, 1, nil
	}
	t, err := time.Parse("01-02", f.YearStart)
	if err != nil {
		return 0, 0, fmt.Errorf("fiscal.year_start %q: expected MM-DD", f.YearStart)
	}
	return t.Month(), t.Day(), nil
}
