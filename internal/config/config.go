// Package config loads the server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/band-availability/backend/internal/availability"
	"github.com/band-availability/backend/internal/storage/models"
	"github.com/band-availability/backend/internal/suggest"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API and static frontend.
	Listen string `yaml:"listen" env:"BAND_LISTEN"`

	// DataDir holds the SQLite database.
	DataDir string `yaml:"data_dir" env:"BAND_DATA_DIR"`

	// StaticDir is served at / for the browser frontend.
	StaticDir string `yaml:"static_dir" env:"BAND_STATIC_DIR"`

	// Roster is the ordered list of band members.
	Roster []string `yaml:"roster" env:"BAND_ROSTER" envSeparator:","`

	// SuggestionHorizonMonths is how far ahead default suggestions look.
	SuggestionHorizonMonths int `yaml:"suggestion_horizon_months" env:"BAND_SUGGESTION_HORIZON_MONTHS"`

	// DigestSchedule is a cron spec (seconds optional) or descriptor such as
	// "@every 1h" controlling how often suggestions are pushed to clients.
	DigestSchedule string `yaml:"digest_schedule" env:"BAND_DIGEST_SCHEDULE"`

	// CalendarName is the display name of the exported ICS feed.
	CalendarName string `yaml:"calendar_name" env:"BAND_CALENDAR_NAME"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:                  ":8099",
		DataDir:                 "/data",
		StaticDir:               "./static",
		Roster:                  []string{"Andrew", "Sanya", "Patrick"},
		SuggestionHorizonMonths: suggest.DefaultHorizonMonths,
		DigestSchedule:          suggest.DefaultDigestSchedule,
		CalendarName:            "Zenekar",
	}
}

// Normalize fills in missing values with defaults and trims roster names.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.StaticDir == "" {
		c.StaticDir = def.StaticDir
	}
	if c.SuggestionHorizonMonths == 0 {
		c.SuggestionHorizonMonths = def.SuggestionHorizonMonths
	}
	if c.DigestSchedule == "" {
		c.DigestSchedule = def.DigestSchedule
	}
	if c.CalendarName == "" {
		c.CalendarName = def.CalendarName
	}

	roster := make([]string, 0, len(c.Roster))
	for _, name := range c.Roster {
		if name = strings.TrimSpace(name); name != "" {
			roster = append(roster, name)
		}
	}
	c.Roster = roster
}

// Validate reports configuration errors.
// Roster problems are returned as *availability.ConfigurationError.
func (c *Config) Validate() error {
	roster := c.Members()
	if err := availability.ValidateRoster(roster); err != nil {
		return err
	}
	for _, m := range roster {
		if strings.Contains(string(m), ",") {
			return &availability.ConfigurationError{Reason: fmt.Sprintf("member %q contains a comma", string(m))}
		}
	}
	if c.SuggestionHorizonMonths < 1 || c.SuggestionHorizonMonths > 24 {
		return fmt.Errorf("suggestion_horizon_months must be between 1 and 24, got %d", c.SuggestionHorizonMonths)
	}
	if err := suggest.ParseSchedule(c.DigestSchedule); err != nil {
		return fmt.Errorf("digest_schedule: %w", err)
	}
	return nil
}

// Members returns the roster as domain members.
func (c *Config) Members() []models.Member {
	members := make([]models.Member, len(c.Roster))
	for i, name := range c.Roster {
		members[i] = models.Member(name)
	}
	return members
}

// Load reads the YAML file at path, applies environment overrides,
// normalizes and validates the result.
// A missing file is created with the default configuration first.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv overrides fields of target from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".band-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
