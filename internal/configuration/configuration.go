package configuration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// AppConfig represents the complete application configuration.
type AppConfig struct {
	// Logger — logger component configuration
	Logger LoggerConfig `mapstructure:"logger"`
	// Github — scanned repository and credentials
	Github GithubConfig `mapstructure:"github"`
	// Analysis — rule file, candidate filter and history settings
	Analysis AnalysisConfig `mapstructure:"analysis"`
	// Digest — rendered output settings
	Digest DigestConfig `mapstructure:"digest"`
	// Journal — decision journal settings
	Journal JournalConfig `mapstructure:"journal"`
	// Schedule — cron expression for periodic scans.
	// Empty means a single scan and exit.
	Schedule string `mapstructure:"schedule"`
}

// LoggerConfig defines logging settings.
type LoggerConfig struct {
	// Level — log level: debug, info, warn, warning, error.
	// Value is case-insensitive but checked in lowercase.
	Level string `mapstructure:"level"`
}

// GithubConfig identifies the repository to scan.
type GithubConfig struct {
	// Owner — repository owner (e.g., "rails").
	Owner string `mapstructure:"owner"`
	// Repo — repository name (e.g., "rails").
	Repo string `mapstructure:"repo"`
	// Token — opaque access token, passed through to the API client.
	// Optional: public repositories work unauthenticated within the
	// anonymous rate limit. Can also come from the environment via
	// viper.AutomaticEnv.
	Token string `mapstructure:"token"`
}

// AnalysisConfig defines scoring parameters.
type AnalysisConfig struct {
	// Rules — path to the file with scoring rules in YAML format.
	// Must be set, otherwise the configuration is invalid.
	Rules string `mapstructure:"rules"`
	// Filter — optional CEL expression pre-filtering candidates before
	// scoring, with variables title, labels and files.
	Filter string `mapstructure:"filter"`
	// HistoryLength — maximum digested pull request numbers remembered per
	// repository in daemon mode. Default 200.
	HistoryLength int `mapstructure:"history_length"`
	// HistoryTtl — lifetime of history records (time.Duration), after
	// which inactive records are deleted. Example: "24h", "168h".
	// Default 168h.
	HistoryTtl time.Duration `mapstructure:"history_ttl"`
}

// DigestConfig defines rendered output parameters.
type DigestConfig struct {
	// Output — directory the digest files are written into.
	Output string `mapstructure:"output"`
	// Html — also write an HTML rendering next to the markdown file.
	Html bool `mapstructure:"html"`
}

// JournalConfig defines decision journal parameters
type JournalConfig struct {
	// Journal file path (optional; empty disables the journal)
	File string `mapstructure:"file"`
	// Maximal journal file size in MB (default 100)
	Size int `mapstructure:"size"`
	// Number of rotated journal files (default 20)
	Amount int `mapstructure:"amount"`
}

// Validate checks the correctness of the entire application configuration.
// Calls validation for each nested structure and returns the first detected
// error. Returns nil if the configuration is valid.
func (c *AppConfig) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}

	if err := c.Github.Validate(); err != nil {
		return err
	}

	if err := c.Analysis.Validate(); err != nil {
		return err
	}

	if err := c.Digest.Validate(); err != nil {
		return err
	}

	if err := c.Journal.Validate(); err != nil {
		return err
	}

	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
	}

	return nil
}

// Validate checks the correctness of the logger configuration.
// Verifies that the log level is set and is one of the supported values.
// Supported values: debug, info, warn, warning, error (case-insensitive).
func (l *LoggerConfig) Validate() error {
	if l.Level == "" {
		return errors.New("logger.level: must be specified")
	}

	valid := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !valid[strings.ToLower(l.Level)] {
		return fmt.Errorf("logger.level: unsupported level '%s'", l.Level)
	}

	return nil
}

// Validate checks the correctness of the repository configuration.
// Verifies that owner and repository name are set.
func (g *GithubConfig) Validate() error {
	if g.Owner == "" {
		return errors.New("github.owner: must be specified")
	}

	if g.Repo == "" {
		return errors.New("github.repo: must be specified")
	}

	return nil
}

// Validate checks the correctness of the analysis configuration and
// applies history defaults.
func (a *AnalysisConfig) Validate() error {
	if a.Rules == "" {
		return errors.New("analysis.rules: must be specified")
	}

	if a.HistoryLength == 0 {
		a.HistoryLength = 200
	}

	if a.HistoryTtl == 0 {
		a.HistoryTtl = 168 * time.Hour
	}

	return nil
}

// Validate checks the correctness of the digest configuration.
// Verifies that the output directory is set.
func (d *DigestConfig) Validate() error {
	if d.Output == "" {
		return errors.New("digest.output: must be specified")
	}

	return nil
}

// Validate journal parameters
func (j *JournalConfig) Validate() error {
	if j.Amount == 0 {
		j.Amount = 20
	}

	if j.Size == 0 {
		j.Size = 100
	}

	return nil
}

// LoadConfig loads configuration from the specified file using Viper.
// Supports YAML format. Also includes environment variable loading
// (AutomaticEnv), which can override values from the file.
//
// Parameter configPath — path to the configuration file.
//
// Returns a pointer to AppConfig or an error if:
// - the file is not found or inaccessible
// - the configuration has invalid format
// - one of the sections fails validation
func LoadConfig(configPath string) (*AppConfig, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config AppConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}
