// Package config loads and validates guidewalk configuration from
// .guidewalk/config.yaml, merging file values over defaults and CLI flags
// over both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// HistoryConfig represents run-history persistence configuration
type HistoryConfig struct {
	// Enabled enables recording runs into the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database file
	DBPath string `yaml:"db_path"`

	// KeepRunsDays is the number of days to keep run history
	KeepRunsDays int `yaml:"keep_runs_days"`
}

// ReportConfig represents report generation configuration
type ReportConfig struct {
	// Enabled enables writing a report after every run
	Enabled bool `yaml:"enabled"`

	// HTML additionally renders the markdown report to HTML
	HTML bool `yaml:"html"`
}

// Config represents guidewalk configuration options
type Config struct {
	// GuideURL is the page that renders the interactive guide
	GuideURL string `yaml:"guide_url"`

	// Timeout is the base per-step budget; surcharges for multistep and
	// guided steps are added on top
	Timeout time.Duration `yaml:"timeout"`

	// LogLevel sets the logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written
	LogDir string `yaml:"log_dir"`

	// ArtifactsDir is the directory where screenshots, DOM snapshots and
	// console dumps are written
	ArtifactsDir string `yaml:"artifacts_dir"`

	// Headless launches the browser without a visible window
	Headless bool `yaml:"headless"`

	// DebuggerURL attaches to an already-running browser instead of
	// launching one
	DebuggerURL string `yaml:"debugger_url"`

	// SessionEndpoint is the authenticated endpoint probed for expiry
	SessionEndpoint string `yaml:"session_endpoint"`

	// SessionCheckInterval validates the session every N steps
	SessionCheckInterval int `yaml:"session_check_interval"`

	// StopOnMandatoryFailure aborts the run when a mandatory step fails
	StopOnMandatoryFailure bool `yaml:"stop_on_mandatory_failure"`

	// AlwaysScreenshot also captures pre-step and success screenshots
	AlwaysScreenshot bool `yaml:"always_screenshot"`

	// FinalScreenshot captures the page state once at run end
	FinalScreenshot bool `yaml:"final_screenshot"`

	// History contains run-history persistence configuration
	History HistoryConfig `yaml:"history"`

	// Report contains report generation configuration
	Report ReportConfig `yaml:"report"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:                30 * time.Second,
		LogLevel:               "info",
		LogDir:                 ".guidewalk/logs",
		ArtifactsDir:           ".guidewalk/artifacts",
		Headless:               true,
		SessionEndpoint:        "/api/v1/me",
		SessionCheckInterval:   5,
		StopOnMandatoryFailure: true,
		FinalScreenshot:        true,
		History: HistoryConfig{
			Enabled:      true,
			DBPath:       ".guidewalk/history.db",
			KeepRunsDays: 90,
		},
		Report: ReportConfig{
			Enabled: true,
			HTML:    false,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Temporary struct so the timeout can be written as "45s" in YAML.
	type yamlConfig struct {
		GuideURL               string        `yaml:"guide_url"`
		Timeout                string        `yaml:"timeout"`
		LogLevel               string        `yaml:"log_level"`
		LogDir                 string        `yaml:"log_dir"`
		ArtifactsDir           string        `yaml:"artifacts_dir"`
		Headless               *bool         `yaml:"headless"`
		DebuggerURL            string        `yaml:"debugger_url"`
		SessionEndpoint        string        `yaml:"session_endpoint"`
		SessionCheckInterval   *int          `yaml:"session_check_interval"`
		StopOnMandatoryFailure *bool         `yaml:"stop_on_mandatory_failure"`
		AlwaysScreenshot       *bool         `yaml:"always_screenshot"`
		FinalScreenshot        *bool         `yaml:"final_screenshot"`
		History                HistoryConfig `yaml:"history"`
		Report                 ReportConfig  `yaml:"report"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.GuideURL != "" {
		cfg.GuideURL = yamlCfg.GuideURL
	}
	if yamlCfg.Timeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", yamlCfg.Timeout, err)
		}
		cfg.Timeout = timeout
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.ArtifactsDir != "" {
		cfg.ArtifactsDir = yamlCfg.ArtifactsDir
	}
	if yamlCfg.Headless != nil {
		cfg.Headless = *yamlCfg.Headless
	}
	if yamlCfg.DebuggerURL != "" {
		cfg.DebuggerURL = yamlCfg.DebuggerURL
	}
	if yamlCfg.SessionEndpoint != "" {
		cfg.SessionEndpoint = yamlCfg.SessionEndpoint
	}
	if yamlCfg.SessionCheckInterval != nil {
		cfg.SessionCheckInterval = *yamlCfg.SessionCheckInterval
	}
	if yamlCfg.StopOnMandatoryFailure != nil {
		cfg.StopOnMandatoryFailure = *yamlCfg.StopOnMandatoryFailure
	}
	if yamlCfg.AlwaysScreenshot != nil {
		cfg.AlwaysScreenshot = *yamlCfg.AlwaysScreenshot
	}
	if yamlCfg.FinalScreenshot != nil {
		cfg.FinalScreenshot = *yamlCfg.FinalScreenshot
	}

	// Nested sections merge field by field; only keys present in the file
	// override the defaults.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, exists := rawMap["history"]; exists && section != nil {
			historyMap, _ := section.(map[string]interface{})
			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = yamlCfg.History.Enabled
			}
			if _, exists := historyMap["db_path"]; exists {
				cfg.History.DBPath = yamlCfg.History.DBPath
			}
			if _, exists := historyMap["keep_runs_days"]; exists {
				cfg.History.KeepRunsDays = yamlCfg.History.KeepRunsDays
			}
		}
		if section, exists := rawMap["report"]; exists && section != nil {
			reportMap, _ := section.(map[string]interface{})
			if _, exists := reportMap["enabled"]; exists {
				cfg.Report.Enabled = yamlCfg.Report.Enabled
			}
			if _, exists := reportMap["html"]; exists {
				cfg.Report.HTML = yamlCfg.Report.HTML
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .guidewalk/config.yaml in the
// specified directory. If the directory or file doesn't exist, returns
// default configuration without error.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".guidewalk", "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration. Non-nil flag
// values override configuration values, so flags take precedence over the
// config file.
func (c *Config) MergeWithFlags(guideURL *string, timeout *time.Duration, artifactsDir *string, headless *bool, debuggerURL *string, alwaysScreenshot *bool) {
	if guideURL != nil {
		c.GuideURL = *guideURL
	}
	if timeout != nil {
		c.Timeout = *timeout
	}
	if artifactsDir != nil {
		c.ArtifactsDir = *artifactsDir
	}
	if headless != nil {
		c.Headless = *headless
	}
	if debuggerURL != nil {
		c.DebuggerURL = *debuggerURL
	}
	if alwaysScreenshot != nil {
		c.AlwaysScreenshot = *alwaysScreenshot
	}
}

// Validate validates the configuration values.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: debug, info, warn, error", c.LogLevel)
	}

	if c.SessionCheckInterval < 0 {
		return fmt.Errorf("session_check_interval must be >= 0, got %d", c.SessionCheckInterval)
	}

	if c.History.Enabled {
		if c.History.DBPath == "" {
			return fmt.Errorf("history.db_path cannot be empty when history is enabled")
		}
		if c.History.KeepRunsDays < 0 {
			return fmt.Errorf("history.keep_runs_days must be >= 0, got %d", c.History.KeepRunsDays)
		}
	}

	return nil
}
