// Package config loads and defaults the payload engine's runtime
// configuration: target connection details, the WAF oracle's retry/vote
// policy, and logging, all from one YAML file with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FunctFan/fenjing-go/internal/logging"
)

// Config holds all fenjing-go configuration.
type Config struct {
	Target  TargetConfig  `yaml:"target"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Logging LoggingConfig `yaml:"logging"`
}

// TargetConfig describes the form the engine is attacking.
type TargetConfig struct {
	URL       string `yaml:"url"`
	Method    string `yaml:"method"`
	Field     string `yaml:"field"`
	CookieJar string `yaml:"cookie_jar"`
}

// OracleConfig tunes how a flaky real-world oracle is turned into the pure
// boolean predicate the generator assumes (see probe.WithRetry).
type OracleConfig struct {
	Retries          int    `yaml:"retries"`
	VoteThresh       int    `yaml:"vote_threshold"`
	Timeout          string `yaml:"timeout"`
	UseBrowser       bool   `yaml:"use_browser"`
	BrowserBin       string `yaml:"browser_bin"`
	ConcurrentProbes int    `yaml:"concurrent_probes"`
}

// LoggingConfig mirrors logging.loggingConfig's on-disk shape.
type LoggingConfig struct {
	Level      string          `yaml:"level"`
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	JSONFormat bool            `yaml:"json_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			Method: "POST",
			Field:  "name",
		},
		Oracle: OracleConfig{
			Retries:          3,
			VoteThresh:       2,
			Timeout:          "10s",
			ConcurrentProbes: 4,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Categories: map[string]bool{},
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults (with
// environment overrides still applied) when the file doesn't exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	logging.Get(logging.CategoryBoot).Debug("loading config from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Get(logging.CategoryBoot).Info("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides, taking
// precedence over both defaults and a loaded file.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("FENJING_TARGET_URL"); url != "" {
		c.Target.URL = url
	}
	if method := os.Getenv("FENJING_TARGET_METHOD"); method != "" {
		c.Target.Method = method
	}
	if field := os.Getenv("FENJING_WAF_FIELD"); field != "" {
		c.Target.Field = field
	}
	if jar := os.Getenv("FENJING_COOKIE_JAR"); jar != "" {
		c.Target.CookieJar = jar
	}
	if level := os.Getenv("FENJING_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
		c.Logging.DebugMode = true
	}
	if bin := os.Getenv("FENJING_BROWSER_BIN"); bin != "" {
		c.Oracle.BrowserBin = bin
		c.Oracle.UseBrowser = true
	}
}

// OracleTimeout returns the configured oracle timeout as a duration,
// defaulting to 10s if the configured value doesn't parse.
func (c *Config) OracleTimeout() time.Duration {
	d, err := time.ParseDuration(c.Oracle.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}
