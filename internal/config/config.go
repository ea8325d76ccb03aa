// Package config handles application configuration loading from YAML files.
// Supports environment variable expansion in string values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rashpile/pako-tasks/internal/explain"
)

// DefaultPath is where the CLI looks for configuration when no flag is given.
const DefaultPath = "config.yaml"

// Config holds all application configuration.
type Config struct {
	Telegram    TelegramConfig `yaml:"telegram"`
	ProjectRoot string         `yaml:"project_root"`
	Database    DatabaseConfig `yaml:"database"`
	Defaults    DefaultsConfig `yaml:"defaults"`
	Console     ConsoleConfig  `yaml:"console"`
	Learning    LearningConfig `yaml:"learning"`
}

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token          string  `yaml:"token"`
	AllowedChatIDs []int64 `yaml:"allowed_chat_ids"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DefaultsConfig holds default values for task execution.
type DefaultsConfig struct {
	Timeout   time.Duration `yaml:"timeout"`    // 0 means no deadline
	MaxOutput int           `yaml:"max_output"` // bytes captured per run
}

// ConsoleConfig controls the free-form shell command.
type ConsoleConfig struct {
	Confirm *bool `yaml:"confirm"`
}

// ConfirmEnabled reports whether /sh asks before running. Defaults to true.
func (c ConsoleConfig) ConfirmEnabled() bool {
	return c.Confirm == nil || *c.Confirm
}

// LearningConfig controls error explanations.
type LearningConfig struct {
	Enabled bool           `yaml:"enabled"`
	Rules   []explain.Spec `yaml:"rules"`
}

// Default returns a configuration with every default applied. It is used
// when running locally without a config file.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

// Load reads configuration from the specified YAML file path.
// Supports ${ENV_VAR} expansion in string values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Relative paths are anchored at the config file.
	cfg.ProjectRoot = cfg.ExpandPath(path, cfg.ProjectRoot)
	cfg.Database.Path = cfg.ExpandPath(path, cfg.Database.Path)

	return &cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// setDefaults applies default values for unset fields.
func (c *Config) setDefaults() {
	if c.ProjectRoot == "" {
		c.ProjectRoot = "."
	}

	if c.Database.Path == "" {
		c.Database.Path = "./runs.db"
	}

	if c.Defaults.MaxOutput == 0 {
		c.Defaults.MaxOutput = 64 * 1024
	}
}

func (c *Config) validate() error {
	if c.Defaults.Timeout < 0 {
		return fmt.Errorf("defaults.timeout must not be negative")
	}
	if c.Defaults.MaxOutput < 0 {
		return fmt.Errorf("defaults.max_output must not be negative")
	}
	if _, err := explain.Compile(c.Learning.Rules); err != nil {
		return fmt.Errorf("learning.rules: %w", err)
	}
	return nil
}

// RequireTelegram checks the settings the bot cannot start without.
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}

	if len(c.Telegram.AllowedChatIDs) == 0 {
		return fmt.Errorf("telegram.allowed_chat_ids must have at least one entry")
	}

	return nil
}

// Explainer builds the rule registry: built-in rules first, then the
// configured ones.
func (c *Config) Explainer() (*explain.Registry, error) {
	extra, err := explain.Compile(c.Learning.Rules)
	if err != nil {
		return nil, fmt.Errorf("learning.rules: %w", err)
	}
	return explain.Default().With(extra...), nil
}

// ExpandPath resolves a path relative to the config file directory.
func (c *Config) ExpandPath(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(base), path)
}

// envVarPattern matches ${VAR} or $VAR patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars replaces ${VAR} and $VAR with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var name string
		if match[1] == '{' {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}
