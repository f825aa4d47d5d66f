package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is written into generated config files
const CurrentVersion = 2.0

// Config represents the complete configuration for skjson.
// Option names are kebab-case on disk; snake_case and camelCase spellings of
// the same names are accepted when loading.
type Config struct {
	Version           float64       `yaml:"version"`
	Debug             bool          `yaml:"debug"`
	LoggingLevel      int           `yaml:"logging-level"`
	PathDelimiter     string        `yaml:"path-delimiter"`
	RequestPrefix     string        `yaml:"request-prefix"`
	HandleRequest     bool          `yaml:"handle-request"`
	RequestTimeout    time.Duration `yaml:"request-timeout"`
	RequestsPerSecond float64       `yaml:"requests-per-second"`
	AttachmentRoot    string        `yaml:"attachment-root"`
	WatchFiles        bool          `yaml:"watch-files"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Version:           CurrentVersion,
		Debug:             false,
		LoggingLevel:      1,
		PathDelimiter:     ":",
		RequestPrefix:     "[skjson]",
		HandleRequest:     true,
		RequestTimeout:    0,
		RequestsPerSecond: 0,
		AttachmentRoot:    ".",
		WatchFiles:        false,
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data over the defaults
func Parse(data []byte) (*Config, error) {
	cfg := NewConfig()

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if len(raw) == 0 {
		return cfg, nil
	}

	normalized, err := yaml.Marshal(normalizeKeys(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := yaml.Unmarshal(normalized, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeKeys rewrites top-level option names to kebab-case
func normalizeKeys(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[strcase.ToKebab(k)] = v
	}
	return out
}

// Validate checks option ranges
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.PathDelimiter) != 1 {
		return fmt.Errorf("invalid path-delimiter %q: must be a single character", c.PathDelimiter)
	}
	if c.LoggingLevel < 0 || c.LoggingLevel > 3 {
		return fmt.Errorf("invalid logging-level %d: must be between 0 and 3", c.LoggingLevel)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid requests-per-second %v: must not be negative", c.RequestsPerSecond)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("invalid request-timeout %v: must not be negative", c.RequestTimeout)
	}
	return nil
}

// Delimiter returns the path delimiter as a rune
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.PathDelimiter)
	if r == utf8.RuneError {
		return ':'
	}
	return r
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{"skjson.yml", "skjson.yaml", ".skjson.yml", ".skjson.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

const versionComment = "# do not change the 'version'\n"

// WriteDefault writes the default configuration to path, creating parent
// directories as needed
func WriteDefault(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(NewConfig())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}
	data = append(data, versionComment...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadOrDefault loads the config at path, or the first config file found
// by FindConfigFile when path is empty. Without any file the defaults apply.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = FindConfigFile()
	}
	if path == "" {
		return NewConfig(), nil
	}
	return LoadConfig(path)
}
