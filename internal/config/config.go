package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the tool configuration
type Config struct {
	// Session settings
	Input        string `mapstructure:"input"`         // script to load
	Output       string `mapstructure:"output"`        // save destination (prompted when empty)
	SampleLines  int    `mapstructure:"sample_lines"`  // default lines for "show sample" (0 = all)
	PreviewLines int    `mapstructure:"preview_lines"` // lines printed after a transform (0 = all)
	MaxSize      string `mapstructure:"max_size"`      // maximum input size

	// Presentation
	Color bool   `mapstructure:"color"` // styled menu and syntax highlighting
	Style string `mapstructure:"style"` // chroma style name

	// Rule settings
	MaxDepth  int    `mapstructure:"max_depth"`  // auto mode iteration limit
	RulesPath string `mapstructure:"rules_path"` // YAML custom rules (file or directory)

	// Report settings
	ReportFormat string `mapstructure:"report_format"` // text, json, md (empty = none)
	ReportOutput string `mapstructure:"report_output"` // report file path
}

// LoadConfig loads configuration from defaults, environment variables and an optional file
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("input", "")
	v.SetDefault("output", "")
	v.SetDefault("sample_lines", 0)
	v.SetDefault("preview_lines", 0)
	v.SetDefault("max_size", "10M")
	v.SetDefault("color", true)
	v.SetDefault("style", "monokai")
	v.SetDefault("max_depth", 100)
	v.SetDefault("rules_path", "")
	v.SetDefault("report_format", "")
	v.SetDefault("report_output", "")

	// Read environment variables
	v.SetEnvPrefix("PSDECODE")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that have a fixed set of choices
func (c *Config) Validate() error {
	if c.ReportFormat != "" {
		validFormats := []string{"text", "txt", "json", "md", "markdown"}
		if !contains(validFormats, strings.ToLower(c.ReportFormat)) {
			return fmt.Errorf("report format must be one of: %s (got: %s)", strings.Join(validFormats, ", "), c.ReportFormat)
		}
	}
	if c.SampleLines < 0 {
		return fmt.Errorf("sample_lines must not be negative (got: %d)", c.SampleLines)
	}
	if c.PreviewLines < 0 {
		return fmt.Errorf("preview_lines must not be negative (got: %d)", c.PreviewLines)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive (got: %d)", c.MaxDepth)
	}
	return nil
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
