package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/resume-builder/internal/types"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Input
	Resume  string `json:"resume,omitempty"`  // Path to a resume JSON document
	Text    string `json:"text,omitempty"`    // Inline text to enhance
	Section string `json:"section,omitempty"` // Section type or "full"

	// Context
	JobTitle string `json:"job_title,omitempty"`
	Industry string `json:"industry,omitempty"`

	// Upstream
	APIKey         string `json:"api_key,omitempty"`          // Primary Gemini API key
	FallbackAPIKey string `json:"fallback_api_key,omitempty"` // Secondary Gemini API key
	Model          string `json:"model,omitempty"`

	// Output
	Output  string `json:"output,omitempty"`  // Path to write the enhanced resume
	Verbose bool   `json:"verbose,omitempty"` // Print status transitions
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are checked by the CLI after merging with flags.
func (c *Config) Validate() error {
	if c.Resume != "" && c.Text != "" {
		return fmt.Errorf("config error: 'resume' and 'text' are mutually exclusive")
	}
	if c.Section != "" {
		if _, err := types.ParseSectionType(c.Section); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if c.Text != "" && c.Section == string(types.SectionFull) {
		return fmt.Errorf("config error: section 'full' requires a resume document")
	}
	if c.Resume != "" {
		if _, err := os.Stat(c.Resume); os.IsNotExist(err) {
			return fmt.Errorf("config error: resume file not found: %s", c.Resume)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// Bools are not merged; CLI flags always win.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&result.Resume, defaults.Resume)
	fill(&result.Text, defaults.Text)
	fill(&result.Section, defaults.Section)
	fill(&result.JobTitle, defaults.JobTitle)
	fill(&result.Industry, defaults.Industry)
	fill(&result.APIKey, defaults.APIKey)
	fill(&result.FallbackAPIKey, defaults.FallbackAPIKey)
	fill(&result.Model, defaults.Model)
	fill(&result.Output, defaults.Output)

	return result
}
