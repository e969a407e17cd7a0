package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"resume": "resume.json",
		"section": "experience",
		"job_title": "Data Engineer",
		"fallback_api_key": "k2",
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "resume.json", cfg.Resume)
	assert.Equal(t, "experience", cfg.Section)
	assert.Equal(t, "Data Engineer", cfg.JobTitle)
	assert.Equal(t, "k2", cfg.FallbackAPIKey)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
	}{
		{"empty path", func(*testing.T) string { return "" }, "config path is empty"},
		{"missing file", func(*testing.T) string { return "/nonexistent/path/config.json" }, "failed to read config file"},
		{"invalid json", func(t *testing.T) string { return writeFile(t, "config.json", `{ invalid json }`) }, "failed to parse config JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(tt.path(t))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	resume := writeFile(t, "resume.json", `{}`)

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"empty is valid", Config{}, ""},
		{"resume with full", Config{Resume: resume, Section: "full"}, ""},
		{"text with summary", Config{Text: "hello", Section: "summary"}, ""},
		{"resume and text", Config{Resume: resume, Text: "hello"}, "mutually exclusive"},
		{"unknown section", Config{Section: "hobbies"}, "unknown section type"},
		{"text with full", Config{Text: "hello", Section: "full"}, "requires a resume document"},
		{"missing resume file", Config{Resume: "/nonexistent/resume.json"}, "resume file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Section: "skills", JobTitle: "SRE"}
	defaults := Config{
		Resume:   "default.json",
		Section:  "summary",
		JobTitle: "Engineer",
		Model:    "gemini-2.0-flash",
		Verbose:  true,
	}

	merged := cfg.MergeWithDefaults(defaults)

	assert.Equal(t, "skills", merged.Section)
	assert.Equal(t, "SRE", merged.JobTitle)
	assert.Equal(t, "default.json", merged.Resume)
	assert.Equal(t, "gemini-2.0-flash", merged.Model)
	assert.False(t, merged.Verbose, "bools are not merged")
}
