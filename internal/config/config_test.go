package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultValues(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 1, cfg.LoggingLevel)
	assert.Equal(t, ":", cfg.PathDelimiter)
	assert.Equal(t, ':', cfg.Delimiter())
	assert.True(t, cfg.HandleRequest)
	assert.Equal(t, ".", cfg.AttachmentRoot)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_LoadFromYAML(t *testing.T) {
	yamlContent := `
version: 2.0
debug: true
logging-level: 3
path-delimiter: "."
request-prefix: "[web]"
handle-request: false
request-timeout: 30s
requests-per-second: 2.5
watch-files: true
`

	tmpFile, err := os.CreateTemp("", "config_test_*.yml")
	require.NoError(t, err)
	defer func() { _ = os.Remove(tmpFile.Name()) }()

	_, err = tmpFile.WriteString(yamlContent)
	require.NoError(t, err)
	_ = tmpFile.Close()

	cfg, err := LoadConfig(tmpFile.Name())
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, 3, cfg.LoggingLevel)
	assert.Equal(t, '.', cfg.Delimiter())
	assert.Equal(t, "[web]", cfg.RequestPrefix)
	assert.False(t, cfg.HandleRequest)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2.5, cfg.RequestsPerSecond)
	assert.True(t, cfg.WatchFiles)
	// unset options keep their defaults
	assert.Equal(t, ".", cfg.AttachmentRoot)
}

func TestConfig_KeySpellings(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"kebab", "path-delimiter: \"/\"\nlogging-level: 2"},
		{"snake", "path_delimiter: \"/\"\nlogging_level: 2"},
		{"camel", "pathDelimiter: \"/\"\nloggingLevel: 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, '/', cfg.Delimiter())
			assert.Equal(t, 2, cfg.LoggingLevel)
		})
	}
}

func TestConfig_EmptyFile(t *testing.T) {
	cfg, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		message string
	}{
		{"long delimiter", `path-delimiter: "::"`, "path-delimiter"},
		{"empty delimiter", `path-delimiter: ""`, "path-delimiter"},
		{"logging level too high", `logging-level: 4`, "logging-level"},
		{"negative logging level", `logging-level: -1`, "logging-level"},
		{"negative rate", `requests-per-second: -1`, "requests-per-second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	cfg := NewConfig()
	cfg.PathDelimiter = "→"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, '→', cfg.Delimiter())
}

func TestConfig_LoadNonExistentFile(t *testing.T) {
	_, err := LoadConfig("/non/existent/config.yml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no such file or directory")
}

func TestConfig_LoadInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("debug: [unclosed array\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestConfig_WriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins", "skjson", "config.yml")

	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "path-delimiter:")
	assert.Contains(t, string(data), "# do not change the 'version'")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestConfig_FindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	nestedDir := filepath.Join(tmpDir, "project", "subdir")
	require.NoError(t, os.MkdirAll(nestedDir, 0o755))

	configPath := filepath.Join(tmpDir, "project", "skjson.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(`request-prefix: "found"`), 0o644))

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()
	require.NoError(t, os.Chdir(nestedDir))

	foundPath := FindConfigFile()
	require.NotEmpty(t, foundPath, "Should find config file")

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "found", cfg.RequestPrefix)
}

func TestConfig_LoadOrDefaultWithoutFile(t *testing.T) {
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()
	require.NoError(t, os.Chdir(t.TempDir()))

	if FindConfigFile() != "" {
		t.Skip("a config file exists above the temp directory")
	}
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}
