package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := Defaults()
	assert.Equal(t, "anthropic", s.Provider)
	assert.Equal(t, "claude-sonnet-4-5", s.Model)
	assert.Equal(t, 4096, s.MaxTokens)
	assert.Equal(t, "heuristic", s.Estimator)
	assert.Empty(t, s.APIKey)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_key: sk-file-key
model: claude-opus-4
max_tokens: 8192
workspace: /home/dev/project
estimator: tiktoken
`), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-file-key", s.APIKey)
	assert.Equal(t, "claude-opus-4", s.Model)
	assert.Equal(t, 8192, s.MaxTokens)
	assert.Equal(t, "/home/dev/project", s.Workspace)
	assert.Equal(t, "tiktoken", s.Estimator)
	// Untouched fields keep their defaults.
	assert.Equal(t, "anthropic", s.Provider)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: sk-file-key\nmodel: from-file\n"), 0o600))

	t.Setenv("AIBUDDY_API_KEY", "sk-env-key")
	t.Setenv("AIBUDDY_TEMPERATURE", "0.7")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-env-key", s.APIKey)
	assert.Equal(t, "from-file", s.Model)
	assert.InDelta(t, 0.7, s.Temperature, 1e-9)
}

func TestMissingFileIsNotAnError(t *testing.T) {
	t.Setenv("AIBUDDY_API_KEY", "sk-env-only")

	s, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-env-only", s.APIKey)
	assert.Equal(t, "anthropic", s.Provider)
}

func TestMalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEmptyPathUsesEnvironmentOnly(t *testing.T) {
	t.Setenv("AIBUDDY_MODEL", "claude-haiku-4")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4", s.Model)
}
