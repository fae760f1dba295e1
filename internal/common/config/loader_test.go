package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ANTHROPIC_API_KEY", "FRAMEWORK_DIR", "REDIS_ADDRESS", "PORT", "SERVER_PORT", "ANTHROPIC_MODEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFile_Defaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "app:\n  name: test\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:7860", cfg.Server.Address())
	assert.Equal(t, DefaultFrameworkDir, cfg.Framework.Directory)
	assert.Equal(t, ".json", cfg.Framework.Extension)
	assert.Equal(t, DefaultComponents, cfg.Framework.DefaultComponents)
	assert.Equal(t, DefaultModel, cfg.Anthropic.Model)
	assert.Equal(t, 4000, cfg.Anthropic.MaxTokens)
	assert.Equal(t, 0.7, cfg.Anthropic.Temperature)
	assert.Equal(t, DefaultSystemPrompt, cfg.Anthropic.SystemPrompt)
	assert.Empty(t, cfg.Anthropic.APIKey)
	assert.False(t, cfg.Redis.Enabled())
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-from-env")
	t.Setenv("FRAMEWORK_DIR", "/data/framework")
	t.Setenv("PORT", "9000")
	t.Setenv("MY_REDIS", "redis:6379")

	path := writeConfig(t, `
redis:
  address: ${MY_REDIS}
anthropic:
  model: claude-test
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", cfg.Anthropic.APIKey)
	assert.Equal(t, "/data/framework", cfg.Framework.Directory)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "claude-test", cfg.Anthropic.Model)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad extension", "framework:\n  extension: json\n", "framework.extension"},
		{"temperature out of range", "anthropic:\n  temperature: 1.5\n", "anthropic.temperature"},
		{"negative retries", "anthropic:\n  max_retries: -1\n", "anthropic.max_retries"},
		{"bad port", "server:\n  port: 70000\n", "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, int64(1500), GetDuration(1500).Milliseconds())
	assert.Zero(t, GetDuration(0))
}
