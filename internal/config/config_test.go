package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LLM_API_KEY", "OPENAI_API_KEY", "LLM_MODEL", "LLM_PROVIDER", "JWT_SECRET", "GIGGLECHAT_DB", "GIGGLECHAT_ADDR"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.BasicConfig.ServerAddress)
	assert.Equal(t, "sqlite3", cfg.BasicConfig.Database)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	assert.Equal(t, 256, cfg.LLM.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout())
	assert.Equal(t, PolicyFallback, cfg.LLM.FailurePolicy)
	assert.False(t, cfg.LLM.HasCredential())
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL())
	assert.Equal(t, 24*time.Hour, cfg.Auth.RefreshTTL())
	assert.False(t, cfg.Chat.AllowAnonymous)

	// relative sqlite path is anchored next to the config file
	assert.Equal(t, filepath.Join(filepath.Dir(path), "gigglechat.db"), cfg.Databases["sqlite3"].DSN)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MODEL", "gpt-4o-mini")
	t.Setenv("JWT_SECRET", "s3cret")
	path := writeConfig(t, `{"llm": {"api_key": "from-file", "model": "file-model"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.True(t, cfg.LLM.HasCredential())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, `{"llm": {"failure_policy": "explode"}}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"llm": {"provider": "mystery"}}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"basic_config": {"database": "mysql"}}`))
	require.ErrorContains(t, err, "database config for mysql not found")

	_, err = Load(writeConfig(t, `{not json`))
	require.ErrorContains(t, err, "decode config")
}

func TestLoadExplicitMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadKeepsMemoryDSN(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, `{"databases": {"sqlite3": {"dsn": ":memory:"}}}`))
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Databases["sqlite3"].DSN)
}
