package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "finsight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	path := writeConfig(t, t.TempDir(), "")
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "auto", cfg.OutputFormat)
	assert.Equal(t, "duckdb", cfg.Source.Type)
	assert.True(t, filepath.IsAbs(cfg.StatePath))
	assert.Contains(t, cfg.StatePath, ".finsight")
}

func TestLoadConfigFromFile(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	path := writeConfig(t, t.TempDir(), `
environment: prod
source:
  type: postgres
  host: db.internal
  port: 5432
  database: bakery
  user: finsight
balance:
  current_assets: 85000
  current_liabilities: 32000
business:
  years_in_business: 4
  credit_score: 700
llm:
  model: qwen-plus-2025-04-28
ui:
  port: 9000
`)
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "postgres", cfg.Source.Type)
	assert.Equal(t, "db.internal", cfg.Source.Host)
	assert.InDelta(t, 85000, cfg.Balance.CurrentAssets, 0.001)
	assert.Equal(t, 4, cfg.Business.YearsInBusiness)
	assert.Equal(t, 9000, cfg.GetUIConfig().Port)

	ac := cfg.Source.AdapterConfig()
	assert.Equal(t, "postgres", ac.Type)
	assert.Equal(t, "finsight", ac.Username)
}

func TestEnvironmentOverrides(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	path := writeConfig(t, t.TempDir(), `
environment: dev
source:
  type: postgres
  host: localhost
  database: bakery
environments:
  prod:
    source:
      host: db.prod.internal
      password: secret
`)
	cfg, err := LoadConfigWithEnv(path, "prod", nil)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "db.prod.internal", cfg.Source.Host)
	assert.Equal(t, "secret", cfg.Source.Password)
	// Base fields survive the merge.
	assert.Equal(t, "bakery", cfg.Source.Database)
	assert.Equal(t, "postgres", cfg.Source.Type)
}

func TestEnvVarExpansion(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)
	t.Setenv("TEST_DB_PASSWORD", "hunter2")

	path := writeConfig(t, t.TempDir(), `
source:
  type: postgres
  password: ${TEST_DB_PASSWORD}
`)
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Source.Password)
}

func TestFlagsOverrideFile(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	path := writeConfig(t, t.TempDir(), "environment: dev\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("environment", "", "")
	flags.String("output", "", "")
	require.NoError(t, flags.Parse([]string{"--environment", "staging", "--output", "json"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestEnvVarsOverrideFile(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)
	t.Setenv("FINSIGHT_ENVIRONMENT", "staging")
	t.Setenv("FINSIGHT_LLM__API_KEY", "sk-test")

	path := writeConfig(t, t.TempDir(), "environment: dev\n")
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestDotEnvLoaded(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	dir := t.TempDir()
	path := writeConfig(t, dir, `
source:
  type: postgres
  password: ${BAKERY_DB_PASSWORD}
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("BAKERY_DB_PASSWORD=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("BAKERY_DB_PASSWORD") })

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Source.Password)
}

func TestQwenAPIKeyFallback(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)
	t.Setenv("QWEN_API_KEY", "sk-qwen")

	path := writeConfig(t, t.TempDir(), "")
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-qwen", cfg.LLM.APIKey)
}

func TestMergeSourceConfig(t *testing.T) {
	base := &SourceConfig{
		Type: "postgres", Host: "localhost", Port: 5432,
		Options: map[string]string{"sslmode": "disable"},
	}
	override := &SourceConfig{
		Host:    "db.prod",
		Options: map[string]string{"sslmode": "require"},
	}

	merged := MergeSourceConfig(base, override)
	assert.Equal(t, "postgres", merged.Type)
	assert.Equal(t, "db.prod", merged.Host)
	assert.Equal(t, 5432, merged.Port)
	assert.Equal(t, "require", merged.Options["sslmode"])

	assert.Same(t, base, MergeSourceConfig(base, nil))
	assert.Same(t, override, MergeSourceConfig(nil, override))
}
