package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://html.duckduckgo.com/html/", cfg.Search.BaseURL)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 3, cfg.Search.Retries)
	assert.InDelta(t, 0.5, cfg.Search.RatePerSec, 0.001)
	assert.Equal(t, "https://api.peopledatalabs.com", cfg.Enrich.BaseURL)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.AI.HaikuModel)
	assert.Equal(t, 15, cfg.AI.TimeoutSecs)
	assert.Equal(t, 24, cfg.AI.CacheTTLHours)
	assert.Equal(t, 40, cfg.Scoring.RegistryWeight)
	assert.Equal(t, 10, cfg.Scoring.EmailWeight)
	assert.Equal(t, 15, cfg.Scoring.HRWeight)
	assert.Equal(t, 10, cfg.Scoring.OptionalWeight)
	assert.InDelta(t, 60, cfg.Scoring.VerifiedThreshold, 0.001)
	assert.InDelta(t, 70, cfg.Scoring.ApprovalThreshold, 0.001)
	assert.InDelta(t, 40, cfg.Scoring.ReviewThreshold, 0.001)
	assert.Equal(t, 70, cfg.Scoring.NameMatchThreshold)
	assert.Equal(t, 60, cfg.Scoring.StrictIDNameThreshold)
	assert.Equal(t, 80, cfg.Scoring.AssociationEntityThreshold)
	assert.InDelta(t, 75, cfg.Scoring.AssociationPairThreshold, 0.001)
	assert.Equal(t, "reports", cfg.Report.Dir)
	assert.Equal(t, "verification_log.xlsx", cfg.Report.XLSXPath)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/legit
log:
  level: debug
  format: console
server:
  port: 9090
scoring:
  registry_weight: 50
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Scoring.RegistryWeight)
	// Defaults still apply for unset values
	assert.Equal(t, 10, cfg.Scoring.EmailWeight)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEGIT_STORE_DRIVER", "postgres")
	t.Setenv("LEGIT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestCollectAIKeys(t *testing.T) {
	t.Setenv("LEGIT_AI_KEY_2", "k2")
	t.Setenv("LEGIT_AI_KEY_3", "")
	t.Setenv("LEGIT_AI_KEY_4", "k4")

	keys := CollectAIKeys(AIConfig{Key: "k1"})
	assert.Equal(t, []string{"k1", "k2", "k4"}, keys)
}

func TestCollectAIKeysNoPrimary(t *testing.T) {
	t.Setenv("LEGIT_AI_KEY_2", "k2")

	keys := CollectAIKeys(AIConfig{})
	assert.Equal(t, []string{"k2"}, keys)
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shout", Format: "json"})
	assert.Error(t, err)
}
