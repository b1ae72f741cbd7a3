package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{
		LogLevel:         "info",
		HTTPAddr:         ":8080",
		RulesDir:         "data/rules",
		RulesVersion:     "latest",
		RulesTTL:         5 * time.Minute,
		BatchConcurrency: 8,
		PointsMethodID:   "PUNKTY",
	}, cfg)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("RULES_DIR", "/etc/promotions")
	t.Setenv("RULES_VERSION", "v2.1.0")
	t.Setenv("RULES_CACHE_TTL", "30s")
	t.Setenv("BATCH_CONCURRENCY", "2")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/etc/promotions", cfg.RulesDir)
	assert.Equal(t, "v2.1.0", cfg.RulesVersion)
	assert.Equal(t, 30*time.Second, cfg.RulesTTL)
	assert.Equal(t, 2, cfg.BatchConcurrency)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Setenv("BATCH_CONCURRENCY", "0")
	_, err := FromEnv()
	require.ErrorContains(t, err, "BATCH_CONCURRENCY")

	t.Setenv("BATCH_CONCURRENCY", "many")
	_, err = FromEnv()
	require.Error(t, err)
}

func TestFromEnv_ZeroTTLIsAllowed(t *testing.T) {
	t.Setenv("RULES_CACHE_TTL", "0s")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Zero(t, cfg.RulesTTL)

	t.Setenv("RULES_CACHE_TTL", "-1s")
	_, err = FromEnv()
	require.ErrorContains(t, err, "RULES_CACHE_TTL")
}
