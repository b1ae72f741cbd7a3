package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/service-promotions/internal/domain"
)

const v1Pack = `{
  "rules": [
    {
      "id": "ten-off",
      "combinability": "stackable",
      "condition": {"type": "min_subtotal", "amount": "50"},
      "effect": {"kind": "percentage", "magnitude": 10}
    }
  ]
}`

const v2Pack = `
version: v1.10.0
description: autumn campaign
rules:
  - id: gold-five
    priority: 1
    validFrom: 2025-09-01T00:00:00Z
    condition:
      type: customer_tier
      values: [gold]
    effect:
      kind: fixed_amount
      magnitude: "5.00"
      currency: EUR
`

func writeRules(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestFileRuleLoader_Load(t *testing.T) {
	dir := writeRules(t, map[string]string{
		"v1.2.0_rules.json":  v1Pack,
		"v1.10.0_rules.yaml": v2Pack,
		"notes.txt":          "ignored",
		"draft_rules.json":   v1Pack,
	})
	loader := NewFileRuleLoader(dir)
	ctx := context.Background()

	t.Run("bare version is normalised", func(t *testing.T) {
		pack, err := loader.Load(ctx, "1.2.0")
		require.NoError(t, err)
		assert.Equal(t, "v1.2.0", pack.Version)
		require.Len(t, pack.Rules, 1)
		assert.True(t, pack.Rules[0].Effect.Magnitude.Equal(decimal.NewFromInt(10)))
	})

	t.Run("latest picks the highest semver", func(t *testing.T) {
		pack, err := loader.Load(ctx, "latest")
		require.NoError(t, err)
		assert.Equal(t, "v1.10.0", pack.Version)
		assert.Equal(t, "autumn campaign", pack.Description)

		rules := pack.PromotionRules()
		require.Len(t, rules, 1)
		require.NoError(t, rules[0].Malformed)
		assert.Equal(t, domain.Exclusive, rules[0].Combinability)
		assert.Equal(t, "EUR", rules[0].Effect.Currency)
		assert.False(t, rules[0].ValidFrom.IsZero())
	})

	t.Run("missing version", func(t *testing.T) {
		_, err := loader.Load(ctx, "v9.9.9")
		require.ErrorIs(t, err, domain.ErrRulePackNotFound)
	})

	t.Run("versions are sorted by semver", func(t *testing.T) {
		versions, err := loader.Versions(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"v1.2.0", "v1.10.0"}, versions)
	})
}

func TestFileRuleLoader_EmptyDir(t *testing.T) {
	_, err := NewFileRuleLoader(t.TempDir()).Load(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrRulePackNotFound)
}

func TestDecodeRulePackJSON_Schema(t *testing.T) {
	testCases := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{name: "valid", doc: v1Pack},
		{name: "rules missing", doc: `{"version": "v1"}`, wantErr: true},
		{name: "rule without id", doc: `{"rules": [{"effect": {"kind": "percentage", "magnitude": 1}}]}`, wantErr: true},
		{name: "condition without type", doc: `{"rules": [{"id": "a", "condition": {}, "effect": {"kind": "percentage", "magnitude": 1}}]}`, wantErr: true},
		{name: "magnitude is not a number", doc: `{"rules": [{"id": "a", "effect": {"kind": "percentage", "magnitude": "ten"}}]}`, wantErr: true},
		{
			name: "unknown condition type is left to the engine",
			doc:  `{"rules": [{"id": "a", "condition": {"type": "weekday"}, "effect": {"kind": "percentage", "magnitude": 1}}]}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeRulePackJSON([]byte(tc.doc))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDecodeRulePackJSON_DateOnlyBounds(t *testing.T) {
	pack, err := DecodeRulePackJSON([]byte(`{"rules": [
		{"id": "valid", "effect": {"kind": "percentage", "magnitude": 10}},
		{"id": "june", "validFrom": "2025-06-01", "validUntil": "2025-06-30", "effect": {"kind": "percentage", "magnitude": 5}},
		{"id": "nonsense", "validFrom": "soon", "effect": {"kind": "percentage", "magnitude": 5}}
	]}`))
	require.NoError(t, err)

	rules := pack.PromotionRules()
	require.Len(t, rules, 3)
	require.NoError(t, rules[0].Malformed)
	require.NoError(t, rules[1].Malformed)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), rules[1].ValidFrom)
	require.ErrorIs(t, rules[2].Malformed, domain.ErrInvalidRule)
}

func TestNormalizeVersion(t *testing.T) {
	assert.Equal(t, "latest", NormalizeVersion(""))
	assert.Equal(t, "latest", NormalizeVersion("LATEST"))
	assert.Equal(t, "v1.0", NormalizeVersion("1.0"))
	assert.Equal(t, "v2", NormalizeVersion(" v2 "))
}

type countingLoader struct {
	loads int
}

func (c *countingLoader) Load(_ context.Context, version string) (*domain.RulePack, error) {
	c.loads++
	return &domain.RulePack{Version: version}, nil
}

func (c *countingLoader) Versions(context.Context) ([]string, error) {
	return []string{"v1"}, nil
}

func TestCachedLoader(t *testing.T) {
	next := &countingLoader{}
	loader := NewCachedLoader(next, time.Minute)
	ctx := context.Background()

	for n := 0; n < 3; n++ {
		pack, err := loader.Load(ctx, "1.0")
		require.NoError(t, err)
		assert.Equal(t, "v1.0", pack.Version)
	}
	assert.Equal(t, 1, next.loads)

	_, err := loader.Load(ctx, "latest")
	require.NoError(t, err)
	_, err = loader.Load(ctx, "latest")
	require.NoError(t, err)
	assert.Equal(t, 3, next.loads)

	loader.Forget("v1.0")
	_, err = loader.Load(ctx, "v1.0")
	require.NoError(t, err)
	assert.Equal(t, 4, next.loads)
}

func TestCachedLoader_ZeroTTLDisablesCaching(t *testing.T) {
	next := &countingLoader{}
	loader := NewCachedLoader(next, 0)
	ctx := context.Background()

	for n := 0; n < 3; n++ {
		_, err := loader.Load(ctx, "v1.0")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, next.loads)
	loader.Forget("v1.0")
}
