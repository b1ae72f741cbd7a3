package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/service-promotions/internal/domain"
)

func candidateFor(t *testing.T, rule domain.PromotionRule, fresh *balance) candidate {
	t.Helper()
	discount, amount, err := applyEffect(rule, testCart(), fresh)
	require.NoError(t, err)
	return candidate{rule: rule, discount: discount, amount: amount}
}

func TestResolve(t *testing.T) {
	fresh := newBalance(testCart(), 2)

	t.Run("no candidates keeps the subtotal", func(t *testing.T) {
		res := resolve(nil, fresh)
		assert.Empty(t, res.applied)
		requireDecimal(t, "100", res.total)
	})

	t.Run("only one exclusive survives", func(t *testing.T) {
		cands := []candidate{
			candidateFor(t, fixedRule("small", 5, 0, domain.Exclusive), fresh),
			candidateFor(t, percentRule("large", 25, 9, domain.Exclusive), fresh),
			candidateFor(t, fixedRule("medium", 20, 1, domain.Exclusive), fresh),
		}
		res := resolve(cands, fresh)
		require.Len(t, res.applied, 1)
		assert.Equal(t, "large", res.applied[0].RuleID)
		assert.Equal(t, []supersededRule{
			{ruleID: "medium", winner: "large"},
			{ruleID: "small", winner: "large"},
		}, res.superseded)
		requireDecimal(t, "75", res.total)
	})

	t.Run("stackables drain the running total", func(t *testing.T) {
		cands := []candidate{
			candidateFor(t, fixedRule("sixty", 60, 1, domain.Stackable), fresh),
			candidateFor(t, fixedRule("fifty", 50, 2, domain.Stackable), fresh),
		}
		res := resolve(cands, fresh)
		require.Len(t, res.applied, 2)
		requireDecimal(t, "60", res.applied[0].Amount)
		requireDecimal(t, "40", res.applied[1].Amount)
		requireDecimal(t, "0", res.total)
	})

	t.Run("the starting balance is left untouched", func(t *testing.T) {
		requireDecimal(t, "100", fresh.cart)
		requireDecimal(t, "60", fresh.lines["SKU-A"])
	})
}

func TestValidateEffect(t *testing.T) {
	testCases := []struct {
		name  string
		eff   domain.Effect
		valid bool
	}{
		{name: "percentage", eff: domain.Effect{Kind: domain.Percentage, Magnitude: decimal.NewFromInt(100)}, valid: true},
		{name: "percentage over 100", eff: domain.Effect{Kind: domain.Percentage, Magnitude: decimal.NewFromInt(101)}},
		{name: "negative", eff: domain.Effect{Kind: domain.FixedAmount, Magnitude: decimal.NewFromInt(-1)}},
		{name: "fixed amount", eff: domain.Effect{Kind: domain.FixedAmount, Magnitude: decimal.NewFromInt(5), Currency: "EUR"}, valid: true},
		{name: "fixed amount with bad currency", eff: domain.Effect{Kind: domain.FixedAmount, Magnitude: decimal.NewFromInt(5), Currency: "EURO"}},
		{name: "free item", eff: domain.Effect{Kind: domain.FreeItem, Target: "SKU-A", Magnitude: decimal.NewFromInt(1)}, valid: true},
		{name: "free item without target", eff: domain.Effect{Kind: domain.FreeItem, Magnitude: decimal.NewFromInt(1)}},
		{name: "fractional free item", eff: domain.Effect{Kind: domain.FreeItem, Target: "SKU-A", Magnitude: decimal.RequireFromString("1.5")}},
		{name: "missing kind", eff: domain.Effect{Magnitude: decimal.NewFromInt(1)}},
		{name: "unknown kind", eff: domain.Effect{Kind: "buy_one_get_one", Magnitude: decimal.NewFromInt(1)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateEffect("r", tc.eff)
			if tc.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, domain.ErrInvalidRule)
		})
	}
}
