package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/service-promotions/internal/domain"
)

type predicateFunc func(facts map[string]any) (bool, error)

func (f predicateFunc) Eval(facts map[string]any) (bool, error) { return f(facts) }

// stubCompiler understands a handful of literal sources.
type stubCompiler struct {
	calls int
}

func (s *stubCompiler) Language() string { return "stub" }

func (s *stubCompiler) Compile(source any) (Predicate, error) {
	switch source {
	case "true":
		return predicateFunc(func(map[string]any) (bool, error) {
			s.calls++
			return true, nil
		}), nil
	case "false":
		return predicateFunc(func(map[string]any) (bool, error) {
			s.calls++
			return false, nil
		}), nil
	case "boom":
		return predicateFunc(func(map[string]any) (bool, error) {
			s.calls++
			return false, errors.New("division by zero")
		}), nil
	case "big-cart":
		return predicateFunc(func(facts map[string]any) (bool, error) {
			s.calls++
			cart := facts["cart"].(map[string]any)
			return cart["subtotal"].(float64) >= 100, nil
		}), nil
	default:
		return nil, errors.New("syntax error")
	}
}

func stub(src string) domain.Expression {
	return domain.Expression{Language: "stub", Source: src}
}

func TestCompileCondition_Evaluates(t *testing.T) {
	cart := testCart()
	cart.CustomerTier = "Gold"
	cart.PaymentMethod = "card"

	testCases := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{name: "min subtotal met", cond: domain.MinSubtotal{Amount: decimal.NewFromInt(100)}, want: true},
		{name: "min subtotal missed", cond: domain.MinSubtotal{Amount: decimal.RequireFromString("100.01")}, want: false},
		{name: "has item", cond: domain.HasItem{ProductID: "SKU-A"}, want: true},
		{name: "has item with quantity", cond: domain.HasItem{ProductID: "SKU-A", MinQuantity: 3}, want: false},
		{name: "has missing item", cond: domain.HasItem{ProductID: "SKU-Z"}, want: false},
		{name: "min quantity", cond: domain.MinQuantity{Quantity: 3}, want: true},
		{name: "min quantity missed", cond: domain.MinQuantity{Quantity: 4}, want: false},
		{name: "tier is case insensitive", cond: domain.CustomerTier{Tiers: []string{"gold", "platinum"}}, want: true},
		{name: "tier mismatch", cond: domain.CustomerTier{Tiers: []string{"silver"}}, want: false},
		{name: "payment method", cond: domain.PaymentMethod{Methods: []string{"CARD"}}, want: true},
		{name: "payment method mismatch", cond: domain.PaymentMethod{Methods: []string{"points"}}, want: false},
		{name: "not", cond: domain.Not{Condition: domain.HasItem{ProductID: "SKU-Z"}}, want: true},
		{
			name: "all",
			cond: domain.All{Conditions: []domain.Condition{
				domain.HasItem{ProductID: "SKU-A"},
				domain.MinQuantity{Quantity: 2},
			}},
			want: true,
		},
		{
			name: "any",
			cond: domain.Any{Conditions: []domain.Condition{
				domain.HasItem{ProductID: "SKU-Z"},
				domain.CustomerTier{Tiers: []string{"gold"}},
			}},
			want: true,
		},
		{name: "expression over facts", cond: stub("big-cart"), want: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := New(WithExpressionCompiler(&stubCompiler{}))
			m, err := e.compileCondition("r", tc.cond)
			require.NoError(t, err)
			got, err := m(newEvalInput(cart))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompileCondition_RejectsMalformedNodes(t *testing.T) {
	testCases := []struct {
		name string
		cond domain.Condition
	}{
		{name: "nil", cond: nil},
		{name: "empty all", cond: domain.All{}},
		{name: "empty any", cond: domain.Any{}},
		{name: "not without child", cond: domain.Not{}},
		{name: "negative subtotal", cond: domain.MinSubtotal{Amount: decimal.NewFromInt(-1)}},
		{name: "blank product", cond: domain.HasItem{ProductID: "  "}},
		{name: "negative item quantity", cond: domain.HasItem{ProductID: "SKU-A", MinQuantity: -2}},
		{name: "negative quantity", cond: domain.MinQuantity{Quantity: -1}},
		{name: "no tiers", cond: domain.CustomerTier{Tiers: []string{" "}}},
		{name: "no methods", cond: domain.PaymentMethod{}},
		{name: "unknown language", cond: domain.Expression{Language: "lua", Source: "true"}},
		{name: "expression does not compile", cond: stub("(((")},
		{
			name: "malformed branch behind a short circuit",
			cond: domain.Any{Conditions: []domain.Condition{
				domain.MinQuantity{Quantity: 0},
				domain.MinSubtotal{Amount: decimal.NewFromInt(-5)},
			}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := New(WithExpressionCompiler(&stubCompiler{}))
			_, err := e.compileCondition("broken", tc.cond)
			require.ErrorIs(t, err, domain.ErrInvalidRule)

			var invalid *domain.InvalidRuleError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, "broken", invalid.RuleID)
		})
	}
}

func TestCompileCondition_ShortCircuits(t *testing.T) {
	compiler := &stubCompiler{}
	e := New(WithExpressionCompiler(compiler))

	all, err := e.compileCondition("r", domain.All{Conditions: []domain.Condition{stub("false"), stub("boom")}})
	require.NoError(t, err)
	ok, err := all(newEvalInput(testCart()))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, compiler.calls)

	anyOf, err := e.compileCondition("r", domain.Any{Conditions: []domain.Condition{stub("true"), stub("boom")}})
	require.NoError(t, err)
	ok, err = anyOf(newEvalInput(testCart()))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, compiler.calls)
}

func TestEvaluate_ExpressionRuntimeErrorIsDiagnosed(t *testing.T) {
	e := New(WithExpressionCompiler(&stubCompiler{}))
	rule := percentRule("flaky", 10, 1, domain.Stackable)
	rule.Condition = stub("boom")

	set, err := e.Compile("v", []domain.PromotionRule{rule, percentRule("ok", 5, 2, domain.Stackable)})
	require.NoError(t, err)
	res, err := e.Evaluate(testCart(), set, asOf)
	require.NoError(t, err)

	require.Equal(t, []string{"ok"}, res.AppliedRuleIDs())
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, Eligibility, res.Diagnostics[0].Phase)
	assert.Equal(t, ReasonInvalidRule, res.Diagnostics[0].Reason)
	assert.Contains(t, res.Diagnostics[0].Message, "division by zero")
}

func TestEvaluate_ConditionNotMetIsTraced(t *testing.T) {
	rule := percentRule("gold-only", 10, 1, domain.Stackable)
	rule.Condition = domain.CustomerTier{Tiers: []string{"gold"}}

	res := evaluate(t, New(), testCart(), rule)
	assert.Empty(t, res.Applied)
	assert.Empty(t, res.Diagnostics)
	require.Len(t, res.Trace, 1)
	assert.Equal(t, TraceStep{Phase: Eligibility, RuleID: "gold-only", Message: "condition not met"}, res.Trace[0])
}
