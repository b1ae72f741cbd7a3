package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Victor-armando18/service-promotions/internal/domain"
)

var hundred = decimal.NewFromInt(100)

func validateEffect(ruleID string, eff domain.Effect) error {
	invalid := func(format string, args ...any) error {
		return &domain.InvalidRuleError{RuleID: ruleID, Reason: fmt.Sprintf(format, args...)}
	}
	if eff.Magnitude.IsNegative() {
		return invalid("effect magnitude cannot be negative")
	}
	switch eff.Kind {
	case domain.Percentage:
		if eff.Magnitude.GreaterThan(hundred) {
			return invalid("percentage cannot exceed 100")
		}
	case domain.FixedAmount:
		if eff.Currency != "" {
			if _, err := domain.CurrencyScale(eff.Currency); err != nil {
				return invalid("effect currency: %v", err)
			}
		}
	case domain.FreeItem:
		if strings.TrimSpace(eff.Target) == "" {
			return invalid("free_item requires a target product")
		}
		if !eff.Magnitude.IsInteger() {
			return invalid("free_item magnitude must be a whole number of units")
		}
	case "":
		return invalid("effect kind is required")
	default:
		return invalid("unknown effect kind %q", eff.Kind)
	}
	return nil
}

// balance tracks what is left to discount during one resolution pass: the
// running cart total and the remaining cost of every line.
type balance struct {
	scale int32
	cart  decimal.Decimal
	lines map[string]decimal.Decimal
	items map[string]domain.LineItem
}

func newBalance(cart domain.Cart, scale int32) *balance {
	b := &balance{
		scale: scale,
		cart:  cart.Subtotal(),
		lines: make(map[string]decimal.Decimal, len(cart.Items)),
		items: make(map[string]domain.LineItem, len(cart.Items)),
	}
	for _, item := range cart.Items {
		b.lines[item.ProductID] = item.Total()
		b.items[item.ProductID] = item
	}
	return b
}

func (b *balance) clone() *balance {
	c := &balance{
		scale: b.scale,
		cart:  b.cart,
		lines: make(map[string]decimal.Decimal, len(b.lines)),
		items: b.items,
	}
	for k, v := range b.lines {
		c.lines[k] = v
	}
	return c
}

// amountFor computes what eff would take off the current balance, rounded to
// the currency scale and clamped so neither the line nor the cart goes below
// zero. It does not modify the balance.
func (b *balance) amountFor(eff domain.Effect) decimal.Decimal {
	base := b.cart
	if eff.Target != "" {
		base = decimal.Min(b.lines[eff.Target], b.cart)
	}
	if !base.IsPositive() {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch eff.Kind {
	case domain.Percentage:
		amount = base.Mul(eff.Magnitude).Div(hundred)
	case domain.FixedAmount:
		amount = eff.Magnitude
	case domain.FreeItem:
		item := b.items[eff.Target]
		units := decimal.Min(eff.Magnitude, decimal.NewFromInt(int64(item.Quantity)))
		amount = item.UnitPrice.Mul(units)
	}

	amount = amount.Round(b.scale)
	if amount.GreaterThan(base) {
		amount = base
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount
}

func (b *balance) take(eff domain.Effect, amount decimal.Decimal) {
	b.cart = b.cart.Sub(amount)
	if eff.Target != "" {
		b.lines[eff.Target] = b.lines[eff.Target].Sub(amount)
	}
}

// applyEffect computes the candidate discount of an eligible rule against the
// pre-discount balance.
func applyEffect(rule domain.PromotionRule, cart domain.Cart, fresh *balance) (domain.Discount, decimal.Decimal, error) {
	eff := rule.Effect
	if eff.Target != "" {
		if _, ok := cart.Item(eff.Target); !ok {
			return domain.Discount{}, decimal.Zero, &domain.EffectComputationError{
				RuleID: rule.ID,
				Reason: fmt.Sprintf("target line item %q is not in the cart", eff.Target),
			}
		}
	}
	if eff.Kind == domain.FixedAmount && eff.Currency != "" && !strings.EqualFold(eff.Currency, cart.Currency) {
		return domain.Discount{}, decimal.Zero, &domain.EffectComputationError{
			RuleID: rule.ID,
			Reason: fmt.Sprintf("effect currency %s does not match cart currency %s", eff.Currency, cart.Currency),
		}
	}
	discount := domain.Discount{Kind: eff.Kind, Target: eff.Target, Magnitude: eff.Magnitude}
	return discount, fresh.amountFor(eff), nil
}
