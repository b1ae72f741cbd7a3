package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Victor-armando18/service-promotions/internal/domain"
	"github.com/Victor-armando18/service-promotions/internal/domain/model"
)

// matcher is a compiled condition node.
type matcher func(in *evalInput) (bool, error)

// evalInput is the per-evaluation view of a cart shared by every rule.
type evalInput struct {
	cart     domain.Cart
	subtotal decimal.Decimal
	quantity int
	facts    map[string]any
}

func newEvalInput(cart domain.Cart) *evalInput {
	return &evalInput{
		cart:     cart,
		subtotal: cart.Subtotal(),
		quantity: cart.TotalQuantity(),
	}
}

func (in *evalInput) Facts() map[string]any {
	if in.facts == nil {
		in.facts = model.Facts(in.cart)
	}
	return in.facts
}

// compileCondition validates the whole tree up front, so short-circuiting at
// evaluation time can never hide a malformed branch.
func (e *Engine) compileCondition(ruleID string, c domain.Condition) (matcher, error) {
	invalid := func(format string, args ...any) error {
		return &domain.InvalidRuleError{RuleID: ruleID, Reason: fmt.Sprintf(format, args...)}
	}

	switch n := c.(type) {
	case nil:
		return nil, invalid("condition node is nil")

	case domain.All:
		if len(n.Conditions) == 0 {
			return nil, invalid("all requires at least one condition")
		}
		children, err := e.compileChildren(ruleID, n.Conditions)
		if err != nil {
			return nil, err
		}
		return func(in *evalInput) (bool, error) {
			for _, child := range children {
				ok, err := child(in)
				if err != nil || !ok {
					return false, err
				}
			}
			return true, nil
		}, nil

	case domain.Any:
		if len(n.Conditions) == 0 {
			return nil, invalid("any requires at least one condition")
		}
		children, err := e.compileChildren(ruleID, n.Conditions)
		if err != nil {
			return nil, err
		}
		return func(in *evalInput) (bool, error) {
			for _, child := range children {
				ok, err := child(in)
				if err != nil {
					return false, err
				}
				if ok {
					return true, nil
				}
			}
			return false, nil
		}, nil

	case domain.Not:
		child, err := e.compileCondition(ruleID, n.Condition)
		if err != nil {
			return nil, err
		}
		return func(in *evalInput) (bool, error) {
			ok, err := child(in)
			return !ok, err
		}, nil

	case domain.MinSubtotal:
		if n.Amount.IsNegative() {
			return nil, invalid("min_subtotal amount cannot be negative")
		}
		return func(in *evalInput) (bool, error) {
			return in.subtotal.GreaterThanOrEqual(n.Amount), nil
		}, nil

	case domain.HasItem:
		if strings.TrimSpace(n.ProductID) == "" {
			return nil, invalid("has_item requires a product id")
		}
		if n.MinQuantity < 0 {
			return nil, invalid("has_item quantity cannot be negative")
		}
		minQty := max(n.MinQuantity, 1)
		return func(in *evalInput) (bool, error) {
			item, ok := in.cart.Item(n.ProductID)
			return ok && item.Quantity >= minQty, nil
		}, nil

	case domain.MinQuantity:
		if n.Quantity < 0 {
			return nil, invalid("min_quantity cannot be negative")
		}
		return func(in *evalInput) (bool, error) {
			return in.quantity >= n.Quantity, nil
		}, nil

	case domain.CustomerTier:
		tiers, err := normalizedSet(n.Tiers)
		if err != nil {
			return nil, invalid("customer_tier: %v", err)
		}
		return func(in *evalInput) (bool, error) {
			_, ok := tiers[strings.ToLower(strings.TrimSpace(in.cart.CustomerTier))]
			return ok, nil
		}, nil

	case domain.PaymentMethod:
		methods, err := normalizedSet(n.Methods)
		if err != nil {
			return nil, invalid("payment_method: %v", err)
		}
		return func(in *evalInput) (bool, error) {
			_, ok := methods[strings.ToLower(strings.TrimSpace(in.cart.PaymentMethod))]
			return ok, nil
		}, nil

	case domain.Expression:
		compiler, ok := e.compilers[n.Language]
		if !ok {
			return nil, invalid("unsupported expression language %q", n.Language)
		}
		predicate, err := compiler.Compile(n.Source)
		if err != nil {
			return nil, invalid("%s: %v", n.Language, err)
		}
		return func(in *evalInput) (bool, error) {
			ok, err := predicate.Eval(in.Facts())
			if err != nil {
				return false, invalid("%s: %v", n.Language, err)
			}
			return ok, nil
		}, nil

	default:
		return nil, invalid("unsupported condition node %T", c)
	}
}

func (e *Engine) compileChildren(ruleID string, conds []domain.Condition) ([]matcher, error) {
	out := make([]matcher, 0, len(conds))
	for _, c := range conds {
		m, err := e.compileCondition(ruleID, c)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func normalizedSet(values []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("at least one value is required")
	}
	return set, nil
}
