package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Victor-armando18/service-promotions/internal/domain"
)

// Engine evaluates carts against compiled rule sets. It holds no mutable
// state and may be shared between goroutines.
type Engine struct {
	compilers map[string]ExpressionCompiler
}

// Option customises an Engine.
type Option func(*Engine)

// WithExpressionCompiler registers the compiler for one expression language.
func WithExpressionCompiler(c ExpressionCompiler) Option {
	return func(e *Engine) {
		e.compilers[c.Language()] = c
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{compilers: make(map[string]ExpressionCompiler)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate decides which rules of set apply to cart at asOf. Only a malformed
// cart or a failing mandatory rule aborts; any other per-rule failure becomes
// a diagnostic.
func (e *Engine) Evaluate(cart domain.Cart, set *RuleSet, asOf time.Time) (*EvaluationResult, error) {
	if err := cart.Validate(); err != nil {
		return nil, err
	}
	scale, _ := domain.CurrencyScale(cart.Currency)

	in := newEvalInput(cart)
	fresh := newBalance(cart, scale)
	result := &EvaluationResult{
		CartID:       cart.ID,
		Currency:     cart.Currency,
		RulesVersion: set.Version(),
		AsOf:         asOf.UTC(),
		Subtotal:     in.subtotal,
		Applied:      []domain.AppliedDiscount{},
		Diagnostics:  []Diagnostic{},
		Trace:        []TraceStep{},
	}

	var cands []candidate
	if set != nil {
		for _, c := range set.rules {
			rule := c.rule
			// An inverted window is never active, so it is reported below
			// instead of being filtered out here.
			if !invertedWindow(rule) && !rule.ActiveAt(asOf) {
				result.trace(Validity, rule.ID, "outside validity window")
				continue
			}
			if c.err != nil {
				if rule.Mandatory {
					return nil, c.err
				}
				result.diagnose(Compile, rule.ID, c.err)
				continue
			}

			ok, err := c.eligible(in)
			if err != nil {
				if rule.Mandatory {
					return nil, err
				}
				result.diagnose(Eligibility, rule.ID, err)
				continue
			}
			if !ok {
				result.trace(Eligibility, rule.ID, "condition not met")
				continue
			}

			discount, amount, err := applyEffect(rule, cart, fresh)
			if err != nil {
				if rule.Mandatory {
					return nil, err
				}
				result.diagnose(Effect, rule.ID, err)
				continue
			}
			result.trace(Effect, rule.ID, fmt.Sprintf("%s candidate worth %s", rule.Combinability, amount.String()))
			cands = append(cands, candidate{rule: rule, discount: discount, amount: amount})
		}
	}

	res := resolve(cands, fresh)
	for _, applied := range res.applied {
		result.trace(Resolution, applied.RuleID, fmt.Sprintf("applied %s, %s off", applied.Discount.Kind, applied.Amount.String()))
	}
	for _, s := range res.superseded {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			RuleID:  s.ruleID,
			Phase:   Resolution,
			Reason:  ReasonSuperseded,
			Message: s.message(),
		})
	}

	result.Applied = append(result.Applied, res.applied...)
	result.Total = res.total
	result.DiscountTotal = in.subtotal.Sub(res.total)
	return result, nil
}

// Eligible evaluates a single rule's condition against cart. Validity windows
// are not considered.
func (e *Engine) Eligible(rule domain.PromotionRule, cart domain.Cart) (bool, error) {
	c := e.compileRule(rule)
	if c.err != nil {
		return false, c.err
	}
	return c.eligible(newEvalInput(cart))
}

// Apply computes the discount a single rule would give on the undiscounted
// cart, regardless of its condition.
func (e *Engine) Apply(rule domain.PromotionRule, cart domain.Cart) (domain.Discount, decimal.Decimal, error) {
	if err := validateEffect(rule.ID, rule.Effect); err != nil {
		return domain.Discount{}, decimal.Zero, err
	}
	scale, err := domain.CurrencyScale(cart.Currency)
	if err != nil {
		return domain.Discount{}, decimal.Zero, &domain.InvalidCartError{Field: "currency", Reason: err.Error()}
	}
	return applyEffect(rule, cart, newBalance(cart, scale))
}
