package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RulePack is a versioned set of rule definitions as stored on disk.
type RulePack struct {
	Version     string           `json:"version" yaml:"version"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Rules       []RuleDefinition `json:"rules" yaml:"rules"`
}

// RuleDefinition is the wire form of a PromotionRule. ValidFrom and ValidUntil
// hold RFC 3339 timestamps or plain dates.
type RuleDefinition struct {
	ID            string         `json:"id" yaml:"id"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	Priority      int            `json:"priority" yaml:"priority"`
	Combinability string         `json:"combinability,omitempty" yaml:"combinability,omitempty"`
	Mandatory     bool           `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`
	ValidFrom     string         `json:"validFrom,omitempty" yaml:"validFrom,omitempty"`
	ValidUntil    string         `json:"validUntil,omitempty" yaml:"validUntil,omitempty"`
	Condition     *ConditionSpec `json:"condition,omitempty" yaml:"condition,omitempty"`
	Effect        EffectSpec     `json:"effect" yaml:"effect"`
}

// ConditionSpec is a condition node tagged by Type. Only the fields relevant to
// the type are read.
type ConditionSpec struct {
	Type       string           `json:"type" yaml:"type"`
	Conditions []ConditionSpec  `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Condition  *ConditionSpec   `json:"condition,omitempty" yaml:"condition,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty" yaml:"amount,omitempty"`
	ProductID  string           `json:"productId,omitempty" yaml:"productId,omitempty"`
	Quantity   int              `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Values     []string         `json:"values,omitempty" yaml:"values,omitempty"`
	Logic      any              `json:"logic,omitempty" yaml:"logic,omitempty"`
	Expression string           `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// EffectSpec is the wire form of an Effect.
type EffectSpec struct {
	Kind      string          `json:"kind" yaml:"kind"`
	Target    string          `json:"target,omitempty" yaml:"target,omitempty"`
	Magnitude decimal.Decimal `json:"magnitude" yaml:"magnitude"`
	Currency  string          `json:"currency,omitempty" yaml:"currency,omitempty"`
}

// Condition type tags used in rule packs.
const (
	ConditionAll           = "all"
	ConditionAny           = "any"
	ConditionNot           = "not"
	ConditionMinSubtotal   = "min_subtotal"
	ConditionHasItem       = "has_item"
	ConditionMinQuantity   = "min_quantity"
	ConditionCustomerTier  = "customer_tier"
	ConditionPaymentMethod = "payment_method"
)

// PromotionRules converts every definition. A definition that cannot be
// decoded still yields a rule, carrying the failure in Malformed, so that the
// engine reports it instead of silently dropping it.
func (p RulePack) PromotionRules() []PromotionRule {
	rules := make([]PromotionRule, 0, len(p.Rules))
	for _, def := range p.Rules {
		rule, err := def.ToRule()
		if err != nil {
			rule.Malformed = err
		}
		rules = append(rules, rule)
	}
	return rules
}

// ToRule decodes the definition. The returned rule always carries the
// identity fields, even on error.
func (d RuleDefinition) ToRule() (PromotionRule, error) {
	rule := PromotionRule{
		ID:          strings.TrimSpace(d.ID),
		Description: d.Description,
		Priority:    d.Priority,
		Mandatory:   d.Mandatory,
		Effect: Effect{
			Kind:      DiscountKind(strings.ToLower(strings.TrimSpace(d.Effect.Kind))),
			Target:    strings.TrimSpace(d.Effect.Target),
			Magnitude: d.Effect.Magnitude,
			Currency:  strings.ToUpper(strings.TrimSpace(d.Effect.Currency)),
		},
	}
	switch c := Combinability(strings.ToLower(strings.TrimSpace(d.Combinability))); c {
	case "":
		rule.Combinability = Exclusive
	default:
		rule.Combinability = c
	}

	var err error
	if rule.ValidFrom, err = parseBound("validFrom", d.ValidFrom, false); err != nil {
		return rule, &InvalidRuleError{RuleID: rule.ID, Reason: err.Error()}
	}
	if rule.ValidUntil, err = parseBound("validUntil", d.ValidUntil, true); err != nil {
		return rule, &InvalidRuleError{RuleID: rule.ID, Reason: err.Error()}
	}

	if d.Condition != nil {
		cond, err := d.Condition.Build()
		if err != nil {
			return rule, &InvalidRuleError{RuleID: rule.ID, Reason: err.Error()}
		}
		rule.Condition = cond
	}
	return rule, nil
}

// parseBound reads a validity bound. A plain date as the upper bound covers
// the whole day.
func parseBound(field, value string, upper bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q is neither an RFC 3339 timestamp nor a date", field, value)
	}
	if upper {
		day = day.Add(24*time.Hour - time.Nanosecond)
	}
	return day, nil
}

// Build turns s into a condition tree.
func (s ConditionSpec) Build() (Condition, error) {
	switch strings.ToLower(strings.TrimSpace(s.Type)) {
	case ConditionAll:
		children, err := buildAll(s.Conditions)
		if err != nil {
			return nil, err
		}
		return All{Conditions: children}, nil
	case ConditionAny:
		children, err := buildAll(s.Conditions)
		if err != nil {
			return nil, err
		}
		return Any{Conditions: children}, nil
	case ConditionNot:
		if s.Condition == nil {
			return Not{}, nil
		}
		child, err := s.Condition.Build()
		if err != nil {
			return nil, err
		}
		return Not{Condition: child}, nil
	case ConditionMinSubtotal:
		if s.Amount == nil {
			return nil, fmt.Errorf("%s requires amount", ConditionMinSubtotal)
		}
		return MinSubtotal{Amount: *s.Amount}, nil
	case ConditionHasItem:
		return HasItem{ProductID: strings.TrimSpace(s.ProductID), MinQuantity: s.Quantity}, nil
	case ConditionMinQuantity:
		return MinQuantity{Quantity: s.Quantity}, nil
	case ConditionCustomerTier:
		return CustomerTier{Tiers: s.Values}, nil
	case ConditionPaymentMethod:
		return PaymentMethod{Methods: s.Values}, nil
	case LanguageJSONLogic:
		return Expression{Language: LanguageJSONLogic, Source: s.Logic}, nil
	case LanguageExpr:
		return Expression{Language: LanguageExpr, Source: s.Expression}, nil
	case "":
		return nil, fmt.Errorf("condition type is required")
	default:
		return nil, fmt.Errorf("unknown condition type %q", s.Type)
	}
}

func buildAll(specs []ConditionSpec) ([]Condition, error) {
	out := make([]Condition, 0, len(specs))
	for _, spec := range specs {
		c, err := spec.Build()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
