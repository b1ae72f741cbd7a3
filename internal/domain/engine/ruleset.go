package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Victor-armando18/service-promotions/internal/domain"
)

type compiledRule struct {
	rule domain.PromotionRule
	// match is nil for rules without a condition.
	match matcher
	// err holds the rule's InvalidRuleError, reported on every evaluation.
	err error
}

func (c *compiledRule) eligible(in *evalInput) (bool, error) {
	if c.match == nil {
		return true, nil
	}
	return c.match(in)
}

// RuleSet is an immutable, compiled snapshot of promotion rules, ordered by
// priority then id. It is safe for concurrent use.
type RuleSet struct {
	version string
	rules   []*compiledRule
}

// Version is the rule pack version the set was compiled from.
func (s *RuleSet) Version() string {
	if s == nil {
		return ""
	}
	return s.version
}

// Len returns the number of rules, malformed ones included.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Rules returns the rules in evaluation order.
func (s *RuleSet) Rules() []domain.PromotionRule {
	if s == nil {
		return nil
	}
	out := make([]domain.PromotionRule, len(s.rules))
	for i, c := range s.rules {
		out[i] = c.rule
	}
	return out
}

// Errors returns the compile failures of malformed rules.
func (s *RuleSet) Errors() []error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, c := range s.rules {
		if c.err != nil {
			errs = append(errs, c.err)
		}
	}
	return errs
}

// Compile validates and compiles rules into a RuleSet. Only systemic problems
// (missing or duplicate ids) fail the call; a malformed rule is kept and
// surfaces as a diagnostic whenever the set is evaluated.
func (e *Engine) Compile(version string, rules []domain.PromotionRule) (*RuleSet, error) {
	seen := make(map[string]struct{}, len(rules))
	compiled := make([]*compiledRule, 0, len(rules))
	for idx, rule := range rules {
		id := strings.TrimSpace(rule.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: rule at index %d", domain.ErrEmptyRuleID, idx)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateRuleID, id)
		}
		seen[id] = struct{}{}
		compiled = append(compiled, e.compileRule(rule))
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return rulePrecedes(compiled[i].rule, compiled[j].rule)
	})
	return &RuleSet{version: version, rules: compiled}, nil
}

func (e *Engine) compileRule(rule domain.PromotionRule) *compiledRule {
	c := &compiledRule{rule: rule}
	if rule.Malformed != nil {
		c.err = asInvalidRule(rule.ID, rule.Malformed)
		return c
	}
	switch rule.Combinability {
	case "":
		c.rule.Combinability = domain.Exclusive
	case domain.Exclusive, domain.Stackable:
	default:
		c.err = &domain.InvalidRuleError{RuleID: rule.ID, Reason: fmt.Sprintf("unknown combinability %q", rule.Combinability)}
		return c
	}
	if invertedWindow(rule) {
		c.err = &domain.InvalidRuleError{RuleID: rule.ID, Reason: "validity window starts after it ends"}
		return c
	}
	if err := validateEffect(rule.ID, rule.Effect); err != nil {
		c.err = err
		return c
	}
	if rule.Condition != nil {
		m, err := e.compileCondition(rule.ID, rule.Condition)
		if err != nil {
			c.err = err
			return c
		}
		c.match = m
	}
	return c
}

func invertedWindow(rule domain.PromotionRule) bool {
	return !rule.ValidFrom.IsZero() && !rule.ValidUntil.IsZero() && rule.ValidFrom.After(rule.ValidUntil)
}

func asInvalidRule(ruleID string, err error) error {
	var invalid *domain.InvalidRuleError
	if errors.As(err, &invalid) {
		return invalid
	}
	return &domain.InvalidRuleError{RuleID: ruleID, Reason: err.Error()}
}
