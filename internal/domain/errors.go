package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRule marks malformed condition or effect data.
	ErrInvalidRule = errors.New("promotions: invalid rule")
	// ErrEffectComputation marks an effect that cannot be computed for the cart.
	ErrEffectComputation = errors.New("promotions: effect computation failed")
	// ErrInvalidCart marks a structurally malformed cart; it aborts the evaluation.
	ErrInvalidCart = errors.New("promotions: invalid cart")
	// ErrEmptyRuleID is returned when compiling a rule without an id.
	ErrEmptyRuleID = errors.New("promotions: rule id is required")
	// ErrDuplicateRuleID is returned when two rules of a set share an id.
	ErrDuplicateRuleID = errors.New("promotions: duplicate rule id")
	// ErrRulePackNotFound is returned by loaders when no pack matches a version.
	ErrRulePackNotFound = errors.New("promotions: rule pack not found")
)

// InvalidRuleError reports malformed rule data.
type InvalidRuleError struct {
	RuleID string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("%s: rule %q: %s", ErrInvalidRule, e.RuleID, e.Reason)
}

func (e *InvalidRuleError) Is(target error) bool { return target == ErrInvalidRule }

// EffectComputationError reports an effect that references something the cart lacks.
type EffectComputationError struct {
	RuleID string
	Reason string
}

func (e *EffectComputationError) Error() string {
	return fmt.Sprintf("%s: rule %q: %s", ErrEffectComputation, e.RuleID, e.Reason)
}

func (e *EffectComputationError) Is(target error) bool { return target == ErrEffectComputation }

// InvalidCartError reports the first malformed cart field found.
type InvalidCartError struct {
	Field  string
	Reason string
}

func (e *InvalidCartError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidCart, e.Field, e.Reason)
}

func (e *InvalidCartError) Is(target error) bool { return target == ErrInvalidCart }

func fieldIndex(collection string, idx int, field string) string {
	return fmt.Sprintf("%s[%d].%s", collection, idx, field)
}
