// Package engine is the public entry point for embedding promotion
// evaluation in another program.
package engine

import (
	"context"

	"github.com/Victor-armando18/service-promotions/internal/domain"
	core "github.com/Victor-armando18/service-promotions/internal/domain/engine"
)

type (
	Cart            = domain.Cart
	LineItem        = domain.LineItem
	PromotionRule   = domain.PromotionRule
	Effect          = domain.Effect
	Condition       = domain.Condition
	RulePack        = domain.RulePack
	RuleDefinition  = domain.RuleDefinition
	ConditionSpec   = domain.ConditionSpec
	EffectSpec      = domain.EffectSpec
	AppliedDiscount = domain.AppliedDiscount

	Engine           = core.Engine
	RuleSet          = core.RuleSet
	EvaluationResult = core.EvaluationResult
	Diagnostic       = core.Diagnostic
	TraceStep        = core.TraceStep
)

const (
	Exclusive = domain.Exclusive
	Stackable = domain.Stackable

	Percentage  = domain.Percentage
	FixedAmount = domain.FixedAmount
	FreeItem    = domain.FreeItem
)

var (
	ErrInvalidRule       = domain.ErrInvalidRule
	ErrEffectComputation = domain.ErrEffectComputation
	ErrInvalidCart       = domain.ErrInvalidCart
)

type RulePackLoader interface {
	Load(ctx context.Context, version string) (*RulePack, error)
}
