package engine

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Victor-armando18/service-promotions/internal/domain"
)

// ReasonCode classifies a diagnostic.
type ReasonCode string

const (
	ReasonInvalidRule       ReasonCode = "invalid_rule"
	ReasonEffectComputation ReasonCode = "effect_computation"
	ReasonSuperseded        ReasonCode = "superseded"
)

// Diagnostic records a rule that was skipped or failed without aborting the
// evaluation.
type Diagnostic struct {
	RuleID  string        `json:"ruleId"`
	Phase   PipelinePhase `json:"phase"`
	Reason  ReasonCode    `json:"reason"`
	Message string        `json:"message"`
}

// TraceStep is one audit entry of the path an evaluation took.
type TraceStep struct {
	Phase   PipelinePhase `json:"phase"`
	RuleID  string        `json:"ruleId"`
	Message string        `json:"message"`
}

// EvaluationResult is produced fresh for every evaluation and owned by the
// caller.
type EvaluationResult struct {
	CartID        string                   `json:"cartId"`
	Currency      string                   `json:"currency"`
	RulesVersion  string                   `json:"rulesVersion,omitempty"`
	AsOf          time.Time                `json:"asOf"`
	Subtotal      decimal.Decimal          `json:"subtotal"`
	DiscountTotal decimal.Decimal          `json:"discountTotal"`
	Total         decimal.Decimal          `json:"total"`
	Applied       []domain.AppliedDiscount `json:"applied"`
	Diagnostics   []Diagnostic             `json:"diagnostics"`
	Trace         []TraceStep              `json:"trace"`
}

// AppliedRuleIDs lists the rules that fired, in application order.
func (r *EvaluationResult) AppliedRuleIDs() []string {
	ids := make([]string, len(r.Applied))
	for i, a := range r.Applied {
		ids[i] = a.RuleID
	}
	return ids
}

func (r *EvaluationResult) trace(phase PipelinePhase, ruleID, message string) {
	r.Trace = append(r.Trace, TraceStep{Phase: phase, RuleID: ruleID, Message: message})
}

func (r *EvaluationResult) diagnose(phase PipelinePhase, ruleID string, err error) {
	reason := ReasonInvalidRule
	if errors.Is(err, domain.ErrEffectComputation) {
		reason = ReasonEffectComputation
	}
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		RuleID:  ruleID,
		Phase:   phase,
		Reason:  reason,
		Message: err.Error(),
	})
}
