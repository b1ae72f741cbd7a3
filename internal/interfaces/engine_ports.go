package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/Victor-armando18/service-promotions/internal/domain"
	"github.com/Victor-armando18/service-promotions/internal/domain/engine"
)

// ErrNoRulesLoaded is returned by the facade before the first rule pack is
// published.
var ErrNoRulesLoaded = errors.New("no rule pack loaded")

// RulePackLoader loads rule packs by version (from disk, network, etc.).
// "latest" resolves to the newest available version.
type RulePackLoader interface {
	Load(ctx context.Context, version string) (*domain.RulePack, error)
	Versions(ctx context.Context) ([]string, error)
}

// EvaluationFacade is the entry point the outer layers (HTTP, CLI) talk to.
type EvaluationFacade interface {
	Evaluate(ctx context.Context, cart domain.Cart, asOf time.Time) (*engine.EvaluationResult, error)
	EvaluateBatch(ctx context.Context, carts []domain.Cart, asOf time.Time) ([]BatchOutcome, error)
	Reload(ctx context.Context, version string) (*domain.RulePack, error)
	PatchRules(ctx context.Context, patch []byte) (*domain.RulePack, error)
	CurrentPack() *domain.RulePack
}

// BatchOutcome is the result of one cart in a batch. Exactly one of Result and
// Err is set.
type BatchOutcome struct {
	CartID string
	Result *engine.EvaluationResult
	Err    error
}
