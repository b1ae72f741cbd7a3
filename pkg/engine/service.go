package engine

import (
	"context"
	"fmt"
	"time"
)

// EvaluatePack compiles pack and evaluates cart against it. Callers that
// evaluate many carts should compile once with Engine.Compile instead.
func EvaluatePack(pack *RulePack, cart Cart, asOf time.Time) (*EvaluationResult, error) {
	e := New()
	set, err := e.Compile(pack.Version, pack.PromotionRules())
	if err != nil {
		return nil, err
	}
	return e.Evaluate(cart, set, asOf)
}

// EngineService evaluates carts against rule packs fetched by version.
type EngineService struct {
	loader RulePackLoader
}

func NewEngineService(l RulePackLoader) *EngineService {
	return &EngineService{loader: l}
}

func (s *EngineService) Evaluate(ctx context.Context, cart Cart, version string, asOf time.Time) (*EvaluationResult, error) {
	// "1.2" and "v1.2" name the same pack; "latest" is left to the loader.
	if version != "" && version[0] >= '0' && version[0] <= '9' {
		version = "v" + version
	}
	pack, err := s.loader.Load(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("load rule pack %q: %w", version, err)
	}
	return EvaluatePack(pack, cart, asOf)
}
