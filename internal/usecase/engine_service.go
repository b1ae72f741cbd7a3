package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Victor-armando18/service-promotions/internal/domain"
	"github.com/Victor-armando18/service-promotions/internal/domain/engine"
	"github.com/Victor-armando18/service-promotions/internal/infrastructure"
	"github.com/Victor-armando18/service-promotions/internal/interfaces"
	"github.com/Victor-armando18/service-promotions/internal/platform/logging"
	"github.com/Victor-armando18/service-promotions/internal/usecase/runengine"
)

var ErrNoRulesLoaded = interfaces.ErrNoRulesLoaded

type ServiceOption func(*EvaluationService)

// WithClock replaces time.Now as the source of the evaluation instant when a
// caller does not supply one.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *EvaluationService) { s.clock = clock }
}

func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *EvaluationService) { s.logger = logger }
}

func WithBatchConcurrency(n int) ServiceOption {
	return func(s *EvaluationService) { s.batch.Concurrency = n }
}

func WithRegistry(r *Registry) ServiceOption {
	return func(s *EvaluationService) { s.registry = r }
}

// EvaluationService evaluates carts against the currently published rule pack
// and manages reloading and patching of that pack.
type EvaluationService struct {
	loader   interfaces.RulePackLoader
	engine   *engine.Engine
	registry *Registry
	batch    *runengine.UseCase
	clock    func() time.Time
	logger   *zap.Logger

	// writeMu serialises publishers; readers go through the registry.
	writeMu sync.Mutex
}

var _ interfaces.EvaluationFacade = (*EvaluationService)(nil)

func NewEvaluationService(loader interfaces.RulePackLoader, e *engine.Engine, opts ...ServiceOption) *EvaluationService {
	s := &EvaluationService{
		loader:   loader,
		engine:   e,
		registry: NewRegistry(nil),
		batch:    &runengine.UseCase{Engine: e},
		clock:    time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EvaluationService) log(ctx context.Context) *zap.Logger {
	return logging.FromContextOr(ctx, s.logger)
}

// Reload loads version through the loader, compiles it and publishes it. On
// failure the active pack stays in place.
func (s *EvaluationService) Reload(ctx context.Context, version string) (*domain.RulePack, error) {
	pack, err := s.loader.Load(ctx, version)
	if err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.publish(ctx, pack); err != nil {
		return nil, err
	}
	return pack, nil
}

// PatchRules applies an RFC 6902 patch to a copy of the active pack and
// publishes the result.
func (s *EvaluationService) PatchRules(ctx context.Context, patch []byte) (*domain.RulePack, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap := s.registry.Current()
	if snap == nil {
		return nil, ErrNoRulesLoaded
	}
	pack, err := infrastructure.ApplyRulePackPatch(snap.Pack, patch)
	if err != nil {
		return nil, err
	}
	if err := s.publish(ctx, pack); err != nil {
		return nil, err
	}
	return pack, nil
}

func (s *EvaluationService) publish(ctx context.Context, pack *domain.RulePack) error {
	rules, err := s.engine.Compile(pack.Version, pack.PromotionRules())
	if err != nil {
		return fmt.Errorf("compile rule pack %s: %w", pack.Version, err)
	}

	logger := s.log(ctx)
	for _, err := range rules.Errors() {
		logger.Warn("malformed rule kept in pack", zap.String("version", pack.Version), zap.Error(err))
	}
	s.registry.Publish(logging.WithLogger(ctx, logger), &Snapshot{
		Pack:     pack,
		Rules:    rules,
		LoadedAt: s.clock().UTC(),
	})
	return nil
}

// CurrentPack returns the active pack, or nil before the first load.
func (s *EvaluationService) CurrentPack() *domain.RulePack {
	if snap := s.registry.Current(); snap != nil {
		return snap.Pack
	}
	return nil
}

// Evaluate evaluates cart against the active pack. A zero asOf means now.
func (s *EvaluationService) Evaluate(ctx context.Context, cart domain.Cart, asOf time.Time) (*engine.EvaluationResult, error) {
	snap := s.registry.Current()
	if snap == nil {
		return nil, ErrNoRulesLoaded
	}
	if asOf.IsZero() {
		asOf = s.clock()
	}

	logger := s.log(ctx).With(zap.String("cartId", cart.ID), zap.String("rulesVersion", snap.Pack.Version))
	res, err := s.engine.Evaluate(cart, snap.Rules, asOf)
	if err != nil {
		logger.Info("evaluation rejected", zap.Error(err))
		return nil, err
	}

	for _, d := range res.Diagnostics {
		if d.Reason == engine.ReasonSuperseded {
			continue
		}
		logger.Warn("rule skipped",
			zap.String("ruleId", d.RuleID),
			zap.String("phase", string(d.Phase)),
			zap.String("reason", string(d.Reason)),
			zap.String("message", d.Message),
		)
	}
	logger.Debug("cart evaluated",
		zap.Strings("applied", res.AppliedRuleIDs()),
		zap.String("subtotal", res.Subtotal.String()),
		zap.String("total", res.Total.String()),
	)
	return res, nil
}

// EvaluateBatch evaluates every cart against the same snapshot.
func (s *EvaluationService) EvaluateBatch(ctx context.Context, carts []domain.Cart, asOf time.Time) ([]interfaces.BatchOutcome, error) {
	snap := s.registry.Current()
	if snap == nil {
		return nil, ErrNoRulesLoaded
	}
	if asOf.IsZero() {
		asOf = s.clock()
	}

	start := time.Now()
	outcomes, err := s.batch.Run(ctx, carts, snap.Rules, asOf)
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	s.log(ctx).Info("batch evaluated",
		zap.Int("carts", len(carts)),
		zap.Int("failed", failed),
		zap.String("rulesVersion", snap.Pack.Version),
		zap.Duration("elapsed", time.Since(start)),
	)
	return outcomes, nil
}
