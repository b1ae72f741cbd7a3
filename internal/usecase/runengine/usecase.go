package runengine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Victor-armando18/service-promotions/internal/domain"
	"github.com/Victor-armando18/service-promotions/internal/domain/engine"
	"github.com/Victor-armando18/service-promotions/internal/interfaces"
)

const defaultConcurrency = 8

// UseCase evaluates a batch of carts against one rule set.
type UseCase struct {
	Engine *engine.Engine
	// Concurrency bounds the number of carts evaluated at once.
	Concurrency int
}

// Run returns one outcome per cart, in input order. A cart that fails to
// evaluate only fails its own outcome; the batch fails only when ctx is done.
func (u *UseCase) Run(ctx context.Context, carts []domain.Cart, rules *engine.RuleSet, asOf time.Time) ([]interfaces.BatchOutcome, error) {
	limit := u.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	outcomes := make([]interfaces.BatchOutcome, len(carts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range carts {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := u.Engine.Evaluate(carts[i], rules, asOf)
			outcomes[i] = interfaces.BatchOutcome{CartID: carts[i].ID, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
