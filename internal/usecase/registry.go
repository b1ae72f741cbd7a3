package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Victor-armando18/service-promotions/internal/domain"
	"github.com/Victor-armando18/service-promotions/internal/domain/engine"
	"github.com/Victor-armando18/service-promotions/internal/infrastructure/diff"
	"github.com/Victor-armando18/service-promotions/internal/platform/logging"
)

// Snapshot is one published, compiled rule pack. Snapshots are never modified
// after publication.
type Snapshot struct {
	Pack     *domain.RulePack
	Rules    *engine.RuleSet
	LoadedAt time.Time
}

type Differ interface {
	Diff(before, after *domain.RulePack) (diff.Delta, error)
}

// Registry holds the active snapshot. Readers never block; a publish swaps the
// whole snapshot so that in-flight evaluations keep the one they started with.
type Registry struct {
	current atomic.Pointer[Snapshot]
	differ  Differ
}

func NewRegistry(differ Differ) *Registry {
	if differ == nil {
		differ = &diff.Differ{}
	}
	return &Registry{differ: differ}
}

// Current returns the active snapshot, or nil before the first publish.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Publish activates snap and returns how its rules differ from the previous
// snapshot.
func (r *Registry) Publish(ctx context.Context, snap *Snapshot) diff.Delta {
	prev := r.current.Swap(snap)

	var before *domain.RulePack
	fields := []zap.Field{zap.String("version", snap.Pack.Version), zap.Int("rules", snap.Rules.Len())}
	if prev != nil {
		before = prev.Pack
		fields = append(fields, zap.String("previousVersion", prev.Pack.Version))
	}

	logger := logging.FromContext(ctx)
	delta, err := r.differ.Diff(before, snap.Pack)
	if err != nil {
		logger.Warn("rule pack diff failed", append(fields, zap.Error(err))...)
		return diff.Delta{}
	}

	changed := make([]string, len(delta.Changed))
	for i, c := range delta.Changed {
		changed[i] = c.ID
	}
	logger.Info("rule pack published", append(fields,
		zap.Strings("added", delta.Added),
		zap.Strings("removed", delta.Removed),
		zap.Strings("changed", changed),
	)...)
	return delta
}
