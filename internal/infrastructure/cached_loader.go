package infrastructure

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Victor-armando18/service-promotions/internal/domain"
	"github.com/Victor-armando18/service-promotions/internal/interfaces"
)

// CachedLoader keeps loaded rule packs in memory for a while. Only explicit
// versions are cached; "latest" and version listings always reach the wrapped
// loader so that newly published packs are picked up. Callers must not modify
// the returned packs.
type CachedLoader struct {
	next  interfaces.RulePackLoader
	packs *cache.Cache
}

// NewCachedLoader caches packs loaded by next for ttl. A ttl of zero or less
// disables caching; go-cache would otherwise keep entries forever.
func NewCachedLoader(next interfaces.RulePackLoader, ttl time.Duration) *CachedLoader {
	c := &CachedLoader{next: next}
	if ttl > 0 {
		c.packs = cache.New(ttl, 2*ttl)
	}
	return c
}

func (c *CachedLoader) cacheable(version string) bool {
	return c.packs != nil && version != LatestVersion
}

func (c *CachedLoader) Load(ctx context.Context, version string) (*domain.RulePack, error) {
	version = NormalizeVersion(version)
	if c.cacheable(version) {
		if pack, ok := c.packs.Get(version); ok {
			return pack.(*domain.RulePack), nil
		}
	}
	pack, err := c.next.Load(ctx, version)
	if err != nil {
		return nil, err
	}
	if c.cacheable(version) {
		c.packs.Set(version, pack, cache.DefaultExpiration)
	}
	return pack, nil
}

func (c *CachedLoader) Versions(ctx context.Context) ([]string, error) {
	return c.next.Versions(ctx)
}

// Forget drops a cached version.
func (c *CachedLoader) Forget(version string) {
	if c.packs == nil {
		return
	}
	c.packs.Delete(NormalizeVersion(version))
}
