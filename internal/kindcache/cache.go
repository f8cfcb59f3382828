// internal/kindcache/cache.go
//
// Cached kind list.
//
// Context
// -------
// Every harvest request starts by enumerating kinds and their mappings.
// The list changes only when an administrator saves a mapping or creates a
// kind, so it is held in memory for a TTL and dropped explicitly by the
// admin API after each write.
//
// Workflow
// --------
//  1. Kinds() returns the cached snapshot when present.
//  2. On a miss, concurrent callers collapse into one load through a
//     singleflight group.
//  3. A load that started before an Invalidate() is returned to its
//     callers but not stored, so a stale list never outlives the write.
//
// Notes
// -----
//   - Snapshots are shared; callers must not modify the returned slice.
//   - Oxford commas, two spaces after periods.
package kindcache

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/oaipmh/internal/catalog"
	"github.com/yanizio/oaipmh/internal/metrics"
)

// DefaultTTL applies when New receives a non-positive ttl.
const DefaultTTL = 5 * time.Minute

const key = "kinds"

// Cache is a catalog.KindSource that memoises another one.
type Cache struct {
	src catalog.KindSource
	mem *gocache.Cache
	sfg singleflight.Group
	gen atomic.Uint64
	log *zap.Logger
}

var _ catalog.KindSource = (*Cache)(nil)

// New wraps src.  A nil logger falls back to zap.L().
func New(src catalog.KindSource, ttl time.Duration, log *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.L()
	}
	return &Cache{
		src: src,
		mem: gocache.New(ttl, 2*ttl),
		log: log,
	}
}

// Kinds implements catalog.KindSource.
func (c *Cache) Kinds(ctx context.Context) ([]catalog.Kind, error) {
	if v, ok := c.mem.Get(key); ok {
		metrics.KindCacheHitsTotal.Inc()
		return v.([]catalog.Kind), nil
	}

	gen := c.gen.Load()
	v, err, _ := c.sfg.Do(key, func() (any, error) {
		// Double-check after singleflight barrier.
		if v, ok := c.mem.Get(key); ok {
			return v, nil
		}
		kinds, err := c.src.Kinds(context.WithoutCancel(ctx))
		if err != nil {
			metrics.KindCacheLoadErrorsTotal.Inc()
			c.log.Error("kind list load failed", zap.Error(err))
			return nil, err
		}
		metrics.KindCacheLoadTotal.Inc()
		if c.gen.Load() == gen {
			c.mem.SetDefault(key, kinds)
		}
		c.log.Debug("kind list loaded", zap.Int("kinds", len(kinds)))
		return kinds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]catalog.Kind), nil
}

// Invalidate drops the snapshot.  The next Kinds call reloads.
func (c *Cache) Invalidate() {
	c.gen.Add(1)
	c.mem.Delete(key)
	c.sfg.Forget(key)
}
