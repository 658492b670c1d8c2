package harvest

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"OAIHealthCheck/internal/domain"
	"OAIHealthCheck/internal/metrics"
)

// Key identifies a cached harvest.
type Key struct {
	Endpoint string
	Limit    int
}

func (k Key) String() string {
	return fmt.Sprintf("%d@%s", k.Limit, k.Endpoint)
}

// Cache is a caller-owned, single-slot harvest cache. Storing a sample
// under a new key replaces the previous one; failed harvests are never stored.
type Cache struct {
	mu      sync.Mutex
	key     Key
	sample  domain.Sample
	filled  bool
	group   singleflight.Group
	flights map[Key]*flight
	gen     uint64
}

// flight is one shared harvest. Its context is cancelled only once every
// waiting caller has given up.
type flight struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{flights: map[Key]*flight{}}
}

// Get returns the sample stored under key.
func (c *Cache) Get(key Key) (domain.Sample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.filled || c.key != key {
		return domain.Sample{}, false
	}
	return c.sample, true
}

// Current returns whatever sample is stored.
func (c *Cache) Current() (domain.Sample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sample, c.filled
}

// Invalidate empties the cache.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sample = domain.Sample{}
	c.key = Key{}
	c.filled = false
}

// Do returns the cached sample for key or runs fn once, sharing its result
// with concurrent callers of the same key. cached reports a hit.
//
// fn runs under a context detached from any single caller: a caller whose
// ctx ends gets ctx.Err() back while the others keep waiting, and fn's
// context is cancelled only when no caller is left.
func (c *Cache) Do(ctx context.Context, key Key, fn func(context.Context) (domain.Sample, error)) (sample domain.Sample, cached bool, err error) {
	if s, ok := c.Get(key); ok {
		metrics.HarvestCacheTotal.WithLabelValues("hit").Inc()
		return s, true, nil
	}
	metrics.HarvestCacheTotal.WithLabelValues("miss").Inc()

	f := c.join(ctx, key)
	ch := c.group.DoChan(f.id, func() (any, error) {
		s, err := fn(f.ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.key, c.sample, c.filled = key, s, true
		c.mu.Unlock()
		return s, nil
	})

	select {
	case res := <-ch:
		c.leave(key, f)
		if res.Err != nil {
			return domain.Sample{}, false, res.Err
		}
		return res.Val.(domain.Sample), false, nil
	case <-ctx.Done():
		c.leave(key, f)
		return domain.Sample{}, false, ctx.Err()
	}
}

func (c *Cache) join(ctx context.Context, key Key) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flights[key]
	if !ok {
		c.gen++
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{id: fmt.Sprintf("%s#%d", key, c.gen), ctx: fctx, cancel: cancel}
		c.flights[key] = f
	}
	f.waiters++
	return f
}

func (c *Cache) leave(key Key, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flights[key] == f {
		delete(c.flights, key)
	}
}
