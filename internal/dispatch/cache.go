package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/couchcryptid/hazard-route-engine/internal/geograph"
	"github.com/couchcryptid/hazard-route-engine/internal/observability"
)

// CachedEngine memoises responses of a Handler in a bounded LRU. Keys include
// the graph version, so a reloaded graph never serves results computed on the
// previous one. The graph the key was built from is pinned on the context
// for the wrapped handler. Internal errors (timeouts, panics) are not cached.
type CachedEngine struct {
	next    Handler
	graphs  GraphSource
	cache   *lru.Cache[string, Response]
	metrics *observability.Metrics
}

// NewCachedEngine wraps next with an LRU of the given size.
func NewCachedEngine(next Handler, graphs GraphSource, size int, metrics *observability.Metrics) (*CachedEngine, error) {
	cache, err := lru.New[string, Response](size)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &CachedEngine{next: next, graphs: graphs, cache: cache, metrics: metrics}, nil
}

// Handle answers req from the cache or delegates to the wrapped handler.
func (c *CachedEngine) Handle(ctx context.Context, req Request) Response {
	g := graphFor(ctx, c.graphs)
	key, ok := c.key(g, req)
	if !ok {
		return c.next.Handle(ctx, req)
	}
	ctx = withGraph(ctx, g)

	if resp, hit := c.cache.Get(key); hit {
		c.metrics.ResultCache.WithLabelValues("hit").Inc()
		return resp.clone()
	}
	c.metrics.ResultCache.WithLabelValues("miss").Inc()

	resp := c.next.Handle(ctx, req)
	if resp.OK() || (resp.Err.Code != domain.CodeInternal && resp.Err.Code != domain.CodeLoad) {
		c.cache.Add(key, resp.clone())
	}
	return resp
}

// Len returns the number of cached responses.
func (c *CachedEngine) Len() int { return c.cache.Len() }

// key derives the cache key from the graph version and the request. Requests
// against an unversioned or missing graph are not cached.
func (c *CachedEngine) key(g *geograph.Graph, req Request) (string, bool) {
	if req == nil {
		return "", false
	}
	if g == nil || g.Version() == "" {
		return "", false
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", false
	}
	return g.Version() + "/" + string(req.Op()) + "/" + string(body), true
}
