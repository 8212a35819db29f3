package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/couchcryptid/hazard-route-engine/internal/geograph"
	"github.com/couchcryptid/hazard-route-engine/internal/hazard"
	"github.com/couchcryptid/hazard-route-engine/internal/nearest"
	"github.com/couchcryptid/hazard-route-engine/internal/observability"
	"github.com/couchcryptid/hazard-route-engine/internal/routing"
)

// GraphSource yields the graph a request should run against.
type GraphSource interface {
	Graph() *geograph.Graph
}

type pinnedGraphKey struct{}

// withGraph pins g for handlers further down the chain.
func withGraph(ctx context.Context, g *geograph.Graph) context.Context {
	return context.WithValue(ctx, pinnedGraphKey{}, g)
}

// graphFor returns the graph pinned on ctx, or the current graph of src.
func graphFor(ctx context.Context, src GraphSource) *geograph.Graph {
	if g, ok := ctx.Value(pinnedGraphKey{}).(*geograph.Graph); ok && g != nil {
		return g
	}
	return src.Graph()
}

// Handler answers a typed request with a result or error document.
type Handler interface {
	Handle(ctx context.Context, req Request) Response
}

// Engine runs requests against the current graph. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	graphs  GraphSource
	model   hazard.Model
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewEngine creates an Engine. A zero timeout leaves the caller's context as is.
func NewEngine(graphs GraphSource, model hazard.Model, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		graphs:  graphs,
		model:   model,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Handle answers req. It never panics and never returns a partial document.
func (e *Engine) Handle(ctx context.Context, req Request) (resp Response) {
	if req == nil {
		return ErrorResponse("", fmt.Errorf("%w: empty request", domain.ErrMalformedInput))
	}
	op := req.Op()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("request panicked", "op", op, "panic", r)
			resp = ErrorResponse(op, fmt.Errorf("%w: %v", domain.ErrInternal, r))
		}
		e.observe(op, resp, time.Since(start))
	}()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	g := graphFor(ctx, e.graphs)
	if g == nil {
		return ErrorResponse(op, fmt.Errorf("%w: no graph loaded", domain.ErrLoad))
	}

	switch r := req.(type) {
	case RouteRequest:
		return e.route(ctx, g, r)
	case NearestRequest:
		res, err := nearest.Static(g, r.Lat, r.Lon)
		if err != nil {
			return ErrorResponse(op, err)
		}
		return NearestResponse(op, res)
	case DynamicNearestRequest:
		res, err := nearest.Dynamic(r.Lat, r.Lon, r.Candidates)
		if err != nil {
			return ErrorResponse(op, err)
		}
		return NearestResponse(op, res)
	default:
		return ErrorResponse(op, fmt.Errorf("%w: unsupported request type %T", domain.ErrMalformedInput, req))
	}
}

func (e *Engine) route(ctx context.Context, g *geograph.Graph, r RouteRequest) Response {
	e.metrics.HazardsPerRequest.Observe(float64(len(r.Hazards)))

	ix, err := e.model.NewIndex(r.Hazards)
	if err != nil {
		return ErrorResponse(OpRoute, err)
	}
	res, err := routing.ShortestPath(ctx, g, r.Start, r.End, ix)
	if err != nil {
		return ErrorResponse(OpRoute, err)
	}
	e.metrics.NodesSettled.Observe(float64(res.Settled))
	return RouteResponse(res)
}

func (e *Engine) observe(op Operation, resp Response, elapsed time.Duration) {
	e.metrics.Requests.WithLabelValues(string(op), resp.Status()).Inc()
	e.metrics.RequestDuration.WithLabelValues(string(op)).Observe(elapsed.Seconds())

	if resp.OK() {
		e.logger.Debug("request answered", "op", op, "duration", elapsed)
		return
	}
	e.metrics.Errors.WithLabelValues(string(resp.Err.Code)).Inc()
	level := slog.LevelDebug
	if resp.Err.Code == domain.CodeInternal || resp.Err.Code == domain.CodeLoad {
		level = slog.LevelWarn
	}
	e.logger.Log(context.Background(), level, "request failed",
		"op", op,
		"code", resp.Err.Code,
		"error", resp.Err.Message,
		"duration", elapsed,
	)
}
