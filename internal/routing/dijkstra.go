// Package routing computes hazard-weighted shortest paths over a geograph.Graph.
//
// The solver is Dijkstra's algorithm with a lazy-deletion binary heap. Edge
// weights are base cost plus a non-negative hazard penalty, so the
// non-negativity precondition always holds.
//
// Tie-breaking: the heap orders entries by (cost, insertion sequence) and a
// node's predecessor only changes on a strictly cheaper path. Among equal-cost
// paths the one discovered first under definition-order neighbor iteration
// wins, so identical requests produce identical paths.
package routing

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/couchcryptid/hazard-route-engine/internal/geograph"
)

// ctxCheckInterval is how many heap pops happen between context checks.
const ctxCheckInterval = 256

// CostModel supplies the hazard penalty for an arc. Penalties must be >= 0.
type CostModel interface {
	Penalty(arc geograph.Arc) float64
}

// noPenalty is used when the caller passes a nil CostModel.
type noPenalty struct{}

func (noPenalty) Penalty(geograph.Arc) float64 { return 0 }

// ShortestPath returns the minimum hazard-adjusted cost path from start to end.
//
// Errors:
//   - domain.ErrNodeNotFound if start or end is absent from g.
//   - domain.ErrUnreachable if no path exists.
//   - domain.ErrInternal if the cost model returns a negative or NaN penalty.
//   - the context error if ctx is done before the search finishes.
func ShortestPath(ctx context.Context, g *geograph.Graph, start, end domain.NodeID, costs CostModel) (domain.RouteResult, error) {
	if g == nil {
		return domain.RouteResult{}, fmt.Errorf("%w: graph is nil", domain.ErrInternal)
	}
	if !g.HasNode(start) {
		return domain.RouteResult{}, fmt.Errorf("%w: start node %q", domain.ErrNodeNotFound, start)
	}
	if !g.HasNode(end) {
		return domain.RouteResult{}, fmt.Errorf("%w: end node %q", domain.ErrNodeNotFound, end)
	}
	if costs == nil {
		costs = noPenalty{}
	}

	s := &search{
		ctx:   ctx,
		g:     g,
		costs: costs,
		dist:  map[domain.NodeID]float64{start: 0},
		prev:  make(map[domain.NodeID]step),
		done:  make(map[domain.NodeID]bool),
	}
	if err := s.run(start, end); err != nil {
		return domain.RouteResult{}, err
	}

	if _, ok := s.dist[end]; !ok {
		return domain.RouteResult{}, fmt.Errorf("%w: from %q to %q", domain.ErrUnreachable, start, end)
	}
	return s.result(start, end), nil
}

// step records how a node was reached on the current best path.
type step struct {
	from    domain.NodeID
	base    float64
	penalty float64
}

// search holds the mutable state of one shortest-path run.
type search struct {
	ctx     context.Context
	g       *geograph.Graph
	costs   CostModel
	dist    map[domain.NodeID]float64
	prev    map[domain.NodeID]step
	done    map[domain.NodeID]bool
	pq      entryPQ
	seq     uint64
	settled int
}

func (s *search) push(id domain.NodeID, cost float64) {
	heap.Push(&s.pq, &entry{id: id, cost: cost, seq: s.seq})
	s.seq++
}

func (s *search) run(start, end domain.NodeID) error {
	heap.Init(&s.pq)
	s.push(start, 0)

	for pops := 0; s.pq.Len() > 0; pops++ {
		if pops%ctxCheckInterval == 0 {
			if err := s.ctx.Err(); err != nil {
				return err
			}
		}

		cur := heap.Pop(&s.pq).(*entry)
		if s.done[cur.id] || cur.cost > s.dist[cur.id] {
			continue // stale entry
		}
		s.done[cur.id] = true
		s.settled++

		if cur.id == end {
			return nil
		}

		for arc := range s.g.Neighbors(cur.id) {
			if s.done[arc.To.ID] {
				continue
			}
			penalty := s.costs.Penalty(arc)
			if penalty < 0 || math.IsNaN(penalty) {
				return fmt.Errorf("%w: negative penalty %g on %s→%s", domain.ErrInternal, penalty, arc.From.ID, arc.To.ID)
			}
			next := cur.cost + arc.Cost + penalty
			if old, seen := s.dist[arc.To.ID]; seen && next >= old {
				continue
			}
			s.dist[arc.To.ID] = next
			s.prev[arc.To.ID] = step{from: cur.id, base: arc.Cost, penalty: penalty}
			s.push(arc.To.ID, next)
		}
	}
	return nil
}

// result walks predecessors back from end and accumulates the breakdown.
func (s *search) result(start, end domain.NodeID) domain.RouteResult {
	path := []domain.NodeID{end}
	var distance, penalty float64
	for cur := end; cur != start; {
		st := s.prev[cur]
		distance += st.base
		penalty += st.penalty
		path = append(path, st.from)
		cur = st.from
	}
	slices.Reverse(path)

	return domain.RouteResult{
		Path:          path,
		Cost:          s.dist[end],
		Distance:      distance,
		HazardPenalty: penalty,
		SafetyScore:   domain.SafetyScore(penalty, distance),
		Settled:       s.settled,
	}
}
