// Package geograph is the in-memory road network and static facility store.
// Graphs are built once from a YAML definition and never mutated afterwards.
package geograph

import (
	"iter"
	"slices"

	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
)

// Arc is one traversable direction of a road. Both directions of a two-way
// road share the same Edge index.
type Arc struct {
	Edge int
	From domain.Node
	To   domain.Node
	// Cost is the immutable base traversal cost.
	Cost float64
}

// Segment returns the arc geometry in [lon, lat] order.
func (a Arc) Segment() (orb.Point, orb.Point) {
	return a.From.Point(), a.To.Point()
}

// Stats summarises a loaded graph.
type Stats struct {
	Nodes      int
	Edges      int
	Arcs       int
	Facilities int
}

// Graph is the read-only road network and static facility set. It exposes no
// mutation API, so a single *Graph can serve concurrent requests.
type Graph struct {
	nodes      map[domain.NodeID]domain.Node
	order      []domain.NodeID
	adj        map[domain.NodeID][]Arc
	edges      int
	arcs       int
	facilities []domain.Facility
	facIndex   *quadtree.Quadtree
	version    string
}

// Node returns the node with the given identifier.
func (g *Graph) Node(id domain.NodeID) (domain.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether id is part of the graph.
func (g *Graph) HasNode(id domain.NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// NodeIDs returns all node identifiers in definition order.
func (g *Graph) NodeIDs() []domain.NodeID {
	return slices.Clone(g.order)
}

// Neighbors yields the outgoing arcs of id in definition order. The order is
// stable across calls, which keeps shortest-path tie-breaking reproducible.
func (g *Graph) Neighbors(id domain.NodeID) iter.Seq[Arc] {
	arcs := g.adj[id]
	return func(yield func(Arc) bool) {
		for _, a := range arcs {
			if !yield(a) {
				return
			}
		}
	}
}

// Facilities returns a copy of the static facility set in definition order.
func (g *Graph) Facilities() []domain.Facility {
	return slices.Clone(g.facilities)
}

// PlanarNearestFacility returns the facility closest to p in planar degree
// space. It is a seed for exact great-circle search, not a final answer.
func (g *Graph) PlanarNearestFacility(p orb.Point) (domain.Facility, bool) {
	if len(g.facilities) == 0 {
		return domain.Facility{}, false
	}
	found := g.facIndex.Find(p)
	if found == nil {
		return domain.Facility{}, false
	}
	f, ok := found.(domain.Facility)
	return f, ok
}

// FacilitiesInBound returns the static facilities located inside b.
func (g *Graph) FacilitiesInBound(b orb.Bound) []domain.Facility {
	if len(g.facilities) == 0 {
		return nil
	}
	pointers := g.facIndex.InBound(nil, b)
	out := make([]domain.Facility, 0, len(pointers))
	for _, p := range pointers {
		if f, ok := p.(domain.Facility); ok {
			out = append(out, f)
		}
	}
	return out
}

// Version is a content hash of the definition the graph was built from.
func (g *Graph) Version() string { return g.version }

// Stats returns node, edge, arc and facility counts.
func (g *Graph) Stats() Stats {
	return Stats{
		Nodes:      len(g.nodes),
		Edges:      g.edges,
		Arcs:       g.arcs,
		Facilities: len(g.facilities),
	}
}
