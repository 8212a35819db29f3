// Package hazard converts live hazard records into edge-cost penalties.
//
// A hazard influences every road segment that passes within the influence
// radius of its location. The contribution decays linearly with distance:
//
//	penalty = severity × scale × (1 − d / radius)   for d < radius
//	penalty = 0                                    otherwise
//
// where d is the distance in metres from the hazard to the nearest point of
// the segment. Contributions of multiple hazards sum. Lookups go through a
// quadtree keyed on hazard coordinates, so the work per edge is proportional
// to the hazards near it rather than to the total hazard count.
package hazard

import (
	"fmt"
	"math"
	"sort"

	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/couchcryptid/hazard-route-engine/internal/geograph"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
)

// Defaults for the cost model.
const (
	DefaultRadiusMeters = 500.0
	DefaultScale        = 1.0
)

var worldBound = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// Model holds the cost-model parameters. The zero value disables penalties.
type Model struct {
	// RadiusMeters is the influence radius of a single hazard.
	RadiusMeters float64
	// Scale multiplies every contribution.
	Scale float64
}

// DefaultModel returns the model used when nothing is configured.
func DefaultModel() Model {
	return Model{RadiusMeters: DefaultRadiusMeters, Scale: DefaultScale}
}

// Decay returns the weight of a hazard at distance d metres: 1 at the hazard,
// falling linearly to 0 at the radius boundary and beyond.
func (m Model) Decay(d float64) float64 {
	if m.RadiusMeters <= 0 || d >= m.RadiusMeters {
		return 0
	}
	if d < 0 {
		d = 0
	}
	return 1 - d/m.RadiusMeters
}

// Contribution returns the penalty a single hazard adds at distance d.
func (m Model) Contribution(h domain.Hazard, d float64) float64 {
	return h.ClampedSeverity() * m.Scale * m.Decay(d)
}

// indexed tags a hazard with its position in the request so sums are
// accumulated in a stable order.
type indexed struct {
	domain.Hazard
	seq int
}

// Index is a request-scoped spatial index over hazard records. It memoises
// per-edge penalties and is not safe for concurrent use.
type Index struct {
	model Model
	tree  *quadtree.Quadtree
	count int
	memo  map[int]float64
}

// NewIndex builds an index over hazards. Coordinates outside WGS-84 range
// fail with domain.ErrMalformedInput.
func (m Model) NewIndex(hazards []domain.Hazard) (*Index, error) {
	ix := &Index{
		model: m,
		tree:  quadtree.New(worldBound),
		count: len(hazards),
		memo:  make(map[int]float64),
	}
	for i, h := range hazards {
		if !domain.ValidCoordinate(h.Lat, h.Lon) {
			return nil, fmt.Errorf("%w: hazard %q has invalid coordinates (%g, %g)", domain.ErrMalformedInput, h.ID, h.Lat, h.Lon)
		}
		if err := ix.tree.Add(indexed{Hazard: h, seq: i}); err != nil {
			return nil, fmt.Errorf("%w: index hazard %q: %w", domain.ErrMalformedInput, h.ID, err)
		}
	}
	return ix, nil
}

// Len returns the number of indexed hazards.
func (ix *Index) Len() int { return ix.count }

// Penalty returns the non-negative cost addend for the arc. Both directions
// of a two-way road share one memoised value.
func (ix *Index) Penalty(arc geograph.Arc) float64 {
	if p, ok := ix.memo[arc.Edge]; ok {
		return p
	}
	a, b := arc.Segment()
	p := ix.SegmentPenalty(a, b)
	ix.memo[arc.Edge] = p
	return p
}

// SegmentPenalty returns the summed contribution of all hazards within the
// influence radius of segment a–b.
func (ix *Index) SegmentPenalty(a, b orb.Point) float64 {
	if ix.count == 0 || ix.model.RadiusMeters <= 0 {
		return 0
	}

	// Pad slightly so hazards right at the boundary are not lost to the
	// bound approximation; the exact distance check below filters them.
	pad := ix.model.RadiusMeters * 1.01
	bound := geo.NewBoundAroundPoint(a, pad).Union(geo.NewBoundAroundPoint(b, pad))

	found := ix.tree.InBound(nil, bound)
	if len(found) == 0 {
		return 0
	}
	near := make([]indexed, 0, len(found))
	for _, p := range found {
		near = append(near, p.(indexed))
	}
	sort.Slice(near, func(i, j int) bool { return near[i].seq < near[j].seq })

	var total float64
	for _, h := range near {
		d := DistanceToSegment(h.Point(), a, b)
		total += ix.model.Contribution(h.Hazard, d)
	}
	return total
}

// DistanceToSegment returns the distance in metres from p to the nearest point
// of segment a–b, using an equirectangular projection centred on p. The
// projection is accurate at the scale of an influence radius.
func DistanceToSegment(p, a, b orb.Point) float64 {
	pa := project(p, a)
	pb := project(p, b)
	return planar.DistanceFromSegment(pa, pb, orb.Point{0, 0})
}

func project(origin, p orb.Point) orb.Point {
	const rad = math.Pi / 180
	x := (p[0] - origin[0]) * rad * math.Cos(origin[1]*rad) * orb.EarthRadius
	y := (p[1] - origin[1]) * rad * orb.EarthRadius
	return orb.Point{x, y}
}
