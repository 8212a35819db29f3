// Package nearest answers nearest-facility queries by great-circle distance,
// either against the graph's static facility set or against a caller-supplied
// candidate list. Equidistant facilities resolve to the smallest identifier.
package nearest

import (
	"fmt"

	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/couchcryptid/hazard-route-engine/internal/geograph"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// The exact-search bound is widened so a facility sitting at the seed radius
// survives the rectangular approximation of the search circle.
const (
	boundPadRatio  = 1.01
	boundPadMeters = 1.0
)

// Static returns the static facility closest to (lat, lon).
//
// A planar quadtree lookup seeds a search radius; only facilities inside the
// great-circle bound of that radius are compared exactly. A bound that wraps
// the antimeridian is searched as its eastern and western halves.
func Static(g *geograph.Graph, lat, lon float64) (domain.NearestResult, error) {
	if !domain.ValidCoordinate(lat, lon) {
		return domain.NearestResult{}, fmt.Errorf("%w: query coordinates (%g, %g)", domain.ErrMalformedInput, lat, lon)
	}
	q := orb.Point{lon, lat}

	seed, ok := g.PlanarNearestFacility(q)
	if !ok {
		return domain.NearestResult{}, fmt.Errorf("%w: graph has no static facilities", domain.ErrEmptyCandidateSet)
	}

	radius := geo.DistanceHaversine(q, seed.Point())*boundPadRatio + boundPadMeters
	var near []domain.Facility
	for _, b := range splitAntimeridian(geo.NewBoundAroundPoint(q, radius)) {
		near = append(near, g.FacilitiesInBound(b)...)
	}
	if len(near) == 0 {
		near = []domain.Facility{seed}
	}
	return closest(q, near), nil
}

// splitAntimeridian returns b unchanged, or as two bounds when it wraps
// across ±180° (geo.NewBoundAroundPoint reports that as Min lon > Max lon).
func splitAntimeridian(b orb.Bound) []orb.Bound {
	if b.Min[0] <= b.Max[0] {
		return []orb.Bound{b}
	}
	east, west := b, b
	east.Max[0] = 180
	west.Min[0] = -180
	return []orb.Bound{east, west}
}

// Dynamic returns the candidate closest to (lat, lon). Candidates without an
// ID are identified by name.
func Dynamic(lat, lon float64, candidates []domain.Facility) (domain.NearestResult, error) {
	if !domain.ValidCoordinate(lat, lon) {
		return domain.NearestResult{}, fmt.Errorf("%w: query coordinates (%g, %g)", domain.ErrMalformedInput, lat, lon)
	}
	if len(candidates) == 0 {
		return domain.NearestResult{}, fmt.Errorf("%w: no candidates supplied", domain.ErrEmptyCandidateSet)
	}

	normalized := make([]domain.Facility, len(candidates))
	for i, c := range candidates {
		if !domain.ValidCoordinate(c.Lat, c.Lon) {
			return domain.NearestResult{}, fmt.Errorf("%w: candidate %q has invalid coordinates (%g, %g)", domain.ErrMalformedInput, c.Name, c.Lat, c.Lon)
		}
		if c.ID == "" {
			c.ID = c.Name
		}
		normalized[i] = c
	}
	return closest(orb.Point{lon, lat}, normalized), nil
}

// closest scans fs and returns the minimum-distance facility. fs must be
// non-empty.
func closest(q orb.Point, fs []domain.Facility) domain.NearestResult {
	best := fs[0]
	bestDist := geo.DistanceHaversine(q, best.Point())
	for _, f := range fs[1:] {
		d := geo.DistanceHaversine(q, f.Point())
		if d < bestDist || (d == bestDist && domain.CompareIDs(f.ID, best.ID) < 0) {
			best, bestDist = f, d
		}
	}
	return domain.NearestResult{Facility: best, Distance: bestDist / 1000}
}
