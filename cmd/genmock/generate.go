package main

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/couchcryptid/hazard-route-engine/internal/dispatch"
	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/couchcryptid/hazard-route-engine/internal/geograph"
	"github.com/paulmach/orb/geo"
)

type params struct {
	Size       int
	Spacing    float64
	OriginLat  float64
	OriginLon  float64
	Facilities int
	Requests   int
	MaxHazards int
	Seed       uint64
}

func (p params) validate() error {
	switch {
	case p.Size < 2:
		return errors.New("size must be at least 2")
	case p.Spacing <= 0:
		return errors.New("spacing must be positive")
	case p.Facilities < 0 || p.Requests < 0 || p.MaxHazards < 0:
		return errors.New("counts must be non-negative")
	case !domain.ValidCoordinate(p.OriginLat, p.OriginLon):
		return errors.New("origin is not a valid coordinate")
	case !domain.ValidCoordinate(p.OriginLat+float64(p.Size-1)*p.Spacing, p.OriginLon+float64(p.Size-1)*p.Spacing):
		return errors.New("grid extends past valid coordinates")
	}
	return nil
}

var facilityTypes = []string{"Emergency", "Security", "Fire"}

var hazardTypes = []string{"traffic", "protest", "construction", "flood"}

type generator struct {
	p   params
	rng *rand.Rand
}

func newGenerator(p params) *generator {
	return &generator{p: p, rng: rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))}
}

func nodeID(row, col, size int) geograph.ID {
	return geograph.ID(strconv.Itoa(row*size + col + 1))
}

func (g *generator) coord(row, col int) (lat, lon float64) {
	return round6(g.p.OriginLat + float64(row)*g.p.Spacing), round6(g.p.OriginLon + float64(col)*g.p.Spacing)
}

// grid builds a size×size lattice with right and up neighbors connected.
// Each edge costs its great-circle length scaled by a random congestion
// factor in [1, 1.5), so least-cost paths are not simply Manhattan walks.
func (g *generator) grid() geograph.Definition {
	n := g.p.Size
	var def geograph.Definition

	for row := range n {
		for col := range n {
			lat, lon := g.coord(row, col)
			def.Nodes = append(def.Nodes, geograph.NodeDef{
				ID:   nodeID(row, col, n),
				Name: fmt.Sprintf("R%dC%d", row, col),
				Lat:  lat,
				Lon:  lon,
			})
		}
	}

	edge := func(r1, c1, r2, c2 int) {
		lat1, lon1 := g.coord(r1, c1)
		lat2, lon2 := g.coord(r2, c2)
		km := geo.DistanceHaversine(domain.Node{Lat: lat1, Lon: lon1}.Point(), domain.Node{Lat: lat2, Lon: lon2}.Point()) / 1000
		cost := round6(km * (1 + g.rng.Float64()/2))
		def.Edges = append(def.Edges, geograph.EdgeDef{
			From: nodeID(r1, c1, n),
			To:   nodeID(r2, c2, n),
			Cost: &cost,
		})
	}
	for row := range n {
		for col := range n {
			if col+1 < n {
				edge(row, col, row, col+1)
			}
			if row+1 < n {
				edge(row, col, row+1, col)
			}
		}
	}

	for i := range g.p.Facilities {
		lat, lon := g.point()
		typ := facilityTypes[i%len(facilityTypes)]
		def.Facilities = append(def.Facilities, geograph.FacilityDef{
			ID:   geograph.ID(strconv.Itoa(100 + i + 1)),
			Name: fmt.Sprintf("%s %d", typ, i+1),
			Type: typ,
			Lat:  lat,
			Lon:  lon,
		})
	}
	return def
}

// point returns a uniformly random location inside the grid bound.
func (g *generator) point() (lat, lon float64) {
	extent := float64(g.p.Size-1) * g.p.Spacing
	return round6(g.p.OriginLat + g.rng.Float64()*extent), round6(g.p.OriginLon + g.rng.Float64()*extent)
}

func (g *generator) randomNode() domain.NodeID {
	return domain.NodeID(nodeID(g.rng.IntN(g.p.Size), g.rng.IntN(g.p.Size), g.p.Size))
}

// requests emits route, nearest, and dynamic_nearest envelopes in a 3:1:1
// ratio. Envelope ids are sequential so replays are reproducible.
func (g *generator) requests() []dispatch.Envelope {
	envs := make([]dispatch.Envelope, 0, g.p.Requests)
	for i := range g.p.Requests {
		id := fmt.Sprintf("mock-%05d", i+1)
		var req dispatch.Request
		switch i % 5 {
		case 3:
			lat, lon := g.point()
			req = dispatch.NearestRequest{Lat: lat, Lon: lon}
		case 4:
			lat, lon := g.point()
			req = dispatch.DynamicNearestRequest{Lat: lat, Lon: lon, Candidates: g.candidates()}
		default:
			req = dispatch.RouteRequest{Start: g.randomNode(), End: g.randomNode(), Hazards: g.hazards()}
		}
		envs = append(envs, dispatch.NewEnvelope(id, req))
	}
	return envs
}

func (g *generator) hazards() []domain.Hazard {
	if g.p.MaxHazards == 0 {
		return nil
	}
	k := g.rng.IntN(g.p.MaxHazards + 1)
	out := make([]domain.Hazard, 0, k)
	for j := range k {
		lat, lon := g.point()
		out = append(out, domain.Hazard{
			ID:       fmt.Sprintf("h%d", j+1),
			Lat:      lat,
			Lon:      lon,
			Severity: float64(1 + g.rng.IntN(10)),
			Type:     hazardTypes[g.rng.IntN(len(hazardTypes))],
		})
	}
	return out
}

func (g *generator) candidates() []domain.Facility {
	k := 1 + g.rng.IntN(5)
	out := make([]domain.Facility, 0, k)
	for j := range k {
		lat, lon := g.point()
		name := fmt.Sprintf("Candidate %d", j+1)
		out = append(out, domain.Facility{ID: name, Name: name, Lat: lat, Lon: lon})
	}
	return out
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
