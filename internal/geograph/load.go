package geograph

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/quadtree"
	"gopkg.in/yaml.v3"
)

//go:embed islamabad.yaml
var defaultDefinition []byte

// worldBound covers every valid WGS-84 coordinate.
var worldBound = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// Definition is the YAML document a graph is built from.
type Definition struct {
	Nodes      []NodeDef     `yaml:"nodes"`
	Edges      []EdgeDef     `yaml:"edges"`
	Facilities []FacilityDef `yaml:"facilities"`
}

// NodeDef is one node entry in a graph definition.
type NodeDef struct {
	ID   ID      `yaml:"id"`
	Name string  `yaml:"name,omitempty"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// EdgeDef is one road entry. Cost defaults to the great-circle length in km.
type EdgeDef struct {
	From   ID       `yaml:"from"`
	To     ID       `yaml:"to"`
	Cost   *float64 `yaml:"cost,omitempty"`
	OneWay bool     `yaml:"oneway,omitempty"`
}

// FacilityDef is one static facility entry.
type FacilityDef struct {
	ID   ID      `yaml:"id"`
	Name string  `yaml:"name"`
	Type string  `yaml:"type,omitempty"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// document mirrors Definition with coordinates as pointers, so a node or
// facility that omits lat or lon is rejected instead of landing on (0, 0).
type document struct {
	Nodes []struct {
		ID   ID       `yaml:"id"`
		Name string   `yaml:"name"`
		Lat  *float64 `yaml:"lat"`
		Lon  *float64 `yaml:"lon"`
	} `yaml:"nodes"`
	Edges      []EdgeDef `yaml:"edges"`
	Facilities []struct {
		ID   ID       `yaml:"id"`
		Name string   `yaml:"name"`
		Type string   `yaml:"type"`
		Lat  *float64 `yaml:"lat"`
		Lon  *float64 `yaml:"lon"`
	} `yaml:"facilities"`
}

func (d document) definition() (Definition, error) {
	def := Definition{
		Nodes:      make([]NodeDef, 0, len(d.Nodes)),
		Edges:      d.Edges,
		Facilities: make([]FacilityDef, 0, len(d.Facilities)),
	}
	for i, n := range d.Nodes {
		if n.Lat == nil || n.Lon == nil {
			return Definition{}, fmt.Errorf("%w: node %d (%q) is missing lat or lon", domain.ErrLoad, i, n.ID)
		}
		def.Nodes = append(def.Nodes, NodeDef{ID: n.ID, Name: n.Name, Lat: *n.Lat, Lon: *n.Lon})
	}
	for i, f := range d.Facilities {
		if f.Lat == nil || f.Lon == nil {
			return Definition{}, fmt.Errorf("%w: facility %d (%q) is missing lat or lon", domain.ErrLoad, i, f.ID)
		}
		def.Facilities = append(def.Facilities, FacilityDef{ID: f.ID, Name: f.Name, Type: f.Type, Lat: *f.Lat, Lon: *f.Lon})
	}
	return def, nil
}

// ID accepts integer or string scalars and keeps their literal text.
type ID string

// UnmarshalYAML implements yaml.Unmarshaler.
func (id *ID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode || value.Value == "" {
		return fmt.Errorf("line %d: identifier must be a non-empty scalar", value.Line)
	}
	*id = ID(value.Value)
	return nil
}

// Default builds the embedded demonstration dataset.
func Default() (*Graph, error) {
	return Load(bytes.NewReader(defaultDefinition))
}

// LoadFile builds a graph from the YAML definition at path.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrLoad, path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses and validates a YAML definition and builds an immutable graph.
// Every failure wraps domain.ErrLoad.
func Load(r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read definition: %w", domain.ErrLoad, err)
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty definition", domain.ErrLoad)
		}
		return nil, fmt.Errorf("%w: parse yaml: %w", domain.ErrLoad, err)
	}

	def, err := doc.definition()
	if err != nil {
		return nil, err
	}
	g, err := Build(def)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	g.version = hex.EncodeToString(sum[:8])
	return g, nil
}

// Build validates def and assembles a graph. The version of a graph built
// directly from a Definition is empty.
func Build(def Definition) (*Graph, error) {
	if len(def.Nodes) == 0 {
		return nil, fmt.Errorf("%w: definition has no nodes", domain.ErrLoad)
	}

	g := &Graph{
		nodes:    make(map[domain.NodeID]domain.Node, len(def.Nodes)),
		order:    make([]domain.NodeID, 0, len(def.Nodes)),
		adj:      make(map[domain.NodeID][]Arc, len(def.Nodes)),
		facIndex: quadtree.New(worldBound),
	}

	for i, nd := range def.Nodes {
		id := domain.NodeID(nd.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: node %d has no id", domain.ErrLoad, i)
		}
		if _, dup := g.nodes[id]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %q", domain.ErrLoad, id)
		}
		if !domain.ValidCoordinate(nd.Lat, nd.Lon) {
			return nil, fmt.Errorf("%w: node %q has invalid coordinates (%g, %g)", domain.ErrLoad, id, nd.Lat, nd.Lon)
		}
		g.nodes[id] = domain.Node{ID: id, Name: nd.Name, Lat: nd.Lat, Lon: nd.Lon}
		g.order = append(g.order, id)
	}

	for i, ed := range def.Edges {
		from, okFrom := g.nodes[domain.NodeID(ed.From)]
		to, okTo := g.nodes[domain.NodeID(ed.To)]
		switch {
		case !okFrom:
			return nil, fmt.Errorf("%w: edge %d references undefined node %q", domain.ErrLoad, i, ed.From)
		case !okTo:
			return nil, fmt.Errorf("%w: edge %d references undefined node %q", domain.ErrLoad, i, ed.To)
		case from.ID == to.ID:
			return nil, fmt.Errorf("%w: edge %d is a self-loop on %q", domain.ErrLoad, i, from.ID)
		}

		cost := geo.DistanceHaversine(from.Point(), to.Point()) / 1000
		if ed.Cost != nil {
			cost = *ed.Cost
		}
		if cost < 0 || math.IsNaN(cost) || math.IsInf(cost, 0) {
			return nil, fmt.Errorf("%w: edge %d (%s→%s) has invalid cost %g", domain.ErrLoad, i, from.ID, to.ID, cost)
		}

		g.adj[from.ID] = append(g.adj[from.ID], Arc{Edge: i, From: from, To: to, Cost: cost})
		g.arcs++
		if !ed.OneWay {
			g.adj[to.ID] = append(g.adj[to.ID], Arc{Edge: i, From: to, To: from, Cost: cost})
			g.arcs++
		}
		g.edges++
	}

	seen := make(map[string]bool, len(def.Facilities))
	for i, fd := range def.Facilities {
		id := string(fd.ID)
		switch {
		case id == "":
			return nil, fmt.Errorf("%w: facility %d has no id", domain.ErrLoad, i)
		case seen[id]:
			return nil, fmt.Errorf("%w: duplicate facility id %q", domain.ErrLoad, id)
		case fd.Name == "":
			return nil, fmt.Errorf("%w: facility %q has no name", domain.ErrLoad, id)
		case !domain.ValidCoordinate(fd.Lat, fd.Lon):
			return nil, fmt.Errorf("%w: facility %q has invalid coordinates (%g, %g)", domain.ErrLoad, id, fd.Lat, fd.Lon)
		}
		seen[id] = true

		f := domain.Facility{ID: id, Name: fd.Name, Type: fd.Type, Lat: fd.Lat, Lon: fd.Lon}
		if err := g.facIndex.Add(f); err != nil {
			return nil, fmt.Errorf("%w: index facility %q: %w", domain.ErrLoad, id, err)
		}
		g.facilities = append(g.facilities, f)
	}

	return g, nil
}
