// Command genmock generates synthetic fixtures for load and integration
// testing: a square grid road network with facilities, and a JSON-lines file
// of request envelopes (routes with random hazards, static and dynamic
// nearest queries) that can be replayed onto the request topic.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -size 20 -seed 7 \
//	  -graph-out data/mock/grid.yaml \
//	  -requests-out data/mock/requests.jsonl
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/couchcryptid/hazard-route-engine/internal/dispatch"
	"github.com/couchcryptid/hazard-route-engine/internal/geograph"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var p params
	flag.IntVar(&p.Size, "size", 10, "grid side length in nodes")
	flag.Float64Var(&p.Spacing, "spacing", 0.01, "grid spacing in degrees")
	flag.Float64Var(&p.OriginLat, "origin-lat", 33.68, "latitude of the south-west corner")
	flag.Float64Var(&p.OriginLon, "origin-lon", 73.00, "longitude of the south-west corner")
	flag.IntVar(&p.Facilities, "facilities", 5, "number of static facilities")
	flag.IntVar(&p.Requests, "requests", 100, "number of request envelopes")
	flag.IntVar(&p.MaxHazards, "max-hazards", 4, "maximum hazards per route request")
	flag.Uint64Var(&p.Seed, "seed", 1, "random seed")
	graphOut := flag.String("graph-out", "", "output path for the YAML graph definition")
	requestsOut := flag.String("requests-out", "", "output path for JSON-lines request envelopes")
	flag.Parse()

	if *graphOut == "" || *requestsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -graph-out, -requests-out")
	}
	if err := p.validate(); err != nil {
		return err
	}

	gen := newGenerator(p)
	def := gen.grid()

	// Build once so a bad parameter set never produces an unloadable file.
	g, err := geograph.Build(def)
	if err != nil {
		return fmt.Errorf("generated graph is invalid: %w", err)
	}

	if err := writeYAML(*graphOut, def); err != nil {
		return fmt.Errorf("writing graph: %w", err)
	}
	stats := g.Stats()
	log.Printf("wrote graph: %s (%d nodes, %d edges, %d facilities)", *graphOut, stats.Nodes, stats.Edges, stats.Facilities)

	envs := gen.requests()
	if err := writeJSONLines(*requestsOut, envs); err != nil {
		return fmt.Errorf("writing requests: %w", err)
	}
	log.Printf("wrote requests: %s", *requestsOut)

	printStats(envs)
	return nil
}

func writeYAML(path string, def geograph.Definition) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "# Generated by genmock. Edge cost is road length in kilometres.\n")
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return err
	}
	return enc.Close()
}

func writeJSONLines(path string, envs []dispatch.Envelope) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range envs {
		if err := enc.Encode(envs[i]); err != nil {
			return err
		}
	}
	return w.Flush()
}

func printStats(envs []dispatch.Envelope) {
	counts := map[dispatch.Operation]int{}
	hazards := 0
	for _, env := range envs {
		counts[env.Op]++
		if env.Route != nil {
			hazards += len(env.Route.Hazards)
		}
	}
	fmt.Println("\n=== Request Distribution ===")
	for _, op := range dispatch.Operations {
		fmt.Printf("  %-16s %d\n", op, counts[op])
	}
	fmt.Printf("  %-16s %d\n", "hazards", hazards)
}
