package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/hazard-route-engine/internal/dispatch"
	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/couchcryptid/hazard-route-engine/internal/geograph"
	"github.com/couchcryptid/hazard-route-engine/internal/hazard"
	"github.com/couchcryptid/hazard-route-engine/internal/nearest"
	"github.com/couchcryptid/hazard-route-engine/internal/observability"
	"github.com/couchcryptid/hazard-route-engine/internal/routing"
	"github.com/prometheus/client_golang/prometheus"
)

// maxReported caps how many offending items a phase lists.
const maxReported = 20

func run(w io.Writer, graphPath, requestsPath string, maxFacilityKm float64) int {
	fmt.Fprintln(w, "=== Graph Integrity Validation ===")

	var (
		g   *geograph.Graph
		err error
	)
	if graphPath == "" {
		g, err = geograph.Default()
	} else {
		g, err = geograph.LoadFile(graphPath)
	}
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}

	stats := g.Stats()
	fmt.Fprintf(w, "Graph %s: %d nodes, %d edges (%d arcs), %d facilities\n",
		g.Version(), stats.Nodes, stats.Edges, stats.Arcs, stats.Facilities)

	phases := []*phase{
		checkConnectivity(g),
		checkFacilityCoverage(g, maxFacilityKm),
		checkPathCosts(g),
	}
	if requestsPath != "" {
		phases = append(phases, checkReplay(w, g, requestsPath))
	}

	if report(w, phases) {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: Connectivity ──
// Every node must reach, and be reachable from, the first node.

func checkConnectivity(g *geograph.Graph) *phase {
	p := &phase{name: "Phase 1: Strong Connectivity"}

	ids := g.NodeIDs()
	root := ids[0]

	forward := reachable(root, func(id domain.NodeID, visit func(domain.NodeID)) {
		for arc := range g.Neighbors(id) {
			visit(arc.To.ID)
		}
	})

	reverseAdj := make(map[domain.NodeID][]domain.NodeID, len(ids))
	for _, id := range ids {
		for arc := range g.Neighbors(id) {
			reverseAdj[arc.To.ID] = append(reverseAdj[arc.To.ID], id)
		}
	}
	backward := reachable(root, func(id domain.NodeID, visit func(domain.NodeID)) {
		for _, from := range reverseAdj[id] {
			visit(from)
		}
	})

	for _, id := range ids {
		if len(p.errors) >= maxReported {
			p.errorf("... further nodes omitted")
			break
		}
		switch {
		case !forward[id]:
			p.errorf("node %q is not reachable from %q", id, root)
		case !backward[id]:
			p.errorf("node %q cannot reach %q", id, root)
		}
	}
	return p
}

func reachable(root domain.NodeID, next func(domain.NodeID, func(domain.NodeID))) map[domain.NodeID]bool {
	seen := map[domain.NodeID]bool{root: true}
	queue := []domain.NodeID{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		next(id, func(n domain.NodeID) {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		})
	}
	return seen
}

// ── Phase 2: Facility Coverage ──

func checkFacilityCoverage(g *geograph.Graph, maxKm float64) *phase {
	p := &phase{name: fmt.Sprintf("Phase 2: Facility Coverage (<= %g km)", maxKm)}

	if len(g.Facilities()) == 0 {
		p.errorf("graph defines no static facilities")
		return p
	}

	for _, id := range g.NodeIDs() {
		node, _ := g.Node(id)
		res, err := nearest.Static(g, node.Lat, node.Lon)
		if err != nil {
			p.errorf("node %q: %v", id, err)
			continue
		}
		if res.Distance > maxKm && len(p.errors) < maxReported {
			p.errorf("node %q: nearest facility %q is %.2f km away", id, res.Facility.ID, res.Distance)
		}
	}
	return p
}

// ── Phase 3: Path Costs ──
// The reported cost of every path from the first node must equal the sum of
// the cheapest arc weights along it.

func checkPathCosts(g *geograph.Graph) *phase {
	p := &phase{name: "Phase 3: Path Cost Round-Trip"}

	ids := g.NodeIDs()
	root := ids[0]
	for _, id := range ids {
		res, err := routing.ShortestPath(context.Background(), g, root, id, nil)
		if err != nil {
			// Unreachable pairs are reported by the connectivity phase.
			continue
		}
		sum, ok := pathCost(g, res.Path)
		switch {
		case !ok:
			p.errorf("%s→%s: path %v uses a missing arc", root, id, res.Path)
		case math.Abs(sum-res.Cost) > 1e-9:
			p.errorf("%s→%s: reported cost %g, edges sum to %g", root, id, res.Cost, sum)
		}
	}
	return p
}

func pathCost(g *geograph.Graph, path []domain.NodeID) (float64, bool) {
	total := 0.0
	for i := 1; i < len(path); i++ {
		best := math.Inf(1)
		for arc := range g.Neighbors(path[i-1]) {
			if arc.To.ID == path[i] && arc.Cost < best {
				best = arc.Cost
			}
		}
		if math.IsInf(best, 1) {
			return 0, false
		}
		total += best
	}
	return total, true
}

// ── Phase 4: Request Replay ──

func checkReplay(w io.Writer, g *geograph.Graph, path string) *phase {
	p := &phase{name: "Phase 4: Request Replay"}

	f, err := os.Open(path)
	if err != nil {
		p.errorf("open %s: %v", path, err)
		return p
	}
	defer f.Close()

	engine := dispatch.NewEngine(geograph.NewHolder(g), hazard.DefaultModel(), 5*time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsWith(prometheus.NewRegistry()))

	counts := map[string]int{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		id, _, req, err := dispatch.DecodeEnvelope(data)
		if err != nil {
			p.errorf("line %d (%s): %v", line, id, err)
			continue
		}
		resp := engine.Handle(context.Background(), req)
		counts[resp.Status()]++
		if !resp.OK() && resp.Err.Code == domain.CodeInternal {
			p.errorf("line %d (%s): %s", line, id, resp.Err.Message)
		}
	}
	if err := scanner.Err(); err != nil {
		p.errorf("read %s: %v", path, err)
	}
	fmt.Fprintf(w, "  Replayed %d requests: %d success, %d error\n",
		counts[dispatch.StatusSuccess]+counts[dispatch.StatusError], counts[dispatch.StatusSuccess], counts[dispatch.StatusError])
	return p
}
