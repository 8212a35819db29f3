// Command validate performs integrity checks on a graph definition before it
// is deployed: it must load, be strongly connected, keep every node within
// reach of a static facility, and produce least-cost paths whose reported
// cost matches their edges. Optionally it replays a JSON-lines file of
// request envelopes (as written by genmock) and fails on any internal error.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -graph data/mock/grid.yaml \
//	  -requests data/mock/requests.jsonl \
//	  -max-facility-km 10
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

func main() {
	graphPath := flag.String("graph", "", "graph definition to check (default: embedded dataset)")
	requestsPath := flag.String("requests", "", "optional JSON-lines file of request envelopes to replay")
	maxFacilityKm := flag.Float64("max-facility-km", 10, "maximum distance from any node to its nearest facility")
	flag.Parse()

	if *maxFacilityKm <= 0 {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(os.Stdout, *graphPath, *requestsPath, *maxFacilityKm); code != 0 {
		os.Exit(code)
	}
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func report(w io.Writer, phases []*phase) bool {
	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}
	return allPassed
}
