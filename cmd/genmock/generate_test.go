package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/hazard-route-engine/internal/dispatch"
	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/couchcryptid/hazard-route-engine/internal/geograph"
	"github.com/couchcryptid/hazard-route-engine/internal/hazard"
	"github.com/couchcryptid/hazard-route-engine/internal/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() params {
	return params{
		Size:       6,
		Spacing:    0.01,
		OriginLat:  33.68,
		OriginLon:  73.0,
		Facilities: 4,
		Requests:   25,
		MaxHazards: 3,
		Seed:       42,
	}
}

func TestGridShape(t *testing.T) {
	p := testParams()
	def := newGenerator(p).grid()

	g, err := geograph.Build(def)
	require.NoError(t, err)

	stats := g.Stats()
	assert.Equal(t, p.Size*p.Size, stats.Nodes)
	assert.Equal(t, 2*p.Size*(p.Size-1), stats.Edges)
	assert.Equal(t, 2*stats.Edges, stats.Arcs)
	assert.Equal(t, p.Facilities, stats.Facilities)
}

func TestGridDeterministic(t *testing.T) {
	a := newGenerator(testParams()).grid()
	b := newGenerator(testParams()).grid()
	assert.Empty(t, cmp.Diff(a, b))

	other := testParams()
	other.Seed = 43
	c := newGenerator(other).grid()
	assert.NotEmpty(t, cmp.Diff(a, c))
}

func TestGridYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, writeYAML(path, newGenerator(testParams()).grid()))

	g, err := geograph.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 36, g.Stats().Nodes)
	assert.NotEmpty(t, g.Version())
}

func TestRequestsMix(t *testing.T) {
	envs := newGenerator(testParams()).requests()
	require.Len(t, envs, 25)

	counts := map[dispatch.Operation]int{}
	for _, env := range envs {
		counts[env.Op]++
	}
	assert.Equal(t, 15, counts[dispatch.OpRoute])
	assert.Equal(t, 5, counts[dispatch.OpNearest])
	assert.Equal(t, 5, counts[dispatch.OpDynamicNearest])
	assert.Equal(t, "mock-00001", envs[0].ID)
}

// Every generated envelope must decode and be answered without an internal
// error against the generated graph.
func TestRequestsReplayAgainstGrid(t *testing.T) {
	gen := newGenerator(testParams())
	g, err := geograph.Build(gen.grid())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "requests.jsonl")
	require.NoError(t, writeJSONLines(path, gen.requests()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	engine := dispatch.NewEngine(geograph.NewHolder(g), hazard.DefaultModel(), 5*time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())

	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 25)
	for _, line := range lines {
		id, _, req, err := dispatch.DecodeEnvelope(line)
		require.NoError(t, err, "line %s", line)

		resp := engine.Handle(context.Background(), req)
		require.True(t, resp.OK(), "request %s: %+v", id, resp.Err)

		doc, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.Contains(t, string(doc), `"status":"success"`)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*params)
	}{
		{"size too small", func(p *params) { p.Size = 1 }},
		{"zero spacing", func(p *params) { p.Spacing = 0 }},
		{"negative requests", func(p *params) { p.Requests = -1 }},
		{"bad origin", func(p *params) { p.OriginLat = 91 }},
		{"grid past pole", func(p *params) { p.OriginLat = 89.99 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			assert.Error(t, p.validate())
		})
	}
	assert.NoError(t, testParams().validate())
}

func TestHazardSeverityRange(t *testing.T) {
	gen := newGenerator(testParams())
	for range 50 {
		for _, h := range gen.hazards() {
			assert.GreaterOrEqual(t, h.Severity, 1.0)
			assert.LessOrEqual(t, h.Severity, 10.0)
			assert.True(t, domain.ValidCoordinate(h.Lat, h.Lon))
		}
	}
}
