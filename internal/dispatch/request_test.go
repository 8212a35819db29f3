package dispatch

import (
	"testing"

	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs_Route(t *testing.T) {
	req, err := ParseArgs("route", []string{"1", "4"})
	require.NoError(t, err)
	assert.Equal(t, RouteRequest{Start: "1", End: "4"}, req)
	assert.Equal(t, OpRoute, req.Op())
}

func TestParseArgs_RouteWithHazards(t *testing.T) {
	req, err := ParseArgs("route", []string{"1", "4", "501|33.70|73.04|8|Traffic Jam; 502|33.72|73.07|5|Construction"})
	require.NoError(t, err)

	route := req.(RouteRequest)
	assert.Equal(t, []domain.Hazard{
		{ID: "501", Lat: 33.70, Lon: 73.04, Severity: 8, Type: "Traffic Jam"},
		{ID: "502", Lat: 33.72, Lon: 73.07, Severity: 5, Type: "Construction"},
	}, route.Hazards)
}

func TestParseArgs_RouteEmptyHazardList(t *testing.T) {
	req, err := ParseArgs("route", []string{"1", "4", ""})
	require.NoError(t, err)
	assert.Empty(t, req.(RouteRequest).Hazards)
}

func TestParseArgs_Nearest(t *testing.T) {
	req, err := ParseArgs("nearest", []string{"33.7077", " 73.0501 "})
	require.NoError(t, err)
	assert.Equal(t, NearestRequest{Lat: 33.7077, Lon: 73.0501}, req)
}

func TestParseArgs_DynamicNearest(t *testing.T) {
	req, err := ParseArgs("dynamic_nearest", []string{"0", "0", "X|0|0;;Y|1|1;"})
	require.NoError(t, err)
	assert.Equal(t, DynamicNearestRequest{
		Lat: 0,
		Lon: 0,
		Candidates: []domain.Facility{
			{ID: "X", Name: "X", Lat: 0, Lon: 0},
			{ID: "Y", Name: "Y", Lat: 1, Lon: 1},
		},
	}, req)
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		op   string
		args []string
	}{
		{name: "unknown op", op: "teleport", args: nil},
		{name: "route too few", op: "route", args: []string{"1"}},
		{name: "route too many", op: "route", args: []string{"1", "2", "", "x"}},
		{name: "route blank start", op: "route", args: []string{" ", "2"}},
		{name: "hazard short record", op: "route", args: []string{"1", "2", "h|1|2"}},
		{name: "hazard empty id", op: "route", args: []string{"1", "2", "|1|2|3|x"}},
		{name: "hazard bad severity", op: "route", args: []string{"1", "2", "h|1|2|high|x"}},
		{name: "hazard out of range", op: "route", args: []string{"1", "2", "h|100|2|3|x"}},
		{name: "nearest non numeric", op: "nearest", args: []string{"north", "0"}},
		{name: "nearest NaN", op: "nearest", args: []string{"NaN", "0"}},
		{name: "nearest out of range", op: "nearest", args: []string{"0", "181"}},
		{name: "nearest arg count", op: "nearest", args: []string{"0"}},
		{name: "dynamic arg count", op: "dynamic_nearest", args: []string{"0", "0"}},
		{name: "candidate missing field", op: "dynamic_nearest", args: []string{"0", "0", "X|0"}},
		{name: "candidate empty name", op: "dynamic_nearest", args: []string{"0", "0", " |0|0"}},
		{name: "candidate bad lat", op: "dynamic_nearest", args: []string{"0", "0", "X|abc|0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.op, tt.args)
			require.ErrorIs(t, err, domain.ErrMalformedInput)
			assert.Equal(t, domain.CodeMalformedInput, domain.Classify(err))
		})
	}
}

func TestParseHazards_TypeOptional(t *testing.T) {
	hs, err := ParseHazards("h1|0|0|3")
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.Empty(t, hs[0].Type)
	assert.Equal(t, 3.0, hs[0].Severity)
}

func TestParseHazards_SeverityKeptUnclamped(t *testing.T) {
	hs, err := ParseHazards("h1|0|0|42|x")
	require.NoError(t, err)
	assert.Equal(t, 42.0, hs[0].Severity)
	assert.Equal(t, domain.MaxSeverity, hs[0].ClampedSeverity())
}

func TestParseOperation(t *testing.T) {
	for _, op := range Operations {
		got, err := ParseOperation(string(op))
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}
	_, err := ParseOperation("ROUTE")
	require.ErrorIs(t, err, domain.ErrMalformedInput)
}
