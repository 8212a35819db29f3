// Package dispatch turns positional arguments or JSON envelopes into typed
// engine requests, runs them against the current graph, and renders the
// single JSON document each request produces.
package dispatch

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/hazard-route-engine/internal/domain"
)

// Operation names one of the engine's request kinds.
type Operation string

const (
	OpRoute          Operation = "route"
	OpNearest        Operation = "nearest"
	OpDynamicNearest Operation = "dynamic_nearest"
)

// Operations lists every supported operation in a stable order.
var Operations = []Operation{OpRoute, OpNearest, OpDynamicNearest}

// ParseOperation validates an operation name.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(s); op {
	case OpRoute, OpNearest, OpDynamicNearest:
		return op, nil
	default:
		return "", fmt.Errorf("%w: unknown operation %q", domain.ErrMalformedInput, s)
	}
}

// Request is one of RouteRequest, NearestRequest or DynamicNearestRequest.
type Request interface {
	Op() Operation
}

// RouteRequest asks for the hazard-weighted shortest path from Start to End.
type RouteRequest struct {
	Start   domain.NodeID   `json:"start"`
	End     domain.NodeID   `json:"end"`
	Hazards []domain.Hazard `json:"hazards,omitempty"`
}

// NearestRequest asks for the static facility closest to a point.
type NearestRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DynamicNearestRequest asks for the closest of the supplied candidates.
type DynamicNearestRequest struct {
	Lat        float64           `json:"lat"`
	Lon        float64           `json:"lon"`
	Candidates []domain.Facility `json:"candidates"`
}

func (RouteRequest) Op() Operation          { return OpRoute }
func (NearestRequest) Op() Operation        { return OpNearest }
func (DynamicNearestRequest) Op() Operation { return OpDynamicNearest }

// Field and record separators of the positional encoding.
const (
	recordSep = ";"
	fieldSep  = "|"
)

// ParseArgs parses the positional form of a request:
//
//	route <start> <end> [hazards]
//	nearest <lat> <lon>
//	dynamic_nearest <lat> <lon> <candidates>
//
// Hazards are id|lat|lon|severity|type records and candidates are
// name|lat|lon records, each joined by ";". Every failure wraps
// domain.ErrMalformedInput.
func ParseArgs(op string, args []string) (Request, error) {
	operation, err := ParseOperation(op)
	if err != nil {
		return nil, err
	}

	switch operation {
	case OpRoute:
		if len(args) < 2 || len(args) > 3 {
			return nil, argCountError(operation, "2 or 3", len(args))
		}
		start, end := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
		if start == "" || end == "" {
			return nil, fmt.Errorf("%w: route needs non-empty start and end node ids", domain.ErrMalformedInput)
		}
		req := RouteRequest{Start: domain.NodeID(start), End: domain.NodeID(end)}
		if len(args) == 3 {
			if req.Hazards, err = ParseHazards(args[2]); err != nil {
				return nil, err
			}
		}
		return req, nil

	case OpNearest:
		if len(args) != 2 {
			return nil, argCountError(operation, "2", len(args))
		}
		lat, lon, err := parseLatLon(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return NearestRequest{Lat: lat, Lon: lon}, nil

	default:
		if len(args) != 3 {
			return nil, argCountError(operation, "3", len(args))
		}
		lat, lon, err := parseLatLon(args[0], args[1])
		if err != nil {
			return nil, err
		}
		cands, err := ParseCandidates(args[2])
		if err != nil {
			return nil, err
		}
		return DynamicNearestRequest{Lat: lat, Lon: lon, Candidates: cands}, nil
	}
}

// ParseHazards decodes id|lat|lon|severity|type records. The type field may be
// omitted. An empty string yields no hazards.
func ParseHazards(s string) ([]domain.Hazard, error) {
	var hazards []domain.Hazard
	for i, rec := range records(s) {
		fields := strings.Split(rec, fieldSep)
		if len(fields) != 4 && len(fields) != 5 {
			return nil, fmt.Errorf("%w: hazard %d: want id|lat|lon|severity|type, got %q", domain.ErrMalformedInput, i+1, rec)
		}
		id := strings.TrimSpace(fields[0])
		if id == "" {
			return nil, fmt.Errorf("%w: hazard %d: empty id", domain.ErrMalformedInput, i+1)
		}
		lat, lon, err := parseLatLon(fields[1], fields[2])
		if err != nil {
			return nil, fmt.Errorf("hazard %q: %w", id, err)
		}
		sev, err := parseFloat("severity", fields[3])
		if err != nil {
			return nil, fmt.Errorf("hazard %q: %w", id, err)
		}
		h := domain.Hazard{ID: id, Lat: lat, Lon: lon, Severity: sev}
		if len(fields) == 5 {
			h.Type = strings.TrimSpace(fields[4])
		}
		hazards = append(hazards, h)
	}
	return hazards, nil
}

// ParseCandidates decodes name|lat|lon records. Each candidate is identified
// by its name.
func ParseCandidates(s string) ([]domain.Facility, error) {
	var cands []domain.Facility
	for i, rec := range records(s) {
		fields := strings.Split(rec, fieldSep)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: candidate %d: want name|lat|lon, got %q", domain.ErrMalformedInput, i+1, rec)
		}
		name := strings.TrimSpace(fields[0])
		if name == "" {
			return nil, fmt.Errorf("%w: candidate %d: empty name", domain.ErrMalformedInput, i+1)
		}
		lat, lon, err := parseLatLon(fields[1], fields[2])
		if err != nil {
			return nil, fmt.Errorf("candidate %q: %w", name, err)
		}
		cands = append(cands, domain.Facility{ID: name, Name: name, Lat: lat, Lon: lon})
	}
	return cands, nil
}

// records splits s on the record separator, dropping blank records.
func records(s string) []string {
	var out []string
	for _, rec := range strings.Split(s, recordSep) {
		if rec = strings.TrimSpace(rec); rec != "" {
			out = append(out, rec)
		}
	}
	return out
}

func parseLatLon(latStr, lonStr string) (float64, float64, error) {
	lat, err := parseFloat("lat", latStr)
	if err != nil {
		return 0, 0, err
	}
	lon, err := parseFloat("lon", lonStr)
	if err != nil {
		return 0, 0, err
	}
	if !domain.ValidCoordinate(lat, lon) {
		return 0, 0, fmt.Errorf("%w: coordinates (%g, %g) out of range", domain.ErrMalformedInput, lat, lon)
	}
	return lat, lon, nil
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s %q is not a finite number", domain.ErrMalformedInput, field, s)
	}
	return v, nil
}

func argCountError(op Operation, want string, got int) error {
	return fmt.Errorf("%w: %s takes %s arguments, got %d", domain.ErrMalformedInput, op, want, got)
}
