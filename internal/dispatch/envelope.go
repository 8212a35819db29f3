package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/google/uuid"
)

// Envelope is the JSON form of a request on the service transport. Exactly
// one payload field, matching Op, is set.
type Envelope struct {
	ID             string                 `json:"id"`
	Op             Operation              `json:"op"`
	Route          *RouteRequest          `json:"route,omitempty"`
	Nearest        *NearestRequest        `json:"nearest,omitempty"`
	DynamicNearest *DynamicNearestRequest `json:"dynamic_nearest,omitempty"`
}

// NewEnvelope wraps req for transport. An empty id is replaced by a UUID.
func NewEnvelope(id string, req Request) Envelope {
	if id == "" {
		id = uuid.NewString()
	}
	env := Envelope{ID: id, Op: req.Op()}
	switch r := req.(type) {
	case RouteRequest:
		env.Route = &r
	case NearestRequest:
		env.Nearest = &r
	case DynamicNearestRequest:
		env.DynamicNearest = &r
	}
	return env
}

// envelopeWire defers payload decoding until the operation is known.
type envelopeWire struct {
	ID             flexID          `json:"id"`
	Op             string          `json:"op"`
	Route          json.RawMessage `json:"route"`
	Nearest        json.RawMessage `json:"nearest"`
	DynamicNearest json.RawMessage `json:"dynamic_nearest"`
}

type routeWire struct {
	Start   flexID       `json:"start"`
	End     flexID       `json:"end"`
	Hazards []hazardWire `json:"hazards"`
}

type hazardWire struct {
	ID       flexID   `json:"id"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Severity *float64 `json:"severity"`
	Type     string   `json:"type"`
}

type pointWire struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type dynamicNearestWire struct {
	pointWire
	Candidates []candidateWire `json:"candidates"`
}

type candidateWire struct {
	ID   flexID   `json:"id"`
	Name string   `json:"name"`
	Type string   `json:"type"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
}

// DecodeEnvelope parses a JSON request envelope. The returned id is set
// whenever the envelope carried one, and op whenever it named a known
// operation, even if the payload is malformed, so error results can still be
// correlated. Envelopes without an id get a UUID.
func DecodeEnvelope(data []byte) (string, Operation, Request, error) {
	var w envelopeWire
	if err := strictUnmarshal(data, &w); err != nil {
		return "", "", nil, fmt.Errorf("%w: decode envelope: %w", domain.ErrMalformedInput, err)
	}
	id := string(w.ID)
	if id == "" {
		id = uuid.NewString()
	}

	op, err := ParseOperation(w.Op)
	if err != nil {
		return id, "", nil, err
	}

	var req Request
	switch op {
	case OpRoute:
		req, err = decodeRoute(w.Route)
	case OpNearest:
		req, err = decodeNearest(w.Nearest)
	case OpDynamicNearest:
		req, err = decodeDynamicNearest(w.DynamicNearest)
	}
	if err != nil {
		return id, op, nil, err
	}
	return id, op, req, nil
}

func decodeRoute(raw json.RawMessage) (Request, error) {
	var w routeWire
	if err := decodePayload(OpRoute, raw, &w); err != nil {
		return nil, err
	}
	if w.Start == "" || w.End == "" {
		return nil, fmt.Errorf("%w: route needs non-empty start and end node ids", domain.ErrMalformedInput)
	}

	req := RouteRequest{Start: domain.NodeID(w.Start), End: domain.NodeID(w.End)}
	for i, h := range w.Hazards {
		if h.ID == "" {
			return nil, fmt.Errorf("%w: hazard %d: empty id", domain.ErrMalformedInput, i+1)
		}
		lat, lon, err := requireLatLon(h.Lat, h.Lon)
		if err != nil {
			return nil, fmt.Errorf("hazard %q: %w", h.ID, err)
		}
		if h.Severity == nil {
			return nil, fmt.Errorf("%w: hazard %q: missing severity", domain.ErrMalformedInput, h.ID)
		}
		req.Hazards = append(req.Hazards, domain.Hazard{
			ID:       string(h.ID),
			Lat:      lat,
			Lon:      lon,
			Severity: *h.Severity,
			Type:     h.Type,
		})
	}
	return req, nil
}

func decodeNearest(raw json.RawMessage) (Request, error) {
	var w pointWire
	if err := decodePayload(OpNearest, raw, &w); err != nil {
		return nil, err
	}
	lat, lon, err := requireLatLon(w.Lat, w.Lon)
	if err != nil {
		return nil, err
	}
	return NearestRequest{Lat: lat, Lon: lon}, nil
}

func decodeDynamicNearest(raw json.RawMessage) (Request, error) {
	var w dynamicNearestWire
	if err := decodePayload(OpDynamicNearest, raw, &w); err != nil {
		return nil, err
	}
	lat, lon, err := requireLatLon(w.Lat, w.Lon)
	if err != nil {
		return nil, err
	}

	req := DynamicNearestRequest{Lat: lat, Lon: lon}
	for i, c := range w.Candidates {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: candidate %d: empty name", domain.ErrMalformedInput, i+1)
		}
		clat, clon, err := requireLatLon(c.Lat, c.Lon)
		if err != nil {
			return nil, fmt.Errorf("candidate %q: %w", name, err)
		}
		id := string(c.ID)
		if id == "" {
			id = name
		}
		req.Candidates = append(req.Candidates, domain.Facility{ID: id, Name: name, Type: c.Type, Lat: clat, Lon: clon})
	}
	return req, nil
}

func decodePayload(op Operation, raw json.RawMessage, v any) error {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("%w: envelope op %q has no %q payload", domain.ErrMalformedInput, op, op)
	}
	if err := strictUnmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: decode %s payload: %w", domain.ErrMalformedInput, op, err)
	}
	return nil
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func requireLatLon(lat, lon *float64) (float64, float64, error) {
	if lat == nil || lon == nil {
		return 0, 0, fmt.Errorf("%w: missing lat or lon", domain.ErrMalformedInput)
	}
	if !domain.ValidCoordinate(*lat, *lon) {
		return 0, 0, fmt.Errorf("%w: coordinates (%g, %g) out of range", domain.ErrMalformedInput, *lat, *lon)
	}
	return *lat, *lon, nil
}

// flexID accepts identifiers written as JSON strings or numbers.
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %w", err)
	}
	*id = flexID(n.String())
	return nil
}
