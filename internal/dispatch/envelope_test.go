package dispatch

import (
	"encoding/json"
	"testing"

	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope_Route(t *testing.T) {
	id, op, req, err := DecodeEnvelope([]byte(`{
		"id": "req-1",
		"op": "route",
		"route": {
			"start": 1,
			"end": "4",
			"hazards": [{"id": 501, "lat": 33.70, "lon": 73.04, "severity": 8, "type": "Traffic Jam"}]
		}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "req-1", id)
	assert.Equal(t, OpRoute, op)
	assert.Equal(t, RouteRequest{
		Start:   "1",
		End:     "4",
		Hazards: []domain.Hazard{{ID: "501", Lat: 33.70, Lon: 73.04, Severity: 8, Type: "Traffic Jam"}},
	}, req)
}

func TestDecodeEnvelope_Nearest(t *testing.T) {
	_, _, req, err := DecodeEnvelope([]byte(`{"id":"n","op":"nearest","nearest":{"lat":0,"lon":0}}`))
	require.NoError(t, err)
	assert.Equal(t, NearestRequest{Lat: 0, Lon: 0}, req)
}

func TestDecodeEnvelope_DynamicNearest(t *testing.T) {
	_, _, req, err := DecodeEnvelope([]byte(`{
		"id": "d",
		"op": "dynamic_nearest",
		"dynamic_nearest": {
			"lat": 0, "lon": 0,
			"candidates": [{"name": "X", "lat": 0, "lon": 0}, {"id": 7, "name": "Y", "type": "Fire", "lat": 1, "lon": 1}]
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, DynamicNearestRequest{
		Candidates: []domain.Facility{
			{ID: "X", Name: "X", Lat: 0, Lon: 0},
			{ID: "7", Name: "Y", Type: "Fire", Lat: 1, Lon: 1},
		},
	}, req)
}

func TestDecodeEnvelope_MissingIDGetsUUID(t *testing.T) {
	id, _, _, err := DecodeEnvelope([]byte(`{"op":"nearest","nearest":{"lat":1,"lon":2}}`))
	require.NoError(t, err)
	_, parseErr := uuid.Parse(id)
	assert.NoError(t, parseErr)
}

func TestDecodeEnvelope_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantID string
		wantOp Operation
	}{
		{name: "not json", body: `route 1 4`},
		{name: "unknown field", body: `{"id":"a","op":"nearest","nearest":{"lat":1,"lon":2},"extra":true}`},
		{name: "unknown op", body: `{"id":"a","op":"teleport"}`, wantID: "a"},
		{name: "payload missing", body: `{"id":"a","op":"route"}`, wantID: "a", wantOp: OpRoute},
		{name: "payload null", body: `{"id":"a","op":"nearest","nearest":null}`, wantID: "a", wantOp: OpNearest},
		{name: "wrong payload", body: `{"id":"a","op":"route","nearest":{"lat":1,"lon":2}}`, wantID: "a", wantOp: OpRoute},
		{name: "route blank end", body: `{"id":"a","op":"route","route":{"start":"1","end":""}}`, wantID: "a", wantOp: OpRoute},
		{name: "route id bool", body: `{"id":"a","op":"route","route":{"start":true,"end":"2"}}`, wantID: "a", wantOp: OpRoute},
		{name: "hazard no severity", body: `{"id":"a","op":"route","route":{"start":"1","end":"2","hazards":[{"id":"h","lat":0,"lon":0}]}}`, wantID: "a", wantOp: OpRoute},
		{name: "hazard no lat", body: `{"id":"a","op":"route","route":{"start":"1","end":"2","hazards":[{"id":"h","lon":0,"severity":1}]}}`, wantID: "a", wantOp: OpRoute},
		{name: "nearest missing lon", body: `{"id":"a","op":"nearest","nearest":{"lat":1}}`, wantID: "a", wantOp: OpNearest},
		{name: "nearest out of range", body: `{"id":"a","op":"nearest","nearest":{"lat":-91,"lon":0}}`, wantID: "a", wantOp: OpNearest},
		{name: "candidate no name", body: `{"id":"a","op":"dynamic_nearest","dynamic_nearest":{"lat":0,"lon":0,"candidates":[{"lat":0,"lon":0}]}}`, wantID: "a", wantOp: OpDynamicNearest},
		{name: "candidate no lon", body: `{"id":"a","op":"dynamic_nearest","dynamic_nearest":{"lat":0,"lon":0,"candidates":[{"name":"X","lat":0}]}}`, wantID: "a", wantOp: OpDynamicNearest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, op, req, err := DecodeEnvelope([]byte(tt.body))
			require.ErrorIs(t, err, domain.ErrMalformedInput)
			assert.Nil(t, req)
			assert.Equal(t, tt.wantOp, op)
			if tt.wantID != "" {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestNewEnvelope_DecodesToSameRequest(t *testing.T) {
	reqs := []Request{
		RouteRequest{Start: "1", End: "4", Hazards: []domain.Hazard{{ID: "h", Lat: 1, Lon: 2, Severity: 3, Type: "jam"}}},
		NearestRequest{Lat: 33.7, Lon: 73.05},
		DynamicNearestRequest{Lat: 1, Lon: 1, Candidates: []domain.Facility{{ID: "X", Name: "X", Lat: 0, Lon: 0}}},
	}
	for _, want := range reqs {
		t.Run(string(want.Op()), func(t *testing.T) {
			env := NewEnvelope("fixed", want)
			data, err := json.Marshal(env)
			require.NoError(t, err)

			id, op, got, err := DecodeEnvelope(data)
			require.NoError(t, err)
			assert.Equal(t, "fixed", id)
			assert.Equal(t, want.Op(), op)
			assert.Equal(t, want, got)
		})
	}
}

func TestNewEnvelope_GeneratesID(t *testing.T) {
	env := NewEnvelope("", NearestRequest{})
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, OpNearest, env.Op)
	assert.NotNil(t, env.Nearest)
}
