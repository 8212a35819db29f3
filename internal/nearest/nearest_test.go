package nearest

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/couchcryptid/hazard-route-engine/internal/geograph"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamic_ExactMatch(t *testing.T) {
	res, err := Dynamic(0, 0, []domain.Facility{
		{Name: "X", Lat: 0, Lon: 0},
		{Name: "Y", Lat: 1, Lon: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "X", res.Facility.Name)
	assert.Equal(t, "X", res.Facility.ID, "name stands in for a missing id")
	assert.Zero(t, res.Distance)
}

func TestDynamic_DistanceInKilometres(t *testing.T) {
	// One degree of latitude is roughly 111 km.
	res, err := Dynamic(0, 0, []domain.Facility{{Name: "north", Lat: 1, Lon: 0}})
	require.NoError(t, err)
	assert.InDelta(t, 111.2, res.Distance, 0.2)
}

func TestDynamic_TieBreaksOnSmallestID(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want string
	}{
		{name: "lexical", ids: []string{"b", "a", "c"}, want: "a"},
		{name: "numeric", ids: []string{"10", "9", "11"}, want: "9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cands []domain.Facility
			for _, id := range tt.ids {
				cands = append(cands, domain.Facility{ID: id, Name: "f" + id, Lat: 0, Lon: 1})
			}
			res, err := Dynamic(0, 0, cands)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Facility.ID)
		})
	}
}

func TestDynamic_EmptyCandidateSet(t *testing.T) {
	_, err := Dynamic(0, 0, nil)
	require.ErrorIs(t, err, domain.ErrEmptyCandidateSet)
	assert.Equal(t, domain.CodeEmptyCandidateSet, domain.Classify(err))
}

func TestDynamic_InvalidCoordinates(t *testing.T) {
	_, err := Dynamic(91, 0, []domain.Facility{{Name: "X"}})
	require.ErrorIs(t, err, domain.ErrMalformedInput)

	_, err = Dynamic(0, 0, []domain.Facility{{Name: "X", Lat: 0, Lon: 200}})
	require.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestDynamic_ResultIsMinimalMember(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for trial := range 50 {
		var cands []domain.Facility
		for i := range 1 + r.IntN(20) {
			cands = append(cands, domain.Facility{
				ID:  fmt.Sprint(i),
				Lat: r.Float64()*2 - 1,
				Lon: r.Float64()*2 - 1,
			})
		}
		qLat, qLon := r.Float64()*2-1, r.Float64()*2-1

		res, err := Dynamic(qLat, qLon, cands)
		require.NoError(t, err)
		assert.Contains(t, cands, res.Facility, "trial %d", trial)

		q := orb.Point{qLon, qLat}
		for _, c := range cands {
			assert.LessOrEqual(t, res.Distance, geo.DistanceHaversine(q, c.Point())/1000+1e-9, "trial %d", trial)
		}
	}
}

func TestStatic_Islamabad(t *testing.T) {
	g, err := geograph.Default()
	require.NoError(t, err)

	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{name: "centaurus mall", lat: 33.7077, lon: 73.0501, want: "PIMS Hospital"},
		{name: "f-6 sector", lat: 33.7299, lon: 73.0747, want: "Margalla Police Station"},
		{name: "g-9 sector", lat: 33.6923, lon: 73.0238, want: "G-9 Markaz Fire Station"},
		{name: "on the facility", lat: 33.7051, lon: 73.0451, want: "PIMS Hospital"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Static(g, tt.lat, tt.lon)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Facility.Name)
			assert.GreaterOrEqual(t, res.Distance, 0.0)
		})
	}
}

func TestStatic_MatchesExhaustiveScan(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	def := geograph.Definition{Nodes: []geograph.NodeDef{{ID: "n", Lat: 0, Lon: 0}}}
	for i := range 200 {
		def.Facilities = append(def.Facilities, geograph.FacilityDef{
			ID:   geograph.ID(fmt.Sprint(i)),
			Name: fmt.Sprint("facility ", i),
			// Spread over a high-latitude band where planar and great-circle
			// orderings disagree the most.
			Lat: 55 + r.Float64()*10,
			Lon: r.Float64()*40 - 20,
		})
	}
	g, err := geograph.Build(def)
	require.NoError(t, err)

	for trial := range 100 {
		qLat, qLon := 55+r.Float64()*10, r.Float64()*40-20

		got, err := Static(g, qLat, qLon)
		require.NoError(t, err)
		want, err := Dynamic(qLat, qLon, g.Facilities())
		require.NoError(t, err)

		assert.Equal(t, want.Facility.ID, got.Facility.ID, "trial %d", trial)
		assert.InDelta(t, want.Distance, got.Distance, 1e-9, "trial %d", trial)
	}
}

func TestStatic_AcrossAntimeridianAndPoles(t *testing.T) {
	tests := []struct {
		name       string
		facilities []geograph.FacilityDef
		lat, lon   float64
		want       string
	}{
		{
			name: "east of query across 180",
			facilities: []geograph.FacilityDef{
				{ID: "east", Name: "east", Lat: 0, Lon: -179.9},
				{ID: "far", Name: "far", Lat: 0, Lon: 170},
			},
			lat: 0, lon: 179.9,
			want: "east",
		},
		{
			name: "west of query across 180",
			facilities: []geograph.FacilityDef{
				{ID: "west", Name: "west", Lat: -16.5, Lon: 179.95},
				{ID: "far", Name: "far", Lat: -16.5, Lon: -170},
			},
			lat: -16.5, lon: -179.95,
			want: "west",
		},
		{
			name: "over the pole",
			facilities: []geograph.FacilityDef{
				{ID: "opposite", Name: "opposite", Lat: 89.5, Lon: 179.5},
				{ID: "same", Name: "same side", Lat: 85, Lon: 0},
			},
			lat: 89.5, lon: 0,
			want: "opposite",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := geograph.Build(geograph.Definition{
				Nodes:      []geograph.NodeDef{{ID: "n", Lat: 0, Lon: 0}},
				Facilities: tt.facilities,
			})
			require.NoError(t, err)

			got, err := Static(g, tt.lat, tt.lon)
			require.NoError(t, err)
			want, err := Dynamic(tt.lat, tt.lon, g.Facilities())
			require.NoError(t, err)

			assert.Equal(t, tt.want, got.Facility.ID)
			assert.Equal(t, want.Facility.ID, got.Facility.ID)
			assert.InDelta(t, want.Distance, got.Distance, 1e-9)
		})
	}
}

func TestStatic_NoFacilities(t *testing.T) {
	g, err := geograph.Build(geograph.Definition{Nodes: []geograph.NodeDef{{ID: "1"}}})
	require.NoError(t, err)

	_, err = Static(g, 0, 0)
	require.ErrorIs(t, err, domain.ErrEmptyCandidateSet)
}

func TestStatic_InvalidCoordinates(t *testing.T) {
	g, err := geograph.Default()
	require.NoError(t, err)

	_, err = Static(g, 0, -181)
	require.ErrorIs(t, err, domain.ErrMalformedInput)
}
