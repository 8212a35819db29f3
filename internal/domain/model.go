package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Severity bounds for hazard records.
const (
	MinSeverity = 1.0
	MaxSeverity = 10.0
)

// NodeID identifies a road-network node. Numeric identifiers are carried as
// their decimal text so "1" and 1 address the same node.
type NodeID string

// Node is a road intersection or landmark. Immutable once loaded.
type Node struct {
	ID   NodeID
	Name string
	Lat  float64
	Lon  float64
}

// Point returns the node location in orb's [lon, lat] order.
func (n Node) Point() orb.Point { return orb.Point{n.Lon, n.Lat} }

// Facility is a point of interest: hospital, police station, fire station.
// Dynamic candidates use their name as identifier.
type Facility struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Type string  `json:"type,omitempty"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Point returns the facility location in orb's [lon, lat] order.
func (f Facility) Point() orb.Point { return orb.Point{f.Lon, f.Lat} }

// Hazard is a live threat near the road network: traffic jam, protest,
// construction. Hazards are request-scoped and never stored by the engine.
type Hazard struct {
	ID       string  `json:"id"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Severity float64 `json:"severity"`
	Type     string  `json:"type,omitempty"`
}

// Point returns the hazard location in orb's [lon, lat] order.
func (h Hazard) Point() orb.Point { return orb.Point{h.Lon, h.Lat} }

// ClampedSeverity returns the severity limited to [MinSeverity, MaxSeverity].
func (h Hazard) ClampedSeverity() float64 {
	return math.Min(MaxSeverity, math.Max(MinSeverity, h.Severity))
}

// RouteResult is a hazard-weighted shortest path.
type RouteResult struct {
	Path []NodeID
	// Cost is the sum of hazard-adjusted edge weights along Path.
	Cost float64
	// Distance is the sum of base edge costs along Path.
	Distance      float64
	HazardPenalty float64
	SafetyScore   float64
	// Settled counts nodes popped from the priority queue.
	Settled int
}

// NearestResult is the facility closest to a query point.
type NearestResult struct {
	Facility Facility
	// Distance is the great-circle distance in kilometres.
	Distance float64
}

// SafetyScore rates a path from 0 to 100: 100 is hazard-free, and the score
// drops by ten points per unit of penalty per kilometre, floored at zero.
func SafetyScore(penalty, distance float64) float64 {
	score := 100.0 - (penalty/(distance+0.1))*10.0
	if score < 0 {
		return 0
	}
	return score
}

// ValidCoordinate reports whether lat/lon are finite WGS-84 degrees.
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// CompareIDs orders identifiers numerically when both are integers and
// lexically otherwise. It returns -1, 0 or +1.
func CompareIDs(a, b string) int {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
