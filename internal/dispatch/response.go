package dispatch

import (
	"encoding/json"
	"errors"
	"slices"

	"github.com/couchcryptid/hazard-route-engine/internal/domain"
)

// Document status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the outcome of one request. Exactly one of Route, Nearest or
// Err is set.
type Response struct {
	Op      Operation
	Route   *domain.RouteResult
	Nearest *domain.NearestResult
	Err     *ErrorBody
}

// ErrorBody is the payload of an error document.
type ErrorBody struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// RouteResponse wraps a successful route result.
func RouteResponse(res domain.RouteResult) Response {
	return Response{Op: OpRoute, Route: &res}
}

// NearestResponse wraps a successful nearest or dynamic_nearest result.
func NearestResponse(op Operation, res domain.NearestResult) Response {
	return Response{Op: op, Nearest: &res}
}

// ErrorResponse classifies err into an error document.
func ErrorResponse(op Operation, err error) Response {
	if err == nil {
		err = errors.New("unknown error")
	}
	return Response{Op: op, Err: &ErrorBody{Code: domain.Classify(err), Message: err.Error()}}
}

// OK reports whether the response is a success document.
func (r Response) OK() bool { return r.Err == nil }

// Status returns "success" or "error".
func (r Response) Status() string {
	if r.OK() {
		return StatusSuccess
	}
	return StatusError
}

// ExitCode is the process exit status for the CLI: 0 on success, 1 otherwise.
func (r Response) ExitCode() int {
	if r.OK() {
		return 0
	}
	return 1
}

// clone returns a copy that shares no slices with r.
func (r Response) clone() Response {
	if r.Route != nil {
		route := *r.Route
		route.Path = slices.Clone(route.Path)
		r.Route = &route
	}
	return r
}

type routeDoc struct {
	Status        string          `json:"status"`
	Path          []domain.NodeID `json:"path"`
	Cost          float64         `json:"cost"`
	Distance      float64         `json:"distance"`
	HazardPenalty float64         `json:"hazard_penalty"`
	SafetyScore   float64         `json:"safety_score"`
}

type nearestDoc struct {
	Status   string          `json:"status"`
	Facility domain.Facility `json:"facility"`
	Distance float64         `json:"distance"`
}

type errorDoc struct {
	Status string `json:"status"`
	ErrorBody
}

// MarshalJSON renders the flat result document:
//
//	{"status":"success","path":[...],"cost":..,"distance":..,"hazard_penalty":..,"safety_score":..}
//	{"status":"success","facility":{...},"distance":..}
//	{"status":"error","code":"...","message":"..."}
func (r Response) MarshalJSON() ([]byte, error) {
	switch {
	case r.Err != nil:
		return json.Marshal(errorDoc{Status: StatusError, ErrorBody: *r.Err})
	case r.Route != nil:
		return json.Marshal(routeDoc{
			Status:        StatusSuccess,
			Path:          r.Route.Path,
			Cost:          r.Route.Cost,
			Distance:      r.Route.Distance,
			HazardPenalty: r.Route.HazardPenalty,
			SafetyScore:   r.Route.SafetyScore,
		})
	case r.Nearest != nil:
		return json.Marshal(nearestDoc{
			Status:   StatusSuccess,
			Facility: r.Nearest.Facility,
			Distance: r.Nearest.Distance,
		})
	default:
		return json.Marshal(errorDoc{Status: StatusError, ErrorBody: ErrorBody{
			Code:    domain.CodeInternal,
			Message: "empty response",
		}})
	}
}
