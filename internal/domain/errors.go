package domain

import "errors"

// Sentinel errors shared by every engine component. Callers wrap them with
// fmt.Errorf("...: %w", ...) to add context; the dispatcher classifies them
// with errors.Is.
var (
	// ErrLoad indicates a malformed graph definition. Fatal at startup.
	ErrLoad = errors.New("graph load failed")

	// ErrNodeNotFound indicates a route endpoint that is absent from the store.
	ErrNodeNotFound = errors.New("node not found")

	// ErrUnreachable is a valid "no route" outcome, not a crash.
	ErrUnreachable = errors.New("no path found")

	// ErrEmptyCandidateSet indicates a nearest search with nothing to choose from.
	ErrEmptyCandidateSet = errors.New("empty candidate set")

	// ErrMalformedInput indicates bad argument encoding or values.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInternal indicates unexpected engine state.
	ErrInternal = errors.New("internal error")
)

// ErrorCode is the machine-readable error classification emitted in result documents.
type ErrorCode string

const (
	CodeLoad              ErrorCode = "load_error"
	CodeNodeNotFound      ErrorCode = "node_not_found"
	CodeUnreachable       ErrorCode = "unreachable"
	CodeEmptyCandidateSet ErrorCode = "empty_candidate_set"
	CodeMalformedInput    ErrorCode = "malformed_input"
	CodeInternal          ErrorCode = "internal_error"
)

// Classify maps an error to its code. Unknown errors, including context
// cancellation and deadline expiry, are internal.
func Classify(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrLoad):
		return CodeLoad
	case errors.Is(err, ErrNodeNotFound):
		return CodeNodeNotFound
	case errors.Is(err, ErrUnreachable):
		return CodeUnreachable
	case errors.Is(err, ErrEmptyCandidateSet):
		return CodeEmptyCandidateSet
	case errors.Is(err, ErrMalformedInput):
		return CodeMalformedInput
	default:
		return CodeInternal
	}
}
