package services

import (
	"errors"
	"fmt"
)

// Failure classification for one planning request. Exactly one kind is
// attached to every failure surfaced to the caller; kinds decide retry
// behavior (only UPSTREAM_UNAVAILABLE is retryable).
type ErrorKind string

const (
	KindUpstreamUnavailable ErrorKind = "UPSTREAM_UNAVAILABLE"
	KindIntentParse         ErrorKind = "INTENT_PARSE_ERROR"
	KindConstraintViolation ErrorKind = "CONSTRAINT_VIOLATION"
	KindRoutingFailed       ErrorKind = "ROUTING_FAILED"
)

// Machine-readable reason codes for constraint violations.
type ViolationReason string

const (
	ReasonOrderViolation     ViolationReason = "ORDER_VIOLATION"
	ReasonCapacityExceeded   ViolationReason = "CAPACITY_EXCEEDED"
	ReasonTimeWindowConflict ViolationReason = "TIME_WINDOW_CONFLICT"
	ReasonUnresolvedStop     ViolationReason = "UNRESOLVED_STOP"
)

// PlanError is the typed error carried between stages. Message holds only
// deterministic text derived from the request, so failure reports stay
// byte-identical across retries of the same input; the transport-level
// cause lives in Err and is logged, never reported.
type PlanError struct {
	Kind    ErrorKind
	Reason  ViolationReason
	Message string
	Err     error
}

func (e *PlanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PlanError) Unwrap() error { return e.Err }

// Retryable reports whether the orchestrator may re-issue the failing
// call. Parse, constraint and routing failures are deterministic for
// identical input and are never retried.
func (e *PlanError) Retryable() bool { return e.Kind == KindUpstreamUnavailable }

func Unavailable(message string, cause error) *PlanError {
	return &PlanError{Kind: KindUpstreamUnavailable, Message: message, Err: cause}
}

func ParseFailure(format string, args ...any) *PlanError {
	return &PlanError{Kind: KindIntentParse, Message: fmt.Sprintf(format, args...)}
}

func Violation(reason ViolationReason, format string, args ...any) *PlanError {
	return &PlanError{Kind: KindConstraintViolation, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func RoutingFailure(message string, cause error) *PlanError {
	return &PlanError{Kind: KindRoutingFailed, Message: message, Err: cause}
}

// AsPlanError extracts the typed classification from an error chain.
func AsPlanError(err error) (*PlanError, bool) {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// FailureReport is the stable outbound failure contract the API layer
// serializes. Identical input against a deterministically failing
// downstream must yield byte-identical reports.
type FailureReport struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// newFailureReport builds the report for an error observed at a stage.
// Errors without a PlanError in their chain are treated as transport
// faults with a generic deterministic message.
func newFailureReport(stage State, err error) *FailureReport {
	if pe, ok := AsPlanError(err); ok {
		return &FailureReport{
			Stage:   string(stage),
			Kind:    string(pe.Kind),
			Reason:  string(pe.Reason),
			Message: pe.Message,
		}
	}
	return &FailureReport{
		Stage:   string(stage),
		Kind:    string(KindUpstreamUnavailable),
		Message: "unexpected stage failure",
	}
}
