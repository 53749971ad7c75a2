// Package errors defines the tagged error kinds the governance core
// surfaces to callers (spec.md §7 "Error Handling Design"). Callers
// switch on Kind, never on implementation types.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind tags the category of a GovernanceError.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindInvalidState           Kind = "invalid_state"
	KindInvariantViolation     Kind = "invariant_violation"
	KindBlockedByCriticalIssue Kind = "blocked_by_critical_issue"
	KindCheckpointIncomplete   Kind = "checkpoint_incomplete"
	KindChainBroken            Kind = "chain_broken"
	KindHashTampered           Kind = "hash_tampered"
	KindQuotaExceeded          Kind = "quota_exceeded"
	KindUnauthorized           Kind = "unauthorized"
	KindRetryable              Kind = "retryable"
	KindPermanent              Kind = "permanent"
)

// GovernanceError is the core's single error type; every surfaced failure
// carries a Kind plus a human-readable message and optional structured
// details.
type GovernanceError struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *GovernanceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GovernanceError) Unwrap() error {
	return e.Err
}

// WithDetails attaches structured detail fields and returns the receiver.
func (e *GovernanceError) WithDetails(details map[string]any) *GovernanceError {
	e.Details = details
	return e
}

// New creates a GovernanceError of the given kind.
func New(kind Kind, message string) *GovernanceError {
	return &GovernanceError{Kind: kind, Message: message}
}

// Wrap creates a GovernanceError of the given kind wrapping an underlying error.
func Wrap(kind Kind, message string, err error) *GovernanceError {
	return &GovernanceError{Kind: kind, Message: message, Err: err}
}

// NotFound builds a not_found error for the given entity family and id.
func NotFound(entity, id string) *GovernanceError {
	return New(KindNotFound, fmt.Sprintf("%s %s not found", entity, id))
}

// InvalidState builds an invalid_state error for a command rejected by the
// current state.
func InvalidState(command, currentState string) *GovernanceError {
	return New(KindInvalidState, fmt.Sprintf("%s: not allowed from state %s", command, currentState))
}

// InvariantViolation builds an invariant_violation error naming the
// violated invariant and why.
func InvariantViolation(invariant, reason string) *GovernanceError {
	return New(KindInvariantViolation, fmt.Sprintf("%s: %s", invariant, reason))
}

// BlockedByCriticalIssue builds the error returned when a gate fails
// because an open critical issue impacts the report.
func BlockedByCriticalIssue(reportID string) *GovernanceError {
	return New(KindBlockedByCriticalIssue, fmt.Sprintf("report %s blocked by an open critical issue", reportID)).
		WithDetails(map[string]any{"report_id": reportID})
}

// CheckpointIncomplete builds the error returned when an advance is
// attempted before the current phase's checkpoint is satisfied.
func CheckpointIncomplete(phase string) *GovernanceError {
	return New(KindCheckpointIncomplete, fmt.Sprintf("checkpoint for phase %s is not completed", phase)).
		WithDetails(map[string]any{"phase": phase})
}

// QuotaExceeded builds the error returned when a metering quota check fails.
func QuotaExceeded(metric string) *GovernanceError {
	return New(KindQuotaExceeded, fmt.Sprintf("quota exceeded for %s", metric)).
		WithDetails(map[string]any{"metric": metric})
}

// Unauthorized builds the error returned when identity verification rejects a call.
func Unauthorized(message string) *GovernanceError {
	return New(KindUnauthorized, message)
}

// IsGovernanceError reports whether err is, or wraps, a *GovernanceError.
func IsGovernanceError(err error) bool {
	var ge *GovernanceError
	return errors.As(err, &ge)
}

// GetGovernanceError extracts the *GovernanceError from err, if any.
func GetGovernanceError(err error) (*GovernanceError, bool) {
	var ge *GovernanceError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// GetKind returns the Kind of err if it is a GovernanceError, or "" otherwise.
func GetKind(err error) Kind {
	if ge, ok := GetGovernanceError(err); ok {
		return ge.Kind
	}
	return ""
}

// httpStatus maps each Kind to the HTTP status code the cmd/governanced
// boundary returns; this is the one place the core's error taxonomy
// touches net/http.
var httpStatus = map[Kind]int{
	KindNotFound:               http.StatusNotFound,
	KindInvalidState:           http.StatusConflict,
	KindInvariantViolation:     http.StatusUnprocessableEntity,
	KindBlockedByCriticalIssue: http.StatusConflict,
	KindCheckpointIncomplete:   http.StatusConflict,
	KindChainBroken:            http.StatusUnprocessableEntity,
	KindHashTampered:           http.StatusUnprocessableEntity,
	KindQuotaExceeded:          http.StatusTooManyRequests,
	KindUnauthorized:           http.StatusUnauthorized,
	KindRetryable:              http.StatusServiceUnavailable,
	KindPermanent:              http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status code err maps to, defaulting to 500
// for non-GovernanceError or unrecognized kinds.
func HTTPStatus(err error) int {
	ge, ok := GetGovernanceError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if status, ok := httpStatus[ge.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
