package rules

import (
	"fmt"
	"strings"
)

// ErrorCode is a stable machine-readable code for a rule violation.
type ErrorCode string

const (
	// Movement / shipment codes
	ErrSourceInStorm          ErrorCode = "SOURCE_IN_STORM"
	ErrDestinationInStorm     ErrorCode = "DESTINATION_IN_STORM"
	ErrInvalidSector          ErrorCode = "INVALID_SECTOR"
	ErrInvalidDestination     ErrorCode = "INVALID_DESTINATION"
	ErrNoPathAvailable        ErrorCode = "NO_PATH_AVAILABLE"
	ErrExceedsMovementRange   ErrorCode = "EXCEEDS_MOVEMENT_RANGE"
	ErrOccupancyLimitExceeded ErrorCode = "OCCUPANCY_LIMIT_EXCEEDED"
	ErrInsufficientReserves   ErrorCode = "INSUFFICIENT_RESERVES"
	ErrInsufficientForces     ErrorCode = "INSUFFICIENT_FORCES"
	ErrInvalidTerritory       ErrorCode = "INVALID_TERRITORY"

	// Battle plan codes
	ErrForcesExceedPresent ErrorCode = "FORCES_EXCEED_PRESENT"
	ErrCardNotHeld         ErrorCode = "CARD_NOT_HELD"
	ErrInvalidCard         ErrorCode = "INVALID_CARD"
	ErrLeaderUnavailable   ErrorCode = "LEADER_UNAVAILABLE"
	ErrLeaderRequired      ErrorCode = "LEADER_REQUIRED"
	ErrInsufficientSpice   ErrorCode = "INSUFFICIENT_SPICE"
	ErrPlanAlreadyLocked   ErrorCode = "PLAN_ALREADY_LOCKED"
	ErrVoiceViolated       ErrorCode = "VOICE_VIOLATED"

	// Protocol codes
	ErrUnexpectedResponse ErrorCode = "UNEXPECTED_RESPONSE"
	ErrInvalidResponse    ErrorCode = "INVALID_RESPONSE"
	ErrNotYourTurn        ErrorCode = "NOT_YOUR_TURN"
)

// ValidationError describes a single rule violation in enough detail for the
// decision-maker to correct and resubmit.
type ValidationError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Value   string    `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Invalid builds a ValidationError with a formatted message.
func Invalid(code ErrorCode, field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Field:   field,
	}
}

// ValidationResult aggregates every violation found by a validator. Callers
// collect all applicable errors rather than stopping at the first, except
// where an earlier check is a precondition for later ones.
type ValidationResult struct {
	Errors []*ValidationError `json:"errors,omitempty"`
}

// Valid reports whether no violations were recorded.
func (r *ValidationResult) Valid() bool {
	return r == nil || len(r.Errors) == 0
}

// Add appends violations; nil errors are ignored.
func (r *ValidationResult) Add(errs ...*ValidationError) {
	for _, e := range errs {
		if e != nil {
			r.Errors = append(r.Errors, e)
		}
	}
}

// Merge folds another result's violations into this one.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other != nil {
		r.Errors = append(r.Errors, other.Errors...)
	}
}

// Has reports whether a violation with the given code was recorded.
func (r *ValidationResult) Has(code ErrorCode) bool {
	if r == nil {
		return false
	}
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

func (r *ValidationResult) String() string {
	if r.Valid() {
		return "valid"
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}
