// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrArchived        = errors.New("entity is archived")

	// Configuration errors - fatal at startup, never at request time.
	ErrConfiguration = errors.New("configuration error")

	// External service errors
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrExternalService    = errors.New("external service error")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "skill", "progress", "recommend"
	Op      string // Operation that failed, e.g., "Record", "Aggregate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Skill domain errors
var (
	ErrSkillNotFound      = NewDomainError("skill", "Find", ErrNotFound, "skill not found")
	ErrSkillAlreadyExists = NewDomainError("skill", "Create", ErrAlreadyExists, "skill with this name already exists")
	ErrSkillArchived      = NewDomainError("skill", "Record", ErrArchived, "skill is archived")
	ErrUserNotFound       = NewDomainError("skill", "FindUser", ErrNotFound, "user not found")
	ErrEmptySkillName     = NewDomainError("skill", "Validate", ErrEmptyValue, "skill name cannot be empty")
	ErrNegativeDuration   = NewDomainError("skill", "Validate", ErrNegativeValue, "session duration cannot be negative")
	ErrGoalNotFound       = NewDomainError("skill", "FindGoal", ErrNotFound, "goal not found")
	ErrEntryNotFound      = NewDomainError("skill", "FindEntry", ErrNotFound, "journal entry not found")
)

// Badge domain errors
var (
	ErrUnknownCriterion = NewDomainError("badge", "Configure", ErrConfiguration, "unknown badge criterion type")
	ErrInvalidThreshold = NewDomainError("badge", "Configure", ErrConfiguration, "badge threshold must be positive")
)

// Recommendation domain errors
var (
	ErrInvalidWeights   = NewDomainError("recommend", "Configure", ErrConfiguration, "recommendation weights must be non-negative")
	ErrCatalogFetch     = NewDomainError("recommend", "Fetch", ErrCatalogUnavailable, "catalog fetch failed")
	ErrCatalogTimeout   = NewDomainError("recommend", "Fetch", ErrTimeout, "catalog fetch timed out")
	ErrCatalogRateLimit = NewDomainError("recommend", "Fetch", ErrRateLimited, "catalog rate limit exceeded")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrFutureTimestamp)
}

// IsConfiguration checks if the error is a configuration error.
// Configuration errors are fatal: the process must refuse to serve.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsCatalogUnavailable checks if the error means the external catalog
// could not be reached. These errors are absorbed at the recommendation
// boundary and degrade the response instead of failing it.
func IsCatalogUnavailable(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable) ||
		errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}
