/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  All sentinel errors in one place. These cover collaborator failures
  (missing records, malformed periods); calculation results themselves are
  structured values, never errors; see budget.go and validation.go.

USAGE:
  if errors.Is(err, schedule.ErrProjectNotFound) { ... }
*/
package schedule

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrProjectNotFound is returned when a referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrPhaseNotFound is returned when a referenced phase doesn't exist.
	ErrPhaseNotFound = errors.New("phase not found")

	// ErrEventNotFound is returned when a referenced event doesn't exist.
	ErrEventNotFound = errors.New("event not found")

	// ErrInvalidPeriod is returned for a malformed period (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidInput is returned when a record fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrPhaseNotFound) ||
		errors.Is(err, ErrEventNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidPeriod) ||
		IsNotFound(err)
}
