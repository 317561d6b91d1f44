/*
validation.go - Upstream input validation

PURPOSE:
  The gate between user input and the calculation engine. Malformed records
  (negative hours, inverted date ranges, interval < 1, missing recurrence
  fields, midnight-crossing work slots) are rejected here with per-field
  human-readable messages; the calculator downstream assumes everything it
  is handed is valid.

RESULT SHAPE:
  Validation never panics or returns an error for bad input. It returns a
  ValidationResult with Errors (block the save) and Warnings (legal but
  suspicious, e.g. a zero-hour allocation that yields no work). Callers
  render both inline on the form.

SEE ALSO:
  - estimate.go: Relies on this gate, never re-validates
  - budget.go: Aggregate consistency is a separate, non-blocking layer
*/
package schedule

import "fmt"

// =============================================================================
// FIELD ERRORS
// =============================================================================

// FieldError attaches a human-readable message to the offending field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// ValidationResult collects blocking errors and non-blocking warnings.
type ValidationResult struct {
	Errors   []FieldError
	Warnings []FieldError
}

func (r ValidationResult) IsValid() bool { return len(r.Errors) == 0 }

func (r *ValidationResult) addError(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

func (r *ValidationResult) addWarning(field, message string) {
	r.Warnings = append(r.Warnings, FieldError{Field: field, Message: message})
}

// =============================================================================
// PROJECT VALIDATION
// =============================================================================

func ValidateProject(project Project) ValidationResult {
	var result ValidationResult

	if project.Name == "" {
		result.addError("name", "name is required")
	}
	if project.Start.IsZero() {
		result.addError("start", "start date is required")
	}
	if project.BudgetHours.IsNegative() {
		result.addError("budget_hours", "budget must not be negative")
	}

	if !project.Continuous {
		if project.End == nil {
			result.addError("end", "end date is required for time-limited projects")
		} else if project.End.Before(project.Start) {
			result.addError("end", "end date must not be before start date")
		}
	} else if project.End != nil {
		result.addWarning("end", "end date is ignored for continuous projects")
	}

	return result
}

// =============================================================================
// PHASE VALIDATION
// =============================================================================

func ValidatePhase(phase Phase) ValidationResult {
	switch p := phase.(type) {
	case ExplicitPhase:
		return validateExplicitPhase(p)
	case RecurringPhase:
		return validateRecurringPhase(p)
	default:
		var result ValidationResult
		result.addError("kind", "unknown phase kind")
		return result
	}
}

func validateExplicitPhase(phase ExplicitPhase) ValidationResult {
	var result ValidationResult

	if phase.Start.IsZero() {
		result.addError("start", "start date is required")
	}
	if phase.End.IsZero() {
		result.addError("end", "end date is required")
	} else if phase.End.Before(phase.Start) {
		result.addError("end", "end date must not be before start date")
	}

	if phase.Allocated.IsNegative() {
		result.addError("allocated_hours", "allocated hours must not be negative")
	} else if phase.Allocated.IsZero() {
		result.addWarning("allocated_hours", "zero allocated hours yields no scheduled work")
	}

	return result
}

func validateRecurringPhase(phase RecurringPhase) ValidationResult {
	var result ValidationResult

	if phase.PerOccurrence.IsNegative() {
		result.addError("hours_per_occurrence", "hours per occurrence must not be negative")
	} else if phase.PerOccurrence.IsZero() {
		result.addWarning("hours_per_occurrence", "zero hours per occurrence yields no scheduled work")
	}

	result.Errors = append(result.Errors, validateRule(phase.Rule).Errors...)
	return result
}

func validateRule(rule RecurrenceRule) ValidationResult {
	var result ValidationResult

	switch rule.Freq {
	case FreqDaily, FreqWeekly, FreqMonthly, FreqYearly:
	case "":
		result.addError("recurrence.freq", "recurrence frequency is required")
	default:
		result.addError("recurrence.freq", fmt.Sprintf("unknown frequency %q", rule.Freq))
	}

	if rule.Interval < 1 {
		result.addError("recurrence.interval", "interval must be at least 1")
	}
	if rule.Anchor.IsZero() {
		result.addError("recurrence.anchor", "anchor date is required")
	}

	if rule.DayOfMonth != 0 {
		if rule.Freq != FreqMonthly {
			result.addError("recurrence.day_of_month", "day of month only applies to monthly rules")
		} else if rule.DayOfMonth < 1 || rule.DayOfMonth > 31 {
			result.addError("recurrence.day_of_month", "day of month must be between 1 and 31")
		}
	}

	if rule.Nth != nil {
		if rule.Freq != FreqMonthly {
			result.addError("recurrence.nth", "nth-weekday only applies to monthly rules")
		} else {
			if rule.DayOfMonth != 0 {
				result.addError("recurrence.nth", "day of month and nth-weekday are mutually exclusive")
			}
			if rule.Nth.N < 1 || rule.Nth.N > 5 {
				result.addError("recurrence.nth", "nth-weekday ordinal must be between 1 and 5")
			}
		}
	}

	if rule.Weekday != nil && rule.Freq != FreqWeekly {
		result.addError("recurrence.weekday", "fixed weekday only applies to weekly rules")
	}

	return result
}

// =============================================================================
// TEMPLATE VALIDATION
// =============================================================================

func ValidateTemplate(template WeeklyTemplate) ValidationResult {
	var result ValidationResult

	for i, slot := range template.Slots {
		field := fmt.Sprintf("slots[%d]", i)
		if slot.Start < 0 || slot.Start >= 24*60 {
			result.addError(field+".start", "start must be within the day")
		}
		if slot.End < 0 || slot.End > 24*60 {
			result.addError(field+".end", "end must be within the day")
		}
		if slot.End < slot.Start {
			result.addError(field+".end", "slot must not cross midnight")
		} else if slot.End == slot.Start {
			result.addWarning(field, "zero-length slot contributes no working hours")
		}
	}

	return result
}

// =============================================================================
// EVENT VALIDATION
// =============================================================================

func ValidateEvent(event CalendarEvent) ValidationResult {
	var result ValidationResult

	if event.Start.IsZero() {
		result.addError("start", "start time is required")
	}
	if event.End.IsZero() {
		result.addError("end", "end time is required")
	}
	if !event.Start.IsZero() && !event.End.IsZero() {
		if event.End.Before(event.Start) {
			result.addError("end", "end must not be before start")
		}
		if !DateOf(event.Start).Equal(DateOf(event.End)) {
			result.addError("end", "event must start and end on the same day")
		}
	}

	switch event.Kind {
	case EventPlanned, EventCompleted, EventHabit, EventTask:
	default:
		result.addError("kind", fmt.Sprintf("unknown event kind %q", event.Kind))
	}

	return result
}
