/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the internal
  domain model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

WIRE CONVENTIONS:
  - Dates as "YYYY-MM-DD" strings, timestamps as RFC3339
  - Hours as JSON numbers (decimal precision is internal)
  - Work-slot clock times as "HH:MM"

VALIDATION:
  DTOs are pure data carriers; validation happens in handlers via the
  schedule package's validation layer.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

// =============================================================================
// PROJECTS
// =============================================================================

// ProjectDTO represents a project in API responses.
type ProjectDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Start       string  `json:"start"`
	End         *string `json:"end,omitempty"`
	BudgetHours float64 `json:"budget_hours"`
	Continuous  bool    `json:"continuous"`
}

// SaveProjectRequest creates or updates a project.
type SaveProjectRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Start       string  `json:"start"`
	End         *string `json:"end,omitempty"`
	BudgetHours float64 `json:"budget_hours"`
	Continuous  bool    `json:"continuous"`
}

// =============================================================================
// PHASES
// =============================================================================

// RecurrenceDTO is the wire form of a recurrence rule.
type RecurrenceDTO struct {
	Freq       string `json:"freq"`
	Interval   int    `json:"interval"`
	Anchor     string `json:"anchor"`
	Weekday    *int   `json:"weekday,omitempty"`
	DayOfMonth int    `json:"day_of_month,omitempty"`
	NthN       int    `json:"nth_n,omitempty"`
	NthWeekday int    `json:"nth_weekday,omitempty"`
}

// PhaseDTO represents a phase of either kind; Kind discriminates which
// fields are meaningful.
type PhaseDTO struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name,omitempty"`
	Kind      string `json:"kind"`

	// Explicit phases
	Start          *string  `json:"start,omitempty"`
	End            *string  `json:"end,omitempty"`
	AllocatedHours *float64 `json:"allocated_hours,omitempty"`

	// Recurring phases
	Recurrence          *RecurrenceDTO `json:"recurrence,omitempty"`
	HoursPerOccurrence  *float64       `json:"hours_per_occurrence,omitempty"`
}

// SavePhaseRequest creates or updates a phase.
type SavePhaseRequest PhaseDTO

// =============================================================================
// SETTINGS
// =============================================================================

// WorkSlotDTO is one slot of the weekly template.
type WorkSlotDTO struct {
	Weekday int    `json:"weekday"`
	Start   string `json:"start"` // "HH:MM"
	End     string `json:"end"`   // "HH:MM"
}

// TemplateDTO is the whole weekly template.
type TemplateDTO struct {
	Slots []WorkSlotDTO `json:"slots"`
}

// HolidayDTO is an inclusive non-working date range.
type HolidayDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// =============================================================================
// EVENTS
// =============================================================================

// EventDTO is a logged calendar event.
type EventDTO struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id,omitempty"`
	Kind      string `json:"kind"`
	Start     string `json:"start"` // RFC3339
	End       string `json:"end"`   // RFC3339
}

// =============================================================================
// CALCULATION RESULTS
// =============================================================================

// EstimateDTO is one computed (project, date) estimate.
type EstimateDTO struct {
	ProjectID string  `json:"project_id"`
	Date      string  `json:"date"`
	Hours     float64 `json:"hours"`
	Source    string  `json:"source"`
}

// BudgetReportDTO reports allocation against the project budget.
type BudgetReportDTO struct {
	WithinBudget   bool    `json:"within_budget"`
	TotalAllocated float64 `json:"total_allocated"`
	Budget         float64 `json:"budget"`
	Overage        float64 `json:"overage"`
}

// ContainmentViolationDTO names one phase escaping the project range.
type ContainmentViolationDTO struct {
	PhaseID string `json:"phase_id"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Message string `json:"message"`
}

// ContainmentReportDTO reports date-containment checking.
type ContainmentReportDTO struct {
	Valid      bool                      `json:"valid"`
	Violations []ContainmentViolationDTO `json:"violations"`
}

// SuggestedRangeDTO is the minimal project range containing all phases.
// Never applied automatically; the client decides.
type SuggestedRangeDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ValidateResponse bundles the consistency checks for a save workflow.
type ValidateResponse struct {
	Budget         BudgetReportDTO      `json:"budget"`
	Containment    ContainmentReportDTO `json:"containment"`
	SuggestedRange *SuggestedRangeDTO   `json:"suggested_range,omitempty"`
}

// FieldErrorDTO is one per-field validation message.
type FieldErrorDTO struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse is returned with HTTP 400 when input validation
// blocks a save.
type ValidationErrorResponse struct {
	Error    string          `json:"error"`
	Fields   []FieldErrorDTO `json:"fields"`
	Warnings []FieldErrorDTO `json:"warnings,omitempty"`
}

// ErrorResponse is the generic error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
