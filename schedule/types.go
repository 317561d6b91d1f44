/*
Package schedule provides the day-estimate scheduling engine.

PURPOSE:
  This package contains the domain types and algorithms that turn a project's
  phases (fixed date ranges or recurring patterns), a weekly working-hours
  template, holidays, and already-logged calendar events into per-day hour
  estimates, and that keep phase and project budgets mutually consistent.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: A decimal-backed quantity of working hours
  - Project: The planning unit that owns phases, a budget, and a date range
  - Phase: A time-bounded (ExplicitPhase) or repeating (RecurringPhase)
    allocation of hours within a project
  - WorkSlot / WeeklyTemplate: The user's weekly working-hours pattern
  - Holiday: A date range that is never a working day
  - CalendarEvent: Logged real time, which excludes estimated time
  - DayEstimate: The engine's output, one entry per (project, date)

DESIGN PRINCIPLES:
  1. Purity: Every calculation is a function from inputs to outputs; the
     engine holds no state between calls
  2. Precision: Uses decimal.Decimal so even hour splits are exact
  3. Type Safety: Phase variants are distinct types, so a phase cannot be
     explicit and recurring at the same time
  4. Bounded cost: Recurring expansion is always clipped to a finite window

SEE ALSO:
  - calendar.go: Working-day resolution
  - recurrence.go: Occurrence expansion for recurring phases
  - resolver.go: Phase normalization into uniform allocations
  - estimate.go: The per-day estimate calculation
  - budget.go: Budget and date-containment consistency checks
*/
package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - Decimal quantity of working hours
// =============================================================================

type Hours struct {
	Value decimal.Decimal
}

func NewHours(v float64) Hours         { return Hours{Value: decimal.NewFromFloat(v)} }
func NewHoursFromInt(v int) Hours      { return Hours{Value: decimal.NewFromInt(int64(v))} }
func ZeroHours() Hours                 { return Hours{Value: decimal.Zero} }
func HoursFromDuration(d time.Duration) Hours {
	return Hours{Value: decimal.NewFromFloat(d.Hours())}
}

func (h Hours) Add(o Hours) Hours            { return Hours{Value: h.Value.Add(o.Value)} }
func (h Hours) Sub(o Hours) Hours            { return Hours{Value: h.Value.Sub(o.Value)} }
func (h Hours) Div(n int64) Hours            { return Hours{Value: h.Value.Div(decimal.NewFromInt(n))} }
func (h Hours) Neg() Hours                   { return Hours{Value: h.Value.Neg()} }
func (h Hours) IsZero() bool                 { return h.Value.IsZero() }
func (h Hours) IsNegative() bool             { return h.Value.IsNegative() }
func (h Hours) IsPositive() bool             { return h.Value.IsPositive() }
func (h Hours) GreaterThan(o Hours) bool     { return h.Value.GreaterThan(o.Value) }
func (h Hours) LessThan(o Hours) bool        { return h.Value.LessThan(o.Value) }
func (h Hours) Equal(o Hours) bool           { return h.Value.Equal(o.Value) }
func (h Hours) Float64() float64             { f, _ := h.Value.Float64(); return f }
func (h Hours) String() string               { return h.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProjectID string
type PhaseID string
type EventID string

// =============================================================================
// PROJECT
// =============================================================================

// Project is the planning unit. A continuous project has no planned end
// date; a time-limited project has End >= Start.
type Project struct {
	ID          ProjectID
	Name        string
	Start       TimePoint
	End         *TimePoint // nil for continuous projects
	BudgetHours Hours
	Continuous  bool
}

// IsTimeLimited returns true if the project has a planned end date.
func (p Project) IsTimeLimited() bool {
	return !p.Continuous && p.End != nil
}

// Range returns the project's date range. The second return value is false
// for continuous projects, which have no bounded range.
func (p Project) Range() (Period, bool) {
	if !p.IsTimeLimited() {
		return Period{}, false
	}
	return Period{Start: p.Start, End: *p.End}, true
}

// IsFullyPast returns true if a time-limited project ended strictly before
// today. Such a project is still a valid record; it just has nothing left
// to plan.
func (p Project) IsFullyPast(today TimePoint) bool {
	return p.IsTimeLimited() && p.End.Before(today)
}

// =============================================================================
// PHASE - Tagged variant: explicit or recurring, never both
// =============================================================================

type PhaseKind string

const (
	PhaseExplicit  PhaseKind = "explicit"
	PhaseRecurring PhaseKind = "recurring"
)

// Phase is implemented by exactly two concrete types, ExplicitPhase and
// RecurringPhase. The resolver type-switches on the concrete type, so a
// phase cannot accidentally carry both shapes at once.
type Phase interface {
	PhaseID() PhaseID
	PhaseProjectID() ProjectID
	Kind() PhaseKind

	// TotalHours returns the phase's hour allocation: the full spread for an
	// explicit phase, the per-occurrence amount for a recurring one.
	TotalHours() Hours
}

// ExplicitPhase is a concrete date range with a total hour allocation
// spread evenly across the working days inside it.
type ExplicitPhase struct {
	ID        PhaseID
	ProjectID ProjectID
	Name      string
	Start     TimePoint
	End       TimePoint
	Allocated Hours
}

func (p ExplicitPhase) PhaseID() PhaseID           { return p.ID }
func (p ExplicitPhase) PhaseProjectID() ProjectID  { return p.ProjectID }
func (p ExplicitPhase) Kind() PhaseKind            { return PhaseExplicit }
func (p ExplicitPhase) TotalHours() Hours          { return p.Allocated }
func (p ExplicitPhase) Range() Period              { return Period{Start: p.Start, End: p.End} }

// RecurringPhase repeats per a recurrence rule, contributing a fixed number
// of hours on each occurrence day. It has no end of its own; occurrences
// stop at the parent project's end date when the project is time-limited.
type RecurringPhase struct {
	ID            PhaseID
	ProjectID     ProjectID
	Name          string
	Rule          RecurrenceRule
	PerOccurrence Hours
}

func (p RecurringPhase) PhaseID() PhaseID          { return p.ID }
func (p RecurringPhase) PhaseProjectID() ProjectID { return p.ProjectID }
func (p RecurringPhase) Kind() PhaseKind           { return PhaseRecurring }
func (p RecurringPhase) TotalHours() Hours         { return p.PerOccurrence }

// =============================================================================
// WEEKLY TEMPLATE - Work slots per weekday
// =============================================================================

// WorkSlot is a working interval within a single day. Start and End are
// minutes since midnight; a slot must not cross midnight, so End >= Start.
type WorkSlot struct {
	Weekday time.Weekday
	Start   MinuteOfDay
	End     MinuteOfDay
}

// Duration returns the slot's length in hours, derived from its bounds.
func (s WorkSlot) Duration() Hours {
	minutes := int64(s.End - s.Start)
	if minutes <= 0 {
		return ZeroHours()
	}
	return Hours{Value: decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60))}
}

// MinuteOfDay is a clock time as minutes since midnight (0..1440).
type MinuteOfDay int

// ParseClock parses an "HH:MM" string.
func ParseClock(s string) (MinuteOfDay, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return MinuteOfDay(t.Hour()*60 + t.Minute()), true
}

func (m MinuteOfDay) String() string {
	return time.Date(0, 1, 1, int(m)/60, int(m)%60, 0, 0, time.UTC).Format("15:04")
}

// WeeklyTemplate is the user's recurring weekly working-hours pattern.
// Multiple slots per weekday are allowed (split shifts).
type WeeklyTemplate struct {
	Slots []WorkSlot
}

// SlotsFor returns the template's slots for a weekday.
func (t WeeklyTemplate) SlotsFor(day time.Weekday) []WorkSlot {
	var slots []WorkSlot
	for _, s := range t.Slots {
		if s.Weekday == day {
			slots = append(slots, s)
		}
	}
	return slots
}

// =============================================================================
// HOLIDAY - Inclusive non-working date range
// =============================================================================

type Holiday struct {
	ID    string
	Name  string
	Start TimePoint
	End   TimePoint // inclusive; equal to Start for a single day
}

func (h Holiday) Contains(date TimePoint) bool {
	return Period{Start: h.Start, End: h.End}.Contains(date)
}

// =============================================================================
// CALENDAR EVENT - Logged real time
// =============================================================================

type EventKind string

const (
	EventPlanned   EventKind = "planned"
	EventCompleted EventKind = "completed"
	EventHabit     EventKind = "habit"
	EventTask      EventKind = "task"
)

// CalendarEvent is a logged block of time, optionally linked to a project.
// Start and End fall on the same calendar day.
type CalendarEvent struct {
	ID        EventID
	ProjectID ProjectID // empty when not linked to a project
	Kind      EventKind
	Start     time.Time
	End       time.Time
}

// QualifiesForScheduling reports whether this event claims its day for the
// given project: it must be linked to that project and be real planned or
// completed time, not a habit or task.
func (e CalendarEvent) QualifiesForScheduling(projectID ProjectID) bool {
	if e.ProjectID == "" || e.ProjectID != projectID {
		return false
	}
	return e.Kind == EventPlanned || e.Kind == EventCompleted
}

// Date returns the calendar date the event falls on.
func (e CalendarEvent) Date() TimePoint {
	return DateOf(e.Start)
}

// Duration returns the event's length in hours.
func (e CalendarEvent) Duration() Hours {
	d := e.End.Sub(e.Start)
	if d <= 0 {
		return ZeroHours()
	}
	return HoursFromDuration(d)
}

// =============================================================================
// DAY ESTIMATE - Engine output
// =============================================================================

type EstimateSource string

const (
	// SourceEvent: hours come from logged calendar events.
	SourceEvent EstimateSource = "event"
	// SourcePhaseAllocation: hours come from an explicit or recurring phase.
	SourcePhaseAllocation EstimateSource = "phase-allocation"
	// SourceProjectAuto: fallback spread of the project budget when the
	// project has no phases at all.
	SourceProjectAuto EstimateSource = "project-auto-estimate"
)

// DayEstimate is the computed hours for one (project, date) pair. The engine
// emits at most one estimate per pair; an event-sourced entry always wins
// over allocation-sourced ones.
type DayEstimate struct {
	ProjectID ProjectID
	Date      TimePoint
	Hours     Hours
	Source    EstimateSource
}
