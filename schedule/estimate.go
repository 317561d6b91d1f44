/*
estimate.go - The day-estimate calculation

PURPOSE:
  Produces one DayEstimate per (project, date) pair that needs one, from the
  resolved phase allocations, the working calendar, and the logged events.

ALGORITHM:
  1. Every date with a qualifying logged event is claimed: it gets a single
     source=event estimate (sum of that project's event hours that day) and
     no allocation estimate, ever. Real time and estimated time are mutually
     exclusive per day.
  2. Explicit allocations divide their total hours evenly across the WORKING
     days in their range. Non-working days receive nothing and do not steal
     allocation from working days. Claimed days are suppressed, not
     redistributed. Only days inside the calculation window are emitted; the
     per-day share is unaffected by the window.
  3. Recurring occurrences contribute their fixed hours to their single day
     if it is a working day and unclaimed; otherwise they contribute nothing.
  4. A project with no phases at all spreads its total budget evenly across
     its own working days (source=project-auto-estimate). Continuous
     projects never get this fallback: without an end date there is no
     well-defined total to spread.
  5. A time-limited project that ended before today has nothing left to
     plan: only event-sourced historical entries are produced.

FAILURE SEMANTICS:
  Malformed phases (negative hours, interval < 1) are rejected upstream by
  validation.go and never reach this code. The calculator does not raise; it
  treats whatever it is handed as valid and simply computes.

SEE ALSO:
  - resolver.go: Produces the allocations consumed here
  - calendar.go: Working-day lookups
  - validation.go: The upstream gate
*/
package schedule

import "sort"

// =============================================================================
// CALCULATOR
// =============================================================================

// EstimateInput carries everything one calculation needs. Today is an
// explicit parameter so tests can fix it and results stay reproducible.
type EstimateInput struct {
	Project     Project
	Allocations []Allocation

	// HasPhases distinguishes "the project has no phases at all" (budget
	// fallback applies) from "its phases resolved to nothing in this
	// window" (no fallback).
	HasPhases bool

	Calendar *WorkingCalendar
	Events   []CalendarEvent
	Window   Period
	Today    TimePoint
}

// Calculator computes day estimates. It is stateless; the zero value is
// ready to use.
type Calculator struct{}

func NewCalculator() *Calculator { return &Calculator{} }

// Calculate returns the project's day estimates, sorted by date, at most
// one per date.
func (c *Calculator) Calculate(input EstimateInput) []DayEstimate {
	var estimates []DayEstimate

	// 1. Event days claim first.
	claimed := make(map[string]bool)
	for date, hours := range c.eventHoursByDate(input.Project.ID, input.Events) {
		claimed[date.DateKey()] = true
		estimates = append(estimates, DayEstimate{
			ProjectID: input.Project.ID,
			Date:      date,
			Hours:     hours,
			Source:    SourceEvent,
		})
	}

	// 2. A fully-past project has nothing left to plan.
	if input.Project.IsFullyPast(input.Today) {
		sortEstimates(estimates)
		return estimates
	}

	// 3. Allocation estimates on unclaimed working days, or the budget
	// fallback for projects without phases.
	var allocated map[TimePoint]Hours
	source := SourcePhaseAllocation
	if input.HasPhases {
		allocated = c.allocationHoursByDate(input, claimed)
	} else {
		allocated = c.autoEstimateByDate(input, claimed)
		source = SourceProjectAuto
	}

	for date, hours := range allocated {
		estimates = append(estimates, DayEstimate{
			ProjectID: input.Project.ID,
			Date:      date,
			Hours:     hours,
			Source:    source,
		})
	}

	sortEstimates(estimates)
	return estimates
}

// eventHoursByDate sums qualifying event hours per date.
func (c *Calculator) eventHoursByDate(projectID ProjectID, events []CalendarEvent) map[TimePoint]Hours {
	byDate := make(map[TimePoint]Hours)
	for _, event := range events {
		if !event.QualifiesForScheduling(projectID) {
			continue
		}
		date := event.Date()
		byDate[date] = byDate[date].Add(event.Duration())
	}
	return byDate
}

// allocationHoursByDate spreads every allocation over its working days,
// summing overlapping allocations so each date keeps a single entry.
func (c *Calculator) allocationHoursByDate(input EstimateInput, claimed map[string]bool) map[TimePoint]Hours {
	byDate := make(map[TimePoint]Hours)

	for _, alloc := range input.Allocations {
		if !alloc.Hours.IsPositive() {
			// Zero-hour allocations yield no entries; absence implies zero.
			continue
		}

		switch alloc.Kind {
		case PhaseRecurring:
			// A single-day occurrence applies as-is, or not at all. It is
			// never redistributed to adjacent days.
			day := alloc.Start
			if claimed[day.DateKey()] || !input.Calendar.IsWorkingDay(day) {
				continue
			}
			byDate[day] = byDate[day].Add(alloc.Hours)

		default:
			workingDays := input.Calendar.WorkingDaysIn(alloc.Range())
			if len(workingDays) == 0 {
				continue
			}
			// Per-day share over the full phase range; emission limited to
			// the window, where the caller has loaded events to check against.
			perDay := alloc.Hours.Div(int64(len(workingDays)))
			for _, day := range workingDays {
				if claimed[day.DateKey()] || !input.Window.Contains(day) {
					continue
				}
				byDate[day] = byDate[day].Add(perDay)
			}
		}
	}
	return byDate
}

// autoEstimateByDate spreads the project budget evenly across the project's
// own working days. The per-day share is computed over the full project
// range; output is limited to the calculation window so scrolling never
// changes a day's value.
func (c *Calculator) autoEstimateByDate(input EstimateInput, claimed map[string]bool) map[TimePoint]Hours {
	projectRange, ok := input.Project.Range()
	if !ok || !input.Project.BudgetHours.IsPositive() {
		return nil
	}

	workingDays := input.Calendar.WorkingDaysIn(projectRange)
	if len(workingDays) == 0 {
		return nil
	}
	perDay := input.Project.BudgetHours.Div(int64(len(workingDays)))

	visible, overlaps := projectRange.Intersect(input.Window)
	if !overlaps {
		return nil
	}

	byDate := make(map[TimePoint]Hours)
	for _, day := range workingDays {
		if !visible.Contains(day) || claimed[day.DateKey()] {
			continue
		}
		byDate[day] = perDay
	}
	return byDate
}

func sortEstimates(estimates []DayEstimate) {
	sort.Slice(estimates, func(i, j int) bool {
		return estimates[i].Date.Before(estimates[j].Date)
	})
}
