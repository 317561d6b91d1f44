package schedule_test

import (
	"testing"
	"time"

	"github.com/warp/schedule-engine/schedule"
)

// =============================================================================
// RESOLVER TEST FIXTURES
// =============================================================================

func continuousProject(id string) schedule.Project {
	return schedule.Project{
		ID:         schedule.ProjectID(id),
		Name:       id,
		Start:      date(2026, time.January, 1),
		Continuous: true,
	}
}

func timeLimitedProject(id string, start, end schedule.TimePoint, budget float64) schedule.Project {
	return schedule.Project{
		ID:          schedule.ProjectID(id),
		Name:        id,
		Start:       start,
		End:         &end,
		BudgetHours: hours(budget),
	}
}

func mondayPhase(id, projectID string, perOccurrence float64) schedule.RecurringPhase {
	return schedule.RecurringPhase{
		ID:        schedule.PhaseID(id),
		ProjectID: schedule.ProjectID(projectID),
		Rule: schedule.RecurrenceRule{
			Freq:     schedule.FreqWeekly,
			Interval: 1,
			Anchor:   date(2026, time.January, 1),
			Weekday:  weekdayPtr(time.Monday),
		},
		PerOccurrence: hours(perOccurrence),
	}
}

// =============================================================================
// RESOLUTION TESTS
// =============================================================================

func TestResolve_ExplicitPhase_PassesThroughUnchanged(t *testing.T) {
	// GIVEN: An explicit phase whose range extends past the window
	// WHEN: Resolving with a narrow window
	// THEN: The allocation keeps the phase's own dates; explicit phases are
	//       finite and never window-bounded

	project := timeLimitedProject("p1", date(2026, time.February, 1), date(2026, time.February, 28), 40)
	phase := schedule.ExplicitPhase{
		ID:        "ph1",
		ProjectID: "p1",
		Start:     date(2026, time.February, 1),
		End:       date(2026, time.February, 28),
		Allocated: hours(40),
	}
	window := schedule.NewPeriod(date(2026, time.February, 10), date(2026, time.February, 12))

	allocations := schedule.NewPhaseResolver().Resolve(project, []schedule.Phase{phase}, &window, date(2026, time.February, 1))

	if len(allocations) != 1 {
		t.Fatalf("Expected 1 allocation, got %d", len(allocations))
	}
	alloc := allocations[0]
	if !alloc.Start.Equal(phase.Start) || !alloc.End.Equal(phase.End) {
		t.Errorf("Expected explicit phase dates %s..%s, got %s..%s", phase.Start, phase.End, alloc.Start, alloc.End)
	}
	if !alloc.Hours.Equal(hours(40)) {
		t.Errorf("Expected 40 hours, got %s", alloc.Hours)
	}
}

func TestResolve_RecurringPhase_BoundedToWindow(t *testing.T) {
	// GIVEN: A continuous project with a weekly Monday phase
	// WHEN: Resolving over March 2026
	// THEN: One same-day allocation per Monday in the window, nothing outside

	project := continuousProject("p1")
	phase := mondayPhase("ph1", "p1", 4)
	window := schedule.NewPeriod(date(2026, time.March, 1), date(2026, time.March, 31))

	allocations := schedule.NewPhaseResolver().Resolve(project, []schedule.Phase{phase}, &window, date(2026, time.March, 1))

	if len(allocations) != 5 {
		t.Fatalf("Expected 5 Monday allocations in March 2026, got %d", len(allocations))
	}
	for _, alloc := range allocations {
		if !alloc.Start.Equal(alloc.End) {
			t.Errorf("Recurring allocation should be same-day, got %s..%s", alloc.Start, alloc.End)
		}
		if alloc.Start.Weekday() != time.Monday {
			t.Errorf("Expected Monday, got %s (%s)", alloc.Start.Weekday(), alloc.Start)
		}
		if !window.Contains(alloc.Start) {
			t.Errorf("Allocation %s outside window %s", alloc.Start, window)
		}
		if !alloc.Hours.Equal(hours(4)) {
			t.Errorf("Expected 4h per occurrence, got %s", alloc.Hours)
		}
	}
}

func TestResolve_NoWindow_UsesDefaultAroundToday(t *testing.T) {
	// GIVEN: A continuous project with a weekly phase and no explicit window
	// WHEN: Resolving with a fixed "today"
	// THEN: Occurrences span roughly 1 month back to 3 months forward of
	//       today, never the project's unbounded lifetime

	project := continuousProject("p1")
	phase := mondayPhase("ph1", "p1", 4)
	today := date(2026, time.June, 15)

	allocations := schedule.NewPhaseResolver().Resolve(project, []schedule.Phase{phase}, nil, today)

	if len(allocations) == 0 {
		t.Fatal("Expected occurrences in the default window")
	}
	lowerBound := today.AddMonths(-1)
	upperBound := today.AddMonths(3)
	for _, alloc := range allocations {
		if alloc.Start.Before(lowerBound) || alloc.Start.After(upperBound) {
			t.Errorf("Occurrence %s outside default window [%s, %s]", alloc.Start, lowerBound, upperBound)
		}
	}
}

func TestResolve_TimeLimitedProject_StopsAtProjectEnd(t *testing.T) {
	// GIVEN: A time-limited project ending 2026-03-15 with a Monday phase
	// WHEN: Resolving over all of March
	// THEN: No occurrence after the project end (Mondays Mar 2 and Mar 9 only)

	end := date(2026, time.March, 15)
	project := schedule.Project{
		ID:    "p1",
		Name:  "p1",
		Start: date(2026, time.January, 1),
		End:   &end,
	}
	phase := mondayPhase("ph1", "p1", 4)
	window := schedule.NewPeriod(date(2026, time.March, 1), date(2026, time.March, 31))

	allocations := schedule.NewPhaseResolver().Resolve(project, []schedule.Phase{phase}, &window, date(2026, time.March, 1))

	if len(allocations) != 2 {
		t.Fatalf("Expected Mondays Mar 2 and Mar 9 only, got %d allocations", len(allocations))
	}
	for _, alloc := range allocations {
		if alloc.Start.After(end) {
			t.Errorf("Occurrence %s past project end %s", alloc.Start, end)
		}
	}
}

func TestResolve_SkipsPhasesOfOtherProjects(t *testing.T) {
	// GIVEN: A phase belonging to a different project
	// WHEN: Resolving
	// THEN: It is ignored

	project := continuousProject("p1")
	foreign := mondayPhase("ph-other", "p2", 4)
	window := schedule.NewPeriod(date(2026, time.March, 1), date(2026, time.March, 31))

	allocations := schedule.NewPhaseResolver().Resolve(project, []schedule.Phase{foreign}, &window, date(2026, time.March, 1))
	if len(allocations) != 0 {
		t.Errorf("Expected no allocations for a foreign phase, got %d", len(allocations))
	}
}

func TestResolve_MixedPhaseKinds_BothResolved(t *testing.T) {
	// GIVEN: A project carrying both an explicit and a recurring phase
	//        (storage does not prevent this; the resolver must tolerate it)
	// WHEN: Resolving
	// THEN: Both contribute allocations

	project := timeLimitedProject("p1", date(2026, time.March, 1), date(2026, time.March, 31), 60)
	explicit := schedule.ExplicitPhase{
		ID:        "ph-e",
		ProjectID: "p1",
		Start:     date(2026, time.March, 2),
		End:       date(2026, time.March, 6),
		Allocated: hours(20),
	}
	recurring := mondayPhase("ph-r", "p1", 4)
	window := schedule.NewPeriod(date(2026, time.March, 1), date(2026, time.March, 31))

	allocations := schedule.NewPhaseResolver().Resolve(project, []schedule.Phase{explicit, recurring}, &window, date(2026, time.March, 1))

	var explicitCount, recurringCount int
	for _, alloc := range allocations {
		switch alloc.Kind {
		case schedule.PhaseExplicit:
			explicitCount++
		case schedule.PhaseRecurring:
			recurringCount++
		}
	}
	if explicitCount != 1 {
		t.Errorf("Expected 1 explicit allocation, got %d", explicitCount)
	}
	if recurringCount != 5 {
		t.Errorf("Expected 5 recurring allocations, got %d", recurringCount)
	}
}
