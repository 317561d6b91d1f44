/*
budget.go - Budget and date-containment consistency

PURPOSE:
  Cross-cutting consistency rules between a project and its phases:
  - Total phase allocation must not exceed the project budget
  - Explicit phase ranges must fall inside a time-limited project's range

  Violations are reported as structured results with exact numbers, never
  auto-corrected and never surfaced as errors. The caller decides whether
  to block a save, warn, or accept.

NO IMPLICIT STATE:
  Every check is a pure function over the phases/project given to it at
  call time. Nothing here subscribes to changes or runs on a schedule.

SEE ALSO:
  - validation.go: Per-field input validation (a different layer)
*/
package schedule

// =============================================================================
// BUDGET CHECK
// =============================================================================

// BudgetReport is the result of checking phase allocations against the
// project budget.
type BudgetReport struct {
	WithinBudget   bool
	TotalAllocated Hours
	Budget         Hours
	// Overage is how far allocation exceeds the budget; zero when within.
	Overage Hours
}

// CheckBudget sums all phase allocations and compares them to the budget.
// For a recurring phase the per-occurrence amount counts once; its true
// total depends on the window and is not a stored quantity.
func CheckBudget(phases []Phase, budget Hours) BudgetReport {
	total := ZeroHours()
	for _, phase := range phases {
		total = total.Add(phase.TotalHours())
	}

	report := BudgetReport{
		WithinBudget:   true,
		TotalAllocated: total,
		Budget:         budget,
		Overage:        ZeroHours(),
	}
	if total.GreaterThan(budget) {
		report.WithinBudget = false
		report.Overage = total.Sub(budget)
	}
	return report
}

// =============================================================================
// DATE CONTAINMENT CHECK
// =============================================================================

// ContainmentViolation names one explicit phase that escapes its project's
// date range.
type ContainmentViolation struct {
	PhaseID    PhaseID
	PhaseStart TimePoint
	PhaseEnd   TimePoint
	Message    string
}

// ContainmentReport is the result of checking phase ranges against the
// project range.
type ContainmentReport struct {
	Valid      bool
	Violations []ContainmentViolation
}

// CheckDateContainment verifies every explicit phase falls inside a
// time-limited project's range. Continuous projects contain everything.
// Recurring phases are exempt: the resolver already clamps their
// occurrences to the project range.
func CheckDateContainment(phases []Phase, project Project) ContainmentReport {
	projectRange, ok := project.Range()
	if !ok {
		return ContainmentReport{Valid: true}
	}

	report := ContainmentReport{Valid: true}
	for _, phase := range phases {
		explicit, isExplicit := phase.(ExplicitPhase)
		if !isExplicit {
			continue
		}

		if projectRange.Contains(explicit.Start) && projectRange.Contains(explicit.End) {
			continue
		}
		report.Valid = false
		report.Violations = append(report.Violations, ContainmentViolation{
			PhaseID:    explicit.ID,
			PhaseStart: explicit.Start,
			PhaseEnd:   explicit.End,
			Message: "phase " + explicit.Range().String() +
				" falls outside project range " + projectRange.String(),
		})
	}
	return report
}

// =============================================================================
// RANGE SUGGESTION
// =============================================================================

// SuggestProjectRange computes the minimal project range containing every
// explicit phase (earliest phase start, latest phase end). It is a
// suggestion only; the caller decides whether to accept and persist it. The
// second return value is false when there are no explicit phases to contain.
func SuggestProjectRange(phases []Phase) (Period, bool) {
	var suggested Period
	found := false

	for _, phase := range phases {
		explicit, isExplicit := phase.(ExplicitPhase)
		if !isExplicit {
			continue
		}
		if !found {
			suggested = explicit.Range()
			found = true
			continue
		}
		if explicit.Start.Before(suggested.Start) {
			suggested.Start = explicit.Start
		}
		if explicit.End.After(suggested.End) {
			suggested.End = explicit.End
		}
	}
	if !found {
		return Period{}, false
	}
	return suggested, true
}
