/*
resolver.go - Phase normalization

PURPOSE:
  Normalizes a project's phases into a uniform sequence of time-bounded
  allocations. Explicit phases pass through with their own dates. Recurring
  phases are expanded into one same-day allocation per occurrence, bounded
  to the calculation window rather than the project's full lifetime.

WHY BOUNDED:
  Unbounded recurrence expansion for a years-long continuous project is the
  dominant cost center of the whole engine. Resolving only the visible
  window turns an O(years x frequency) computation into O(visible-days).

WINDOW RULES:
  - Caller supplies the currently-visible range (plus its own buffer).
  - No window supplied: a default window around the caller-supplied "today"
    is used (1 month back, 3 months forward). "Today" is always an explicit
    parameter, never the system clock, so results are reproducible.
  - Time-limited project: occurrences stop at the project's end date and
    never start before the project's start date.

SEE ALSO:
  - recurrence.go: The expansion itself
  - estimate.go: Consumes the resolved allocations
*/
package schedule

// Default window around "today" when no calculation window is supplied.
const (
	defaultWindowMonthsBack    = 1
	defaultWindowMonthsForward = 3
)

// =============================================================================
// ALLOCATION - Uniform resolved phase
// =============================================================================

// Allocation is a phase normalized to a concrete date range with hours.
// A recurring occurrence becomes a same-day allocation (Start == End).
type Allocation struct {
	PhaseID PhaseID
	Kind    PhaseKind
	Start   TimePoint
	End     TimePoint
	Hours   Hours
}

func (a Allocation) Range() Period { return Period{Start: a.Start, End: a.End} }

// =============================================================================
// PHASE RESOLVER
// =============================================================================

// PhaseResolver turns phases into allocations bounded to a calculation
// window.
type PhaseResolver struct {
	Expander *Expander
}

func NewPhaseResolver() *PhaseResolver {
	return &PhaseResolver{Expander: NewExpander()}
}

// Resolve normalizes the project's phases. window may be nil; today anchors
// the default window and must be supplied by the caller.
func (r *PhaseResolver) Resolve(project Project, phases []Phase, window *Period, today TimePoint) []Allocation {
	win := r.effectiveWindow(window, today)

	var allocations []Allocation
	for _, phase := range phases {
		if phase.PhaseProjectID() != project.ID {
			continue
		}

		switch p := phase.(type) {
		case ExplicitPhase:
			// Explicit phases are small and finite; they pass through with
			// their own dates, independent of the window.
			allocations = append(allocations, Allocation{
				PhaseID: p.ID,
				Kind:    PhaseExplicit,
				Start:   p.Start,
				End:     p.End,
				Hours:   p.Allocated,
			})
		case RecurringPhase:
			allocations = append(allocations, r.resolveRecurring(project, p, win)...)
		}
	}
	return allocations
}

func (r *PhaseResolver) resolveRecurring(project Project, phase RecurringPhase, win Period) []Allocation {
	// Clamp expansion to the project's own range for time-limited projects.
	if projectRange, ok := project.Range(); ok {
		clipped, overlaps := win.Intersect(projectRange)
		if !overlaps {
			return nil
		}
		win = clipped
	}

	expander := r.Expander
	if expander == nil {
		expander = NewExpander()
	}

	var allocations []Allocation
	for _, occ := range expander.Expand(phase.Rule, win.Start, win.End) {
		// The fallback path can hand back dates outside the project range;
		// a time-limited project never schedules past its end.
		if projectRange, ok := project.Range(); ok && !projectRange.Contains(occ) {
			continue
		}
		allocations = append(allocations, Allocation{
			PhaseID: phase.ID,
			Kind:    PhaseRecurring,
			Start:   occ,
			End:     occ,
			Hours:   phase.PerOccurrence,
		})
	}
	return allocations
}

func (r *PhaseResolver) effectiveWindow(window *Period, today TimePoint) Period {
	if window != nil && window.IsValid() {
		return *window
	}
	return Period{
		Start: today.AddMonths(-defaultWindowMonthsBack),
		End:   today.AddMonths(defaultWindowMonthsForward),
	}
}
