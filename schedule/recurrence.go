/*
recurrence.go - Occurrence expansion for recurring phases

PURPOSE:
  Turns a recurrence rule (daily/weekly/monthly/yearly with an interval and
  optional day constraints) plus a bounded window into the concrete list of
  occurrence dates inside that window.

SUPPORTED RULES:
  Daily:   every N days from the anchor date
  Weekly:  every N weeks; optionally pinned to a fixed weekday, otherwise
           the anchor's weekday
  Monthly: every N months, on a fixed day-of-month or on the Nth weekday of
           the month (e.g. "2nd Tuesday"); months where the target day does
           not exist are skipped
  Yearly:  anniversary of the anchor every N years (Feb 29 anchors skip
           non-leap years)

WINDOW & FALLBACK:
  Expand returns sorted, distinct dates clipped to [windowStart, windowEnd],
  both bounds inclusive. When the window yields nothing (sparse rule, or a
  day-of-month that never materializes in the window), Expand falls back to
  the first FallbackCount occurrences from the anchor so callers always get
  something to display. The fallback never returns more than FallbackCount
  dates, keeping every expansion bounded by construction.

SEE ALSO:
  - resolver.go: Bounds the window before asking for expansion
  - validation.go: Rejects malformed rules before they reach this code
*/
package schedule

import "time"

// =============================================================================
// RECURRENCE RULE
// =============================================================================

type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
	FreqYearly  Frequency = "yearly"
)

// NthWeekday selects "the Nth <weekday> of the month", N in 1..5.
// A month without an Nth occurrence (e.g. 5th Friday) is skipped.
type NthWeekday struct {
	N       int
	Weekday time.Weekday
}

// RecurrenceRule describes a repeat pattern anchored at a start date.
// Interval must be >= 1 (enforced upstream by validation).
type RecurrenceRule struct {
	Freq     Frequency
	Interval int
	Anchor   TimePoint

	// Weekly only: pin occurrences to this weekday instead of the anchor's.
	Weekday *time.Weekday

	// Monthly only, mutually exclusive:
	DayOfMonth int         // 1..31, 0 when unset
	Nth        *NthWeekday // nil when unset
}

func (r RecurrenceRule) interval() int {
	if r.Interval < 1 {
		return 1
	}
	return r.Interval
}

// =============================================================================
// EXPANDER
// =============================================================================

// DefaultFallbackCount caps how many occurrences the degenerate-window
// fallback may generate.
const DefaultFallbackCount = 100

// maxIterations is a hard safety bound on rule stepping. No sane window
// needs anywhere near this many steps.
const maxIterations = 100000

// Expander expands recurrence rules into concrete dates.
type Expander struct {
	// FallbackCount overrides DefaultFallbackCount when > 0.
	FallbackCount int
}

func NewExpander() *Expander {
	return &Expander{FallbackCount: DefaultFallbackCount}
}

func (e *Expander) fallbackCount() int {
	if e.FallbackCount > 0 {
		return e.FallbackCount
	}
	return DefaultFallbackCount
}

// Expand returns the rule's occurrence dates within [windowStart, windowEnd],
// sorted and deduplicated. An empty window result falls back to the first
// FallbackCount occurrences from the anchor.
func (e *Expander) Expand(rule RecurrenceRule, windowStart, windowEnd TimePoint) []TimePoint {
	if windowEnd.Before(windowStart) {
		return nil
	}

	var inWindow []TimePoint
	e.generate(rule, func(occ TimePoint) bool {
		if occ.After(windowEnd) {
			return false
		}
		if occ.AfterOrEqual(windowStart) {
			inWindow = append(inWindow, occ)
		}
		return true
	})

	if len(inWindow) > 0 {
		return dedupeSorted(inWindow)
	}

	// Degenerate window: give callers the first K occurrences from the
	// anchor rather than nothing at all.
	return e.FirstOccurrences(rule, e.fallbackCount())
}

// FirstOccurrences returns up to n occurrences starting at the rule's anchor.
func (e *Expander) FirstOccurrences(rule RecurrenceRule, n int) []TimePoint {
	var occs []TimePoint
	e.generate(rule, func(occ TimePoint) bool {
		occs = append(occs, occ)
		return len(occs) < n
	})
	return dedupeSorted(occs)
}

// generate walks the rule's occurrences in ascending order from the anchor,
// calling yield for each until yield returns false or the safety bound hits.
func (e *Expander) generate(rule RecurrenceRule, yield func(TimePoint) bool) {
	switch rule.Freq {
	case FreqDaily:
		e.generateDaily(rule, yield)
	case FreqWeekly:
		e.generateWeekly(rule, yield)
	case FreqMonthly:
		e.generateMonthly(rule, yield)
	case FreqYearly:
		e.generateYearly(rule, yield)
	}
}

func (e *Expander) generateDaily(rule RecurrenceRule, yield func(TimePoint) bool) {
	current := rule.Anchor
	for i := 0; i < maxIterations; i++ {
		if !yield(current) {
			return
		}
		current = current.AddDays(rule.interval())
	}
}

func (e *Expander) generateWeekly(rule RecurrenceRule, yield func(TimePoint) bool) {
	current := rule.Anchor
	if rule.Weekday != nil {
		// First occurrence is the pinned weekday on or after the anchor.
		for current.Weekday() != *rule.Weekday {
			current = current.AddDays(1)
		}
	}
	for i := 0; i < maxIterations; i++ {
		if !yield(current) {
			return
		}
		current = current.AddDays(7 * rule.interval())
	}
}

func (e *Expander) generateMonthly(rule RecurrenceRule, yield func(TimePoint) bool) {
	year, month := rule.Anchor.Year(), rule.Anchor.Month()

	for i := 0; i < maxIterations; i++ {
		occ, ok := e.monthlyOccurrence(rule, year, month)
		if ok && occ.AfterOrEqual(rule.Anchor) {
			if !yield(occ) {
				return
			}
		}
		next := NewTimePoint(year, month, 1).AddMonths(rule.interval())
		year, month = next.Year(), next.Month()
	}
}

// monthlyOccurrence resolves the rule's target day inside one month. The
// second return value is false when the month has no such day.
func (e *Expander) monthlyOccurrence(rule RecurrenceRule, year int, month time.Month) (TimePoint, bool) {
	if rule.Nth != nil {
		return nthWeekdayOfMonth(year, month, rule.Nth.N, rule.Nth.Weekday)
	}

	day := rule.DayOfMonth
	if day == 0 {
		day = rule.Anchor.Day()
	}
	if day > DaysInMonth(year, month) {
		return TimePoint{}, false
	}
	return NewTimePoint(year, month, day), true
}

func (e *Expander) generateYearly(rule RecurrenceRule, yield func(TimePoint) bool) {
	year := rule.Anchor.Year()
	month, day := rule.Anchor.Month(), rule.Anchor.Day()

	for i := 0; i < maxIterations; i++ {
		if day <= DaysInMonth(year, month) {
			occ := NewTimePoint(year, month, day)
			if occ.AfterOrEqual(rule.Anchor) {
				if !yield(occ) {
					return
				}
			}
		}
		year += rule.interval()
	}
}

// nthWeekdayOfMonth returns the Nth occurrence of weekday in the month, or
// false if the month has fewer than N such weekdays.
func nthWeekdayOfMonth(year int, month time.Month, n int, weekday time.Weekday) (TimePoint, bool) {
	if n < 1 {
		return TimePoint{}, false
	}

	first := NewTimePoint(year, month, 1)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	day := 1 + offset + (n-1)*7
	if day > DaysInMonth(year, month) {
		return TimePoint{}, false
	}
	return NewTimePoint(year, month, day), true
}

// dedupeSorted removes adjacent duplicates from an already-sorted slice.
func dedupeSorted(dates []TimePoint) []TimePoint {
	if len(dates) == 0 {
		return dates
	}
	out := dates[:1]
	for _, d := range dates[1:] {
		if !d.Equal(out[len(out)-1]) {
			out = append(out, d)
		}
	}
	return out
}
