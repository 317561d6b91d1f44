/*
calendar.go - Working-day resolution

PURPOSE:
  Answers, for any date, "is this a working day, and how many hours does it
  offer?" given the weekly work-slot template and the holiday set.

RULES:
  A date is a working day iff:
  1. It is not inside any holiday range, AND
  2. The template has at least one slot with duration > 0 for that weekday

  WorkingHours sums the durations of that weekday's slots (0 if the date is
  not a working day).

PURITY:
  Results are a pure function of (date, template, holidays). The calendar
  caches per-date results keyed by date string; the cache only ever holds
  values the pure computation would return, so call order never matters.

SEE ALSO:
  - types.go: WorkSlot, WeeklyTemplate, Holiday
  - estimate.go: Consumes working-day lookups for allocation spreading
*/
package schedule

import "sync"

// =============================================================================
// WORKING CALENDAR
// =============================================================================

// WorkingCalendar resolves working days and hours from a weekly template and
// a holiday set. Safe for concurrent lookups.
type WorkingCalendar struct {
	template WeeklyTemplate
	holidays []Holiday

	mu    sync.RWMutex
	cache map[string]Hours
}

func NewWorkingCalendar(template WeeklyTemplate, holidays []Holiday) *WorkingCalendar {
	return &WorkingCalendar{
		template: template,
		holidays: holidays,
		cache:    make(map[string]Hours),
	}
}

// IsWorkingDay returns true if the date offers any working hours.
func (c *WorkingCalendar) IsWorkingDay(date TimePoint) bool {
	return c.WorkingHours(date).IsPositive()
}

// WorkingHours returns the total template hours the date offers, or zero for
// holidays and weekdays without slots.
func (c *WorkingCalendar) WorkingHours(date TimePoint) Hours {
	key := date.DateKey()

	c.mu.RLock()
	if h, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return h
	}
	c.mu.RUnlock()

	h := c.compute(date)

	c.mu.Lock()
	c.cache[key] = h
	c.mu.Unlock()
	return h
}

func (c *WorkingCalendar) compute(date TimePoint) Hours {
	for _, holiday := range c.holidays {
		if holiday.Contains(date) {
			return ZeroHours()
		}
	}

	total := ZeroHours()
	for _, slot := range c.template.SlotsFor(date.Weekday()) {
		total = total.Add(slot.Duration())
	}
	return total
}

// WorkingDaysIn returns every working day inside the period, in order.
func (c *WorkingCalendar) WorkingDaysIn(period Period) []TimePoint {
	var days []TimePoint
	for _, day := range period.Days() {
		if c.IsWorkingDay(day) {
			days = append(days, day)
		}
	}
	return days
}

// CountWorkingDays returns the number of working days inside the period.
func (c *WorkingCalendar) CountWorkingDays(period Period) int {
	return len(c.WorkingDaysIn(period))
}
