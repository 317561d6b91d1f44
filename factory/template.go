/*
Package factory provides named presets for engine inputs.

PURPOSE:
  Builds common weekly templates and holiday sets without hand-writing slot
  lists. Used by the -seed startup flag and by tests that need a realistic
  calendar quickly.

PRESETS:
  StandardWeek:  Mon-Fri, one slot per day (default 09:00-17:00)
  FourDayWeek:   Mon-Thu, one slot per day
  SplitShift:    Mon-Fri, morning and afternoon slots

USAGE:
  template := factory.StandardWeek(8)
  holidays := factory.SingleDayHolidays("2026-12-25", "2026-01-01")
*/
package factory

import (
	"fmt"
	"time"

	"github.com/warp/schedule-engine/schedule"
)

// StandardWeek returns a Mon-Fri template with one slot of hoursPerDay
// starting at 09:00.
func StandardWeek(hoursPerDay int) schedule.WeeklyTemplate {
	return weekOf(hoursPerDay, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
}

// FourDayWeek returns a Mon-Thu template with one slot of hoursPerDay
// starting at 09:00.
func FourDayWeek(hoursPerDay int) schedule.WeeklyTemplate {
	return weekOf(hoursPerDay, time.Monday, time.Tuesday, time.Wednesday, time.Thursday)
}

// SplitShift returns a Mon-Fri template with 09:00-13:00 and 14:00-18:00
// slots (8h total per day).
func SplitShift() schedule.WeeklyTemplate {
	var template schedule.WeeklyTemplate
	for day := time.Monday; day <= time.Friday; day++ {
		template.Slots = append(template.Slots,
			schedule.WorkSlot{Weekday: day, Start: 9 * 60, End: 13 * 60},
			schedule.WorkSlot{Weekday: day, Start: 14 * 60, End: 18 * 60},
		)
	}
	return template
}

func weekOf(hoursPerDay int, days ...time.Weekday) schedule.WeeklyTemplate {
	start := schedule.MinuteOfDay(9 * 60)
	var template schedule.WeeklyTemplate
	for _, day := range days {
		template.Slots = append(template.Slots, schedule.WorkSlot{
			Weekday: day,
			Start:   start,
			End:     start + schedule.MinuteOfDay(hoursPerDay*60),
		})
	}
	return template
}

// SingleDayHolidays builds one-day holidays from YYYY-MM-DD strings.
// Unparseable dates are skipped.
func SingleDayHolidays(dates ...string) []schedule.Holiday {
	var holidays []schedule.Holiday
	for i, s := range dates {
		date, err := schedule.ParseDate(s)
		if err != nil {
			continue
		}
		holidays = append(holidays, schedule.Holiday{
			ID:    fmt.Sprintf("holiday-%d", i+1),
			Name:  s,
			Start: date,
			End:   date,
		})
	}
	return holidays
}

// HolidayRange builds a multi-day holiday (e.g. a company shutdown week).
func HolidayRange(id, name, start, end string) (schedule.Holiday, error) {
	from, err := schedule.ParseDate(start)
	if err != nil {
		return schedule.Holiday{}, err
	}
	to, err := schedule.ParseDate(end)
	if err != nil {
		return schedule.Holiday{}, err
	}
	return schedule.Holiday{ID: id, Name: name, Start: from, End: to}, nil
}
