package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/warp/schedule-engine/schedule"
)

// =============================================================================
// DOMAIN <-> DTO CONVERSIONS
// =============================================================================

func toProjectDTO(p schedule.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          string(p.ID),
		Name:        p.Name,
		Start:       p.Start.String(),
		BudgetHours: p.BudgetHours.Float64(),
		Continuous:  p.Continuous,
	}
	if p.End != nil {
		s := p.End.String()
		dto.End = &s
	}
	return dto
}

func projectFromRequest(req SaveProjectRequest) (schedule.Project, error) {
	start, err := schedule.ParseDate(req.Start)
	if err != nil {
		return schedule.Project{}, err
	}

	project := schedule.Project{
		ID:          schedule.ProjectID(req.ID),
		Name:        req.Name,
		Start:       start,
		BudgetHours: schedule.NewHours(req.BudgetHours),
		Continuous:  req.Continuous,
	}
	if req.End != nil {
		end, err := schedule.ParseDate(*req.End)
		if err != nil {
			return schedule.Project{}, err
		}
		project.End = &end
	}
	return project, nil
}

func toPhaseDTO(phase schedule.Phase) PhaseDTO {
	switch p := phase.(type) {
	case schedule.ExplicitPhase:
		start, end := p.Start.String(), p.End.String()
		hours := p.Allocated.Float64()
		return PhaseDTO{
			ID:             string(p.ID),
			ProjectID:      string(p.ProjectID),
			Name:           p.Name,
			Kind:           string(schedule.PhaseExplicit),
			Start:          &start,
			End:            &end,
			AllocatedHours: &hours,
		}
	case schedule.RecurringPhase:
		hours := p.PerOccurrence.Float64()
		rec := RecurrenceDTO{
			Freq:       string(p.Rule.Freq),
			Interval:   p.Rule.Interval,
			Anchor:     p.Rule.Anchor.String(),
			DayOfMonth: p.Rule.DayOfMonth,
		}
		if p.Rule.Weekday != nil {
			wd := int(*p.Rule.Weekday)
			rec.Weekday = &wd
		}
		if p.Rule.Nth != nil {
			rec.NthN = p.Rule.Nth.N
			rec.NthWeekday = int(p.Rule.Nth.Weekday)
		}
		return PhaseDTO{
			ID:                 string(p.ID),
			ProjectID:          string(p.ProjectID),
			Name:               p.Name,
			Kind:               string(schedule.PhaseRecurring),
			Recurrence:         &rec,
			HoursPerOccurrence: &hours,
		}
	default:
		return PhaseDTO{}
	}
}

func phaseFromRequest(req SavePhaseRequest) (schedule.Phase, error) {
	switch schedule.PhaseKind(req.Kind) {
	case schedule.PhaseExplicit:
		if req.Start == nil || req.End == nil || req.AllocatedHours == nil {
			return nil, fmt.Errorf("explicit phase requires start, end, allocated_hours")
		}
		start, err := schedule.ParseDate(*req.Start)
		if err != nil {
			return nil, err
		}
		end, err := schedule.ParseDate(*req.End)
		if err != nil {
			return nil, err
		}
		return schedule.ExplicitPhase{
			ID:        schedule.PhaseID(req.ID),
			ProjectID: schedule.ProjectID(req.ProjectID),
			Name:      req.Name,
			Start:     start,
			End:       end,
			Allocated: schedule.NewHours(*req.AllocatedHours),
		}, nil

	case schedule.PhaseRecurring:
		if req.Recurrence == nil || req.HoursPerOccurrence == nil {
			return nil, fmt.Errorf("recurring phase requires recurrence, hours_per_occurrence")
		}
		anchor, err := schedule.ParseDate(req.Recurrence.Anchor)
		if err != nil {
			return nil, err
		}
		rule := schedule.RecurrenceRule{
			Freq:       schedule.Frequency(req.Recurrence.Freq),
			Interval:   req.Recurrence.Interval,
			Anchor:     anchor,
			DayOfMonth: req.Recurrence.DayOfMonth,
		}
		if req.Recurrence.Weekday != nil {
			wd := time.Weekday(*req.Recurrence.Weekday)
			rule.Weekday = &wd
		}
		if req.Recurrence.NthN != 0 {
			rule.Nth = &schedule.NthWeekday{
				N:       req.Recurrence.NthN,
				Weekday: time.Weekday(req.Recurrence.NthWeekday),
			}
		}
		return schedule.RecurringPhase{
			ID:            schedule.PhaseID(req.ID),
			ProjectID:     schedule.ProjectID(req.ProjectID),
			Name:          req.Name,
			Rule:          rule,
			PerOccurrence: schedule.NewHours(*req.HoursPerOccurrence),
		}, nil

	default:
		return nil, fmt.Errorf("unknown phase kind %q", req.Kind)
	}
}

func toTemplateDTO(template schedule.WeeklyTemplate) TemplateDTO {
	dto := TemplateDTO{Slots: []WorkSlotDTO{}}
	for _, slot := range template.Slots {
		dto.Slots = append(dto.Slots, WorkSlotDTO{
			Weekday: int(slot.Weekday),
			Start:   slot.Start.String(),
			End:     slot.End.String(),
		})
	}
	return dto
}

func templateFromRequest(req TemplateDTO) (schedule.WeeklyTemplate, error) {
	var template schedule.WeeklyTemplate
	for i, slotDTO := range req.Slots {
		start, ok := schedule.ParseClock(slotDTO.Start)
		if !ok {
			return schedule.WeeklyTemplate{}, fmt.Errorf("slot %d: bad start %q", i, slotDTO.Start)
		}
		end, ok := schedule.ParseClock(slotDTO.End)
		if !ok {
			return schedule.WeeklyTemplate{}, fmt.Errorf("slot %d: bad end %q", i, slotDTO.End)
		}
		template.Slots = append(template.Slots, schedule.WorkSlot{
			Weekday: time.Weekday(slotDTO.Weekday),
			Start:   start,
			End:     end,
		})
	}
	return template, nil
}

func toEventDTO(e schedule.CalendarEvent) EventDTO {
	return EventDTO{
		ID:        string(e.ID),
		ProjectID: string(e.ProjectID),
		Kind:      string(e.Kind),
		Start:     e.Start.UTC().Format(time.RFC3339),
		End:       e.End.UTC().Format(time.RFC3339),
	}
}

func eventFromRequest(req EventDTO) (schedule.CalendarEvent, error) {
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		return schedule.CalendarEvent{}, err
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		return schedule.CalendarEvent{}, err
	}
	return schedule.CalendarEvent{
		ID:        schedule.EventID(req.ID),
		ProjectID: schedule.ProjectID(req.ProjectID),
		Kind:      schedule.EventKind(req.Kind),
		Start:     start,
		End:       end,
	}, nil
}

func toEstimateDTOs(estimates []schedule.DayEstimate) []EstimateDTO {
	dtos := make([]EstimateDTO, len(estimates))
	for i, e := range estimates {
		dtos[i] = EstimateDTO{
			ProjectID: string(e.ProjectID),
			Date:      e.Date.String(),
			Hours:     e.Hours.Float64(),
			Source:    string(e.Source),
		}
	}
	return dtos
}

func toContainmentDTO(report schedule.ContainmentReport) ContainmentReportDTO {
	dto := ContainmentReportDTO{Valid: report.Valid, Violations: []ContainmentViolationDTO{}}
	for _, v := range report.Violations {
		dto.Violations = append(dto.Violations, ContainmentViolationDTO{
			PhaseID: string(v.PhaseID),
			Start:   v.PhaseStart.String(),
			End:     v.PhaseEnd.String(),
			Message: v.Message,
		})
	}
	return dto
}

// windowFromQuery reads the from/to query parameters, falling back to the
// default window around today when both are omitted.
func windowFromQuery(r *http.Request, today schedule.TimePoint) (schedule.Period, error) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")

	if fromStr == "" && toStr == "" {
		return schedule.Period{
			Start: today.AddMonths(-1),
			End:   today.AddMonths(3),
		}, nil
	}
	if fromStr == "" || toStr == "" {
		return schedule.Period{}, fmt.Errorf("both from and to are required")
	}

	from, err := schedule.ParseDate(fromStr)
	if err != nil {
		return schedule.Period{}, err
	}
	to, err := schedule.ParseDate(toStr)
	if err != nil {
		return schedule.Period{}, err
	}
	window := schedule.NewPeriod(from, to)
	if !window.IsValid() {
		return schedule.Period{}, schedule.ErrInvalidPeriod
	}
	return window, nil
}
