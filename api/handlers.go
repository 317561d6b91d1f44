/*
handlers.go - HTTP handlers for the scheduling API

PURPOSE:
  Implements the REST endpoints. Handlers load engine inputs from the store,
  invoke the pure calculation code in the schedule package, and translate
  between DTOs and domain types.

PATTERN:
  Parse request -> validate -> load from store -> compute -> respond.
  Saves run the schedule validation layer first and return 400 with
  per-field messages when it blocks; budget/containment checks are exposed
  on a separate endpoint and never block by themselves.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 500: Internal errors

CACHING:
  Estimate results are memoized per (project, phase set, window, today).
  Project and phase mutations invalidate the affected project; template,
  holiday, and event changes clear everything, since an event save or
  delete can touch a project other than the one it now names.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - schedule: The calculation engine
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/schedule-engine/schedule"
	"github.com/warp/schedule-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Resolver   *schedule.PhaseResolver
	Calculator *schedule.Calculator
	Cache      *schedule.EstimateCache

	// Now returns the current time; swapped in tests for reproducibility.
	Now func() time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:      store,
		Resolver:   schedule.NewPhaseResolver(),
		Calculator: schedule.NewCalculator(),
		Cache:      schedule.NewEstimateCache(),
		Now:        time.Now,
	}
}

func (h *Handler) today() schedule.TimePoint {
	return schedule.DateOf(h.Now())
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// ListProjects returns all projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}

	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProject returns a single project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id := schedule.ProjectID(chi.URLParam(r, "id"))

	project, err := h.Store.GetProject(r.Context(), id)
	if schedule.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(project))
}

// SaveProject creates or updates a project.
func (h *Handler) SaveProject(w http.ResponseWriter, r *http.Request) {
	var req SaveProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	project, err := projectFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	if result := schedule.ValidateProject(project); !result.IsValid() {
		writeValidationError(w, result)
		return
	}

	if err := h.Store.SaveProject(r.Context(), project); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save project", err)
		return
	}

	h.Cache.Invalidate(project.ID)
	writeJSON(w, http.StatusOK, toProjectDTO(project))
}

// DeleteProject removes a project and its phases.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := schedule.ProjectID(chi.URLParam(r, "id"))

	err := h.Store.DeleteProject(r.Context(), id)
	if schedule.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete project", err)
		return
	}

	h.Cache.Invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PHASE HANDLERS
// =============================================================================

// ListPhases returns a project's phases.
func (h *Handler) ListPhases(w http.ResponseWriter, r *http.Request) {
	projectID := schedule.ProjectID(chi.URLParam(r, "id"))

	phases, err := h.Store.ListPhases(r.Context(), projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list phases", err)
		return
	}

	dtos := make([]PhaseDTO, len(phases))
	for i, p := range phases {
		dtos[i] = toPhaseDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SavePhase creates or updates a phase.
func (h *Handler) SavePhase(w http.ResponseWriter, r *http.Request) {
	var req SavePhaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.ProjectID = chi.URLParam(r, "id")

	phase, err := phaseFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid phase", err)
		return
	}

	if result := schedule.ValidatePhase(phase); !result.IsValid() {
		writeValidationError(w, result)
		return
	}

	if _, err := h.Store.GetProject(r.Context(), phase.PhaseProjectID()); err != nil {
		if schedule.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Project not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load project", err)
		return
	}

	if err := h.Store.SavePhase(r.Context(), phase); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save phase", err)
		return
	}

	h.Cache.Invalidate(phase.PhaseProjectID())
	writeJSON(w, http.StatusOK, toPhaseDTO(phase))
}

// DeletePhase removes a phase.
func (h *Handler) DeletePhase(w http.ResponseWriter, r *http.Request) {
	projectID := schedule.ProjectID(chi.URLParam(r, "id"))
	phaseID := schedule.PhaseID(chi.URLParam(r, "phaseID"))

	err := h.Store.DeletePhase(r.Context(), phaseID)
	if schedule.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Phase not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete phase", err)
		return
	}

	h.Cache.Invalidate(projectID)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ESTIMATE ENDPOINT
// =============================================================================

// GetEstimates computes day estimates for a project over a window.
//
// Query parameters:
//
//	from, to:  calculation window (YYYY-MM-DD); defaults to 1 month back /
//	           3 months forward of today when omitted
//	today:     overrides "today" for reproducible results (YYYY-MM-DD)
func (h *Handler) GetEstimates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := schedule.ProjectID(chi.URLParam(r, "id"))

	today := h.today()
	if s := r.URL.Query().Get("today"); s != "" {
		parsed, err := schedule.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid today parameter (use YYYY-MM-DD)", err)
			return
		}
		today = parsed
	}

	window, err := windowFromQuery(r, today)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid window (use YYYY-MM-DD from/to)", err)
		return
	}

	project, err := h.Store.GetProject(ctx, projectID)
	if schedule.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load project", err)
		return
	}

	phases, err := h.Store.ListPhases(ctx, projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load phases", err)
		return
	}

	key := h.Cache.Key(projectID, phases, window) + "|" + today.DateKey()
	if cached, ok := h.Cache.Get(key); ok {
		writeJSON(w, http.StatusOK, toEstimateDTOs(cached))
		return
	}

	template, err := h.Store.GetTemplate(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load template", err)
		return
	}
	holidays, err := h.Store.ListHolidays(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load holidays", err)
		return
	}
	events, err := h.Store.ListEventsInRange(ctx, window.Start, window.End)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load events", err)
		return
	}

	allocations := h.Resolver.Resolve(project, phases, &window, today)
	estimates := h.Calculator.Calculate(schedule.EstimateInput{
		Project:     project,
		Allocations: allocations,
		HasPhases:   len(phases) > 0,
		Calendar:    schedule.NewWorkingCalendar(template, holidays),
		Events:      events,
		Window:      window,
		Today:       today,
	})

	h.Cache.Put(projectID, key, estimates)
	writeJSON(w, http.StatusOK, toEstimateDTOs(estimates))
}

// =============================================================================
// VALIDATION ENDPOINT
// =============================================================================

// ValidateProject runs the budget and date-containment checks for a
// project's current phases. Violations are warnings for the client's save
// workflow, never hard failures here.
func (h *Handler) ValidateProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := schedule.ProjectID(chi.URLParam(r, "id"))

	project, err := h.Store.GetProject(ctx, projectID)
	if schedule.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load project", err)
		return
	}

	phases, err := h.Store.ListPhases(ctx, projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load phases", err)
		return
	}

	budget := schedule.CheckBudget(phases, project.BudgetHours)
	containment := schedule.CheckDateContainment(phases, project)

	resp := ValidateResponse{
		Budget: BudgetReportDTO{
			WithinBudget:   budget.WithinBudget,
			TotalAllocated: budget.TotalAllocated.Float64(),
			Budget:         budget.Budget.Float64(),
			Overage:        budget.Overage.Float64(),
		},
		Containment: toContainmentDTO(containment),
	}
	if suggested, ok := schedule.SuggestProjectRange(phases); ok {
		resp.SuggestedRange = &SuggestedRangeDTO{
			Start: suggested.Start.String(),
			End:   suggested.End.String(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetTemplate returns the weekly template.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	template, err := h.Store.GetTemplate(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load template", err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateDTO(template))
}

// PutTemplate replaces the weekly template.
func (h *Handler) PutTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	template, err := templateFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid slot time (use HH:MM)", err)
		return
	}

	if result := schedule.ValidateTemplate(template); !result.IsValid() {
		writeValidationError(w, result)
		return
	}

	if err := h.Store.ReplaceTemplate(r.Context(), template); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save template", err)
		return
	}

	// Template affects every project's estimates.
	h.Cache.Clear()
	writeJSON(w, http.StatusOK, toTemplateDTO(template))
}

// ListHolidays returns all holidays.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, holiday := range holidays {
		dtos[i] = HolidayDTO{
			ID:    holiday.ID,
			Name:  holiday.Name,
			Start: holiday.Start.String(),
			End:   holiday.End.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveHoliday creates or updates a holiday.
func (h *Handler) SaveHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := schedule.ParseDate(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", err)
		return
	}
	end, err := schedule.ParseDate(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date (use YYYY-MM-DD)", err)
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "Holiday end must not be before start", nil)
		return
	}

	holiday := schedule.Holiday{ID: req.ID, Name: req.Name, Start: start, End: end}
	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}

	h.Cache.Clear()
	writeJSON(w, http.StatusOK, req)
}

// DeleteHoliday removes a holiday.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	h.Cache.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

// ListEvents returns events in a date range (from/to query parameters).
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	window, err := windowFromQuery(r, h.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid window (use YYYY-MM-DD from/to)", err)
		return
	}

	events, err := h.Store.ListEventsInRange(r.Context(), window.Start, window.End)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events", err)
		return
	}

	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dtos[i] = toEventDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveEvent creates or updates an event.
func (h *Handler) SaveEvent(w http.ResponseWriter, r *http.Request) {
	var req EventDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	event, err := eventFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid timestamps (use RFC3339)", err)
		return
	}

	if result := schedule.ValidateEvent(event); !result.IsValid() {
		writeValidationError(w, result)
		return
	}

	if err := h.Store.SaveEvent(r.Context(), event); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save event", err)
		return
	}

	// An update may have moved the event off another project, whose cached
	// estimates still include it.
	h.Cache.Clear()
	writeJSON(w, http.StatusOK, toEventDTO(event))
}

// DeleteEvent removes an event.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := schedule.EventID(chi.URLParam(r, "id"))

	err := h.Store.DeleteEvent(r.Context(), id)
	if schedule.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Event not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete event", err)
		return
	}

	// The event may have claimed a day on any project.
	h.Cache.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// ResetDatabase wipes all data. Dev only.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.Cache.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeValidationError(w http.ResponseWriter, result schedule.ValidationResult) {
	resp := ValidationErrorResponse{Error: "Validation failed"}
	for _, e := range result.Errors {
		resp.Fields = append(resp.Fields, FieldErrorDTO{Field: e.Field, Message: e.Message})
	}
	for _, warning := range result.Warnings {
		resp.Warnings = append(resp.Warnings, FieldErrorDTO{Field: warning.Field, Message: warning.Message})
	}
	writeJSON(w, http.StatusBadRequest, resp)
}
