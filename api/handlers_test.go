/*
handlers_test.go - HTTP-level tests for the scheduling API

Tests for:
- Project and phase save flows, including validation failures
- The estimate endpoint over a full month scenario
- The budget/containment validation endpoint
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/schedule-engine/store/sqlite"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store)
	// Pin the clock so default windows are reproducible.
	h.Now = func() time.Time {
		return time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)
	}
	return NewRouter(h)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), "body: %s", rec.Body.String())
	return out
}

func putStandardTemplate(t *testing.T, router http.Handler) {
	t.Helper()
	slots := make([]WorkSlotDTO, 0, 5)
	for wd := int(time.Monday); wd <= int(time.Friday); wd++ {
		slots = append(slots, WorkSlotDTO{Weekday: wd, Start: "09:00", End: "17:00"})
	}
	rec := doJSON(t, router, http.MethodPut, "/api/settings/template", TemplateDTO{Slots: slots})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func postProject(t *testing.T, router http.Handler, req SaveProjectRequest) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/projects", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestSaveProjectRejectsInvertedRange(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/projects", SaveProjectRequest{
		ID:    "bad",
		Name:  "Backwards",
		Start: "2026-02-28",
		End:   strPtr("2026-02-01"),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeBody[ValidationErrorResponse](t, rec)
	require.NotEmpty(t, resp.Fields)
	assert.Equal(t, "end", resp.Fields[0].Field)
}

func TestGetProjectNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/projects/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSavePhaseRequiresExistingProject(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/projects/ghost/phases", SavePhaseRequest{
		ID:             "ph1",
		Kind:           "explicit",
		Start:          strPtr("2026-02-02"),
		End:            strPtr("2026-02-06"),
		AllocatedHours: floatPtr(8),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSavePhaseRejectsNegativeHours(t *testing.T) {
	router := newTestRouter(t)
	postProject(t, router, SaveProjectRequest{
		ID:    "p1",
		Name:  "Project",
		Start: "2026-02-01",
		End:   strPtr("2026-02-28"),
	})

	rec := doJSON(t, router, http.MethodPost, "/api/projects/p1/phases", SavePhaseRequest{
		ID:             "ph1",
		Kind:           "explicit",
		Start:          strPtr("2026-02-02"),
		End:            strPtr("2026-02-06"),
		AllocatedHours: floatPtr(-4),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeBody[ValidationErrorResponse](t, rec)
	require.NotEmpty(t, resp.Fields)
	assert.Equal(t, "allocated_hours", resp.Fields[0].Field)
}

func TestEstimates_FullMonthExplicitPhase(t *testing.T) {
	// GIVEN: A Mon-Fri template, a February project with a 40h phase
	// spanning the whole month
	router := newTestRouter(t)
	putStandardTemplate(t, router)
	postProject(t, router, SaveProjectRequest{
		ID:          "redesign",
		Name:        "Website redesign",
		Start:       "2026-02-01",
		End:         strPtr("2026-02-28"),
		BudgetHours: 40,
	})
	rec := doJSON(t, router, http.MethodPost, "/api/projects/redesign/phases", SavePhaseRequest{
		ID:             "build",
		Kind:           "explicit",
		Start:          strPtr("2026-02-01"),
		End:            strPtr("2026-02-28"),
		AllocatedHours: floatPtr(40),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// WHEN: Estimates are requested for the month
	rec = doJSON(t, router, http.MethodGet,
		"/api/projects/redesign/estimates?from=2026-02-01&to=2026-02-28&today=2026-02-01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: February 2026 has 20 weekdays, each carrying 2h
	estimates := decodeBody[[]EstimateDTO](t, rec)
	require.Len(t, estimates, 20)
	for _, e := range estimates {
		assert.Equal(t, "redesign", e.ProjectID)
		assert.InDelta(t, 2.0, e.Hours, 1e-9, "date %s", e.Date)
		assert.Equal(t, "phase-allocation", e.Source)
	}
	assert.Equal(t, "2026-02-02", estimates[0].Date)
	assert.Equal(t, "2026-02-27", estimates[len(estimates)-1].Date)
}

func TestEstimates_EventSupersedesAllocation(t *testing.T) {
	router := newTestRouter(t)
	putStandardTemplate(t, router)
	postProject(t, router, SaveProjectRequest{
		ID:    "redesign",
		Name:  "Website redesign",
		Start: "2026-02-01",
		End:   strPtr("2026-02-28"),
	})
	rec := doJSON(t, router, http.MethodPost, "/api/projects/redesign/phases", SavePhaseRequest{
		ID:             "build",
		Kind:           "explicit",
		Start:          strPtr("2026-02-01"),
		End:            strPtr("2026-02-28"),
		AllocatedHours: floatPtr(40),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/events", EventDTO{
		ID:        "worked",
		ProjectID: "redesign",
		Kind:      "completed",
		Start:     "2026-02-10T09:00:00Z",
		End:       "2026-02-10T12:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet,
		"/api/projects/redesign/estimates?from=2026-02-01&to=2026-02-28&today=2026-02-01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	estimates := decodeBody[[]EstimateDTO](t, rec)
	require.Len(t, estimates, 20)

	byDate := make(map[string]EstimateDTO, len(estimates))
	for _, e := range estimates {
		byDate[e.Date] = e
	}
	claimed := byDate["2026-02-10"]
	assert.Equal(t, "event", claimed.Source)
	assert.InDelta(t, 3.0, claimed.Hours, 1e-9)
	assert.Equal(t, "phase-allocation", byDate["2026-02-11"].Source)
}

func TestEstimates_MutationInvalidatesCache(t *testing.T) {
	router := newTestRouter(t)
	putStandardTemplate(t, router)
	postProject(t, router, SaveProjectRequest{
		ID:    "p1",
		Name:  "Project",
		Start: "2026-02-01",
		End:   strPtr("2026-02-28"),
	})
	rec := doJSON(t, router, http.MethodPost, "/api/projects/p1/phases", SavePhaseRequest{
		ID:             "ph1",
		Kind:           "explicit",
		Start:          strPtr("2026-02-01"),
		End:            strPtr("2026-02-28"),
		AllocatedHours: floatPtr(40),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	url := "/api/projects/p1/estimates?from=2026-02-01&to=2026-02-28&today=2026-02-01"
	rec = doJSON(t, router, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeBody[[]EstimateDTO](t, rec)
	require.NotEmpty(t, first)
	assert.InDelta(t, 2.0, first[0].Hours, 1e-9)

	// Doubling the allocation must be visible immediately.
	rec = doJSON(t, router, http.MethodPost, "/api/projects/p1/phases", SavePhaseRequest{
		ID:             "ph1",
		Kind:           "explicit",
		Start:          strPtr("2026-02-01"),
		End:            strPtr("2026-02-28"),
		AllocatedHours: floatPtr(80),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeBody[[]EstimateDTO](t, rec)
	require.NotEmpty(t, second)
	assert.InDelta(t, 4.0, second[0].Hours, 1e-9)
}

func TestEstimates_ReassignedEventLeavesNoStaleEntry(t *testing.T) {
	// GIVEN: Two projects; project A's estimates are cached with a logged
	// event claiming 2026-02-10
	router := newTestRouter(t)
	putStandardTemplate(t, router)
	for _, id := range []string{"alpha", "beta"} {
		postProject(t, router, SaveProjectRequest{
			ID:    id,
			Name:  id,
			Start: "2026-02-01",
			End:   strPtr("2026-02-28"),
		})
	}
	rec := doJSON(t, router, http.MethodPost, "/api/projects/alpha/phases", SavePhaseRequest{
		ID:             "build",
		Kind:           "explicit",
		Start:          strPtr("2026-02-01"),
		End:            strPtr("2026-02-28"),
		AllocatedHours: floatPtr(40),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	saveEvent := func(projectID string) {
		rec := doJSON(t, router, http.MethodPost, "/api/events", EventDTO{
			ID:        "worked",
			ProjectID: projectID,
			Kind:      "completed",
			Start:     "2026-02-10T09:00:00Z",
			End:       "2026-02-10T12:00:00Z",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	saveEvent("alpha")

	url := "/api/projects/alpha/estimates?from=2026-02-01&to=2026-02-28&today=2026-02-01"
	rec = doJSON(t, router, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	primed := decodeBody[[]EstimateDTO](t, rec)
	var sawEvent bool
	for _, e := range primed {
		if e.Date == "2026-02-10" && e.Source == "event" {
			sawEvent = true
		}
	}
	require.True(t, sawEvent, "expected the event entry before reassignment")

	// WHEN: The same event is reassigned to project beta
	saveEvent("beta")

	// THEN: Alpha's estimates no longer carry the event; Feb 10 reverts to
	// its 2h phase allocation
	rec = doJSON(t, router, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	after := decodeBody[[]EstimateDTO](t, rec)
	for _, e := range after {
		if e.Date == "2026-02-10" {
			assert.Equal(t, "phase-allocation", e.Source)
			assert.InDelta(t, 2.0, e.Hours, 1e-9)
		}
		assert.NotEqual(t, "event", e.Source)
	}
}

func TestEstimates_RecurringPhaseOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	putStandardTemplate(t, router)
	postProject(t, router, SaveProjectRequest{
		ID:         "ops",
		Name:       "Operations",
		Start:      "2026-01-01",
		Continuous: true,
	})

	monday := int(time.Monday)
	rec := doJSON(t, router, http.MethodPost, "/api/projects/ops/phases", SavePhaseRequest{
		ID:   "sync",
		Kind: "recurring",
		Recurrence: &RecurrenceDTO{
			Freq:     "weekly",
			Interval: 1,
			Anchor:   "2026-01-05",
			Weekday:  &monday,
		},
		HoursPerOccurrence: floatPtr(4),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet,
		"/api/projects/ops/estimates?from=2026-03-01&to=2026-03-31&today=2026-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// March 2026 has five Mondays.
	estimates := decodeBody[[]EstimateDTO](t, rec)
	require.Len(t, estimates, 5)
	for i, day := range []int{2, 9, 16, 23, 30} {
		assert.Equal(t, fmt.Sprintf("2026-03-%02d", day), estimates[i].Date)
		assert.InDelta(t, 4.0, estimates[i].Hours, 1e-9)
	}
}

func TestValidateEndpointReportsOverageAndEscape(t *testing.T) {
	router := newTestRouter(t)
	postProject(t, router, SaveProjectRequest{
		ID:          "p1",
		Name:        "Tight budget",
		Start:       "2026-02-01",
		End:         strPtr("2026-02-14"),
		BudgetHours: 10,
	})
	rec := doJSON(t, router, http.MethodPost, "/api/projects/p1/phases", SavePhaseRequest{
		ID:             "ph1",
		Kind:           "explicit",
		Start:          strPtr("2026-02-09"),
		End:            strPtr("2026-02-20"),
		AllocatedHours: floatPtr(16),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/projects/p1/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[ValidateResponse](t, rec)
	assert.False(t, resp.Budget.WithinBudget)
	assert.InDelta(t, 6.0, resp.Budget.Overage, 1e-9)

	require.False(t, resp.Containment.Valid)
	require.Len(t, resp.Containment.Violations, 1)
	assert.Equal(t, "ph1", resp.Containment.Violations[0].PhaseID)

	require.NotNil(t, resp.SuggestedRange)
	assert.Equal(t, "2026-02-09", resp.SuggestedRange.Start)
	assert.Equal(t, "2026-02-20", resp.SuggestedRange.End)
}

func TestHolidayLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	putStandardTemplate(t, router)
	postProject(t, router, SaveProjectRequest{
		ID:    "p1",
		Name:  "Project",
		Start: "2026-02-01",
		End:   strPtr("2026-02-28"),
	})
	rec := doJSON(t, router, http.MethodPost, "/api/projects/p1/phases", SavePhaseRequest{
		ID:             "ph1",
		Kind:           "explicit",
		Start:          strPtr("2026-02-01"),
		End:            strPtr("2026-02-28"),
		AllocatedHours: floatPtr(38),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/settings/holidays", HolidayDTO{
		ID:    "day-off",
		Name:  "Company day off",
		Start: "2026-02-13",
		End:   "2026-02-13",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// 19 working days left: 38h / 19 = 2h each, Feb 13 absent.
	rec = doJSON(t, router, http.MethodGet,
		"/api/projects/p1/estimates?from=2026-02-01&to=2026-02-28&today=2026-02-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	estimates := decodeBody[[]EstimateDTO](t, rec)
	require.Len(t, estimates, 19)
	for _, e := range estimates {
		assert.NotEqual(t, "2026-02-13", e.Date)
		assert.InDelta(t, 2.0, e.Hours, 1e-9)
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/settings/holidays/day-off", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet,
		"/api/projects/p1/estimates?from=2026-02-01&to=2026-02-28&today=2026-02-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	estimates = decodeBody[[]EstimateDTO](t, rec)
	assert.Len(t, estimates, 20)
}

func TestResetEndpointClearsData(t *testing.T) {
	router := newTestRouter(t)
	postProject(t, router, SaveProjectRequest{
		ID:    "p1",
		Name:  "Ephemeral",
		Start: "2026-02-01",
		End:   strPtr("2026-02-28"),
	})

	rec := doJSON(t, router, http.MethodPost, "/api/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	projects := decodeBody[[]ProjectDTO](t, rec)
	assert.Empty(t, projects)
}
