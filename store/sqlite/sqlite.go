/*
Package sqlite provides SQLite-backed persistence for the scheduling engine's
inputs.

PURPOSE:
  Stores the collaborator data the engine consumes: projects, phases, the
  weekly work-slot template, holidays, and calendar events. The engine itself
  never touches this package; the API layer loads records here and hands
  them to the pure calculation code.

KEY TABLES:
  projects:   Planning units with budget and date range
  phases:     Explicit and recurring phases (kind column discriminates)
  work_slots: Weekly working-hours template
  holidays:   Inclusive non-working date ranges
  events:     Logged calendar events

STORAGE CONVENTIONS:
  - Dates as TEXT "YYYY-MM-DD", timestamps as RFC3339 TEXT
  - Decimal hours as TEXT to preserve precision
  - Nullable columns only where the domain is genuinely optional

WAL MODE:
  Opened with WAL for better read concurrency and crash recovery.

USAGE:
  store, err := sqlite.New("./data/schedule.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - schedule/types.go: The domain types persisted here
  - api/handlers.go: The only consumer
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/schedule-engine/schedule"
)

// Store persists engine inputs in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		budget_hours TEXT NOT NULL,
		continuous INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS phases (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		start_date TEXT,
		end_date TEXT,
		allocated_hours TEXT,
		freq TEXT,
		interval INTEGER,
		anchor TEXT,
		weekday INTEGER,
		day_of_month INTEGER,
		nth_n INTEGER,
		nth_weekday INTEGER,
		per_occurrence_hours TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_phases_project ON phases(project_id);

	CREATE TABLE IF NOT EXISTS work_slots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		weekday INTEGER NOT NULL,
		start_minute INTEGER NOT NULL,
		end_minute INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		project_id TEXT,
		kind TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_project ON events(project_id);
	CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_at);
	`
	_, err := s.db.Exec(schemaSQL)
	return err
}

// =============================================================================
// PROJECTS
// =============================================================================

// SaveProject inserts or updates a project.
func (s *Store) SaveProject(ctx context.Context, p schedule.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var endDate sql.NullString
	if p.End != nil {
		endDate = sql.NullString{String: p.End.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, start_date, end_date, budget_hours, continuous)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			budget_hours = excluded.budget_hours,
			continuous = excluded.continuous`,
		string(p.ID), p.Name, p.Start.String(), endDate, p.BudgetHours.String(), boolToInt(p.Continuous))
	return err
}

// GetProject returns a project by ID, or schedule.ErrProjectNotFound.
func (s *Store) GetProject(ctx context.Context, id schedule.ProjectID) (schedule.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, start_date, end_date, budget_hours, continuous
		FROM projects WHERE id = ?`, string(id))

	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return schedule.Project{}, schedule.ErrProjectNotFound
	}
	return p, err
}

// ListProjects returns all projects.
func (s *Store) ListProjects(ctx context.Context) ([]schedule.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, start_date, end_date, budget_hours, continuous
		FROM projects ORDER BY start_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []schedule.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project and, via cascade, its phases.
func (s *Store) DeleteProject(ctx context.Context, id schedule.ProjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrProjectNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (schedule.Project, error) {
	var (
		id, name, startStr, budgetStr string
		endStr                        sql.NullString
		continuous                    int
	)
	if err := row.Scan(&id, &name, &startStr, &endStr, &budgetStr, &continuous); err != nil {
		return schedule.Project{}, err
	}

	start, err := schedule.ParseDate(startStr)
	if err != nil {
		return schedule.Project{}, fmt.Errorf("project %s: bad start date: %w", id, err)
	}

	p := schedule.Project{
		ID:          schedule.ProjectID(id),
		Name:        name,
		Start:       start,
		BudgetHours: parseHours(budgetStr),
		Continuous:  continuous != 0,
	}
	if endStr.Valid {
		end, err := schedule.ParseDate(endStr.String)
		if err != nil {
			return schedule.Project{}, fmt.Errorf("project %s: bad end date: %w", id, err)
		}
		p.End = &end
	}
	return p, nil
}

// =============================================================================
// PHASES
// =============================================================================

// SavePhase inserts or updates a phase of either kind.
func (s *Store) SavePhase(ctx context.Context, phase schedule.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch p := phase.(type) {
	case schedule.ExplicitPhase:
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO phases (id, project_id, name, kind, start_date, end_date, allocated_hours)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				project_id = excluded.project_id,
				name = excluded.name,
				kind = excluded.kind,
				start_date = excluded.start_date,
				end_date = excluded.end_date,
				allocated_hours = excluded.allocated_hours,
				freq = NULL, interval = NULL, anchor = NULL, weekday = NULL,
				day_of_month = NULL, nth_n = NULL, nth_weekday = NULL,
				per_occurrence_hours = NULL`,
			string(p.ID), string(p.ProjectID), p.Name, string(schedule.PhaseExplicit),
			p.Start.String(), p.End.String(), p.Allocated.String())
		return err

	case schedule.RecurringPhase:
		var weekday, nthN, nthWeekday sql.NullInt64
		if p.Rule.Weekday != nil {
			weekday = sql.NullInt64{Int64: int64(*p.Rule.Weekday), Valid: true}
		}
		if p.Rule.Nth != nil {
			nthN = sql.NullInt64{Int64: int64(p.Rule.Nth.N), Valid: true}
			nthWeekday = sql.NullInt64{Int64: int64(p.Rule.Nth.Weekday), Valid: true}
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO phases (id, project_id, name, kind, freq, interval, anchor,
				weekday, day_of_month, nth_n, nth_weekday, per_occurrence_hours)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				project_id = excluded.project_id,
				name = excluded.name,
				kind = excluded.kind,
				start_date = NULL, end_date = NULL, allocated_hours = NULL,
				freq = excluded.freq,
				interval = excluded.interval,
				anchor = excluded.anchor,
				weekday = excluded.weekday,
				day_of_month = excluded.day_of_month,
				nth_n = excluded.nth_n,
				nth_weekday = excluded.nth_weekday,
				per_occurrence_hours = excluded.per_occurrence_hours`,
			string(p.ID), string(p.ProjectID), p.Name, string(schedule.PhaseRecurring),
			string(p.Rule.Freq), p.Rule.Interval, p.Rule.Anchor.String(),
			weekday, p.Rule.DayOfMonth, nthN, nthWeekday, p.PerOccurrence.String())
		return err

	default:
		return fmt.Errorf("%w: unknown phase kind", schedule.ErrInvalidInput)
	}
}

// ListPhases returns a project's phases.
func (s *Store) ListPhases(ctx context.Context, projectID schedule.ProjectID) ([]schedule.Phase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, kind, start_date, end_date, allocated_hours,
			freq, interval, anchor, weekday, day_of_month, nth_n, nth_weekday,
			per_occurrence_hours
		FROM phases WHERE project_id = ? ORDER BY id`, string(projectID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var phases []schedule.Phase
	for rows.Next() {
		phase, err := scanPhase(rows)
		if err != nil {
			return nil, err
		}
		phases = append(phases, phase)
	}
	return phases, rows.Err()
}

// DeletePhase removes a phase.
func (s *Store) DeletePhase(ctx context.Context, id schedule.PhaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM phases WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrPhaseNotFound
	}
	return nil
}

func scanPhase(row rowScanner) (schedule.Phase, error) {
	var (
		id, projectID, name, kind                 string
		startStr, endStr, allocStr, freq, anchor  sql.NullString
		interval, weekday, dayOfMonth, nthN, nthW sql.NullInt64
		perOccStr                                 sql.NullString
	)
	if err := row.Scan(&id, &projectID, &name, &kind, &startStr, &endStr, &allocStr,
		&freq, &interval, &anchor, &weekday, &dayOfMonth, &nthN, &nthW, &perOccStr); err != nil {
		return nil, err
	}

	switch schedule.PhaseKind(kind) {
	case schedule.PhaseExplicit:
		start, err := schedule.ParseDate(startStr.String)
		if err != nil {
			return nil, fmt.Errorf("phase %s: bad start date: %w", id, err)
		}
		end, err := schedule.ParseDate(endStr.String)
		if err != nil {
			return nil, fmt.Errorf("phase %s: bad end date: %w", id, err)
		}
		return schedule.ExplicitPhase{
			ID:        schedule.PhaseID(id),
			ProjectID: schedule.ProjectID(projectID),
			Name:      name,
			Start:     start,
			End:       end,
			Allocated: parseHours(allocStr.String),
		}, nil

	case schedule.PhaseRecurring:
		anchorDate, err := schedule.ParseDate(anchor.String)
		if err != nil {
			return nil, fmt.Errorf("phase %s: bad anchor date: %w", id, err)
		}
		rule := schedule.RecurrenceRule{
			Freq:       schedule.Frequency(freq.String),
			Interval:   int(interval.Int64),
			Anchor:     anchorDate,
			DayOfMonth: int(dayOfMonth.Int64),
		}
		if weekday.Valid {
			wd := time.Weekday(weekday.Int64)
			rule.Weekday = &wd
		}
		if nthN.Valid {
			rule.Nth = &schedule.NthWeekday{N: int(nthN.Int64), Weekday: time.Weekday(nthW.Int64)}
		}
		return schedule.RecurringPhase{
			ID:            schedule.PhaseID(id),
			ProjectID:     schedule.ProjectID(projectID),
			Name:          name,
			Rule:          rule,
			PerOccurrence: parseHours(perOccStr.String),
		}, nil

	default:
		return nil, fmt.Errorf("phase %s: unknown kind %q", id, kind)
	}
}

// =============================================================================
// WEEKLY TEMPLATE
// =============================================================================

// ReplaceTemplate swaps the whole weekly template atomically.
func (s *Store) ReplaceTemplate(ctx context.Context, template schedule.WeeklyTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM work_slots`); err != nil {
		return err
	}
	for _, slot := range template.Slots {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO work_slots (weekday, start_minute, end_minute) VALUES (?, ?, ?)`,
			int(slot.Weekday), int(slot.Start), int(slot.End)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetTemplate returns the stored weekly template.
func (s *Store) GetTemplate(ctx context.Context) (schedule.WeeklyTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT weekday, start_minute, end_minute FROM work_slots
		ORDER BY weekday, start_minute`)
	if err != nil {
		return schedule.WeeklyTemplate{}, err
	}
	defer rows.Close()

	var template schedule.WeeklyTemplate
	for rows.Next() {
		var weekday, start, end int
		if err := rows.Scan(&weekday, &start, &end); err != nil {
			return schedule.WeeklyTemplate{}, err
		}
		template.Slots = append(template.Slots, schedule.WorkSlot{
			Weekday: time.Weekday(weekday),
			Start:   schedule.MinuteOfDay(start),
			End:     schedule.MinuteOfDay(end),
		})
	}
	return template, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// SaveHoliday inserts or updates a holiday range.
func (s *Store) SaveHoliday(ctx context.Context, h schedule.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, name, start_date, end_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			start_date = excluded.start_date,
			end_date = excluded.end_date`,
		h.ID, h.Name, h.Start.String(), h.End.String())
	return err
}

// ListHolidays returns all holidays.
func (s *Store) ListHolidays(ctx context.Context) ([]schedule.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, start_date, end_date FROM holidays ORDER BY start_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []schedule.Holiday
	for rows.Next() {
		var id, name, startStr, endStr string
		if err := rows.Scan(&id, &name, &startStr, &endStr); err != nil {
			return nil, err
		}
		start, err := schedule.ParseDate(startStr)
		if err != nil {
			return nil, fmt.Errorf("holiday %s: bad start date: %w", id, err)
		}
		end, err := schedule.ParseDate(endStr)
		if err != nil {
			return nil, fmt.Errorf("holiday %s: bad end date: %w", id, err)
		}
		holidays = append(holidays, schedule.Holiday{ID: id, Name: name, Start: start, End: end})
	}
	return holidays, rows.Err()
}

// DeleteHoliday removes a holiday.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	return err
}

// =============================================================================
// EVENTS
// =============================================================================

// SaveEvent inserts or updates a calendar event.
func (s *Store) SaveEvent(ctx context.Context, e schedule.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var projectID sql.NullString
	if e.ProjectID != "" {
		projectID = sql.NullString{String: string(e.ProjectID), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, project_id, kind, start_at, end_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			kind = excluded.kind,
			start_at = excluded.start_at,
			end_at = excluded.end_at`,
		string(e.ID), projectID, string(e.Kind),
		e.Start.UTC().Format(time.RFC3339), e.End.UTC().Format(time.RFC3339))
	return err
}

// ListEventsInRange returns events whose start date falls within [from, to].
func (s *Store) ListEventsInRange(ctx context.Context, from, to schedule.TimePoint) ([]schedule.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Events are same-day, so filtering on start_at covers the whole event.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, kind, start_at, end_at FROM events
		WHERE start_at >= ? AND start_at < ?
		ORDER BY start_at, id`,
		from.Time.UTC().Format(time.RFC3339),
		to.AddDays(1).Time.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []schedule.CalendarEvent
	for rows.Next() {
		var (
			id, kind, startStr, endStr string
			projectID                  sql.NullString
		)
		if err := rows.Scan(&id, &projectID, &kind, &startStr, &endStr); err != nil {
			return nil, err
		}
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return nil, fmt.Errorf("event %s: bad start: %w", id, err)
		}
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return nil, fmt.Errorf("event %s: bad end: %w", id, err)
		}
		events = append(events, schedule.CalendarEvent{
			ID:        schedule.EventID(id),
			ProjectID: schedule.ProjectID(projectID.String),
			Kind:      schedule.EventKind(kind),
			Start:     start,
			End:       end,
		})
	}
	return events, rows.Err()
}

// DeleteEvent removes an event.
func (s *Store) DeleteEvent(ctx context.Context, id schedule.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrEventNotFound
	}
	return nil
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset wipes all data. Dev/test only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"events", "holidays", "work_slots", "phases", "projects"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func parseHours(s string) schedule.Hours {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return schedule.ZeroHours()
	}
	return schedule.Hours{Value: d}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
