package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for schedule persistence.
type Repository interface {
	Get(ctx context.Context, name string) (*Schedule, error)
	List(ctx context.Context) ([]Schedule, error)

	// Save inserts s or overwrites the schedule with the same name,
	// keeping the original creation time.
	Save(ctx context.Context, s *Schedule) error

	SetEnabled(ctx context.Context, name string, enabled bool) error

	// Delete reports whether a schedule was removed.
	Delete(ctx context.Context, name string) (bool, error)
}

const scheduleColumns = `name, enabled, events, created_at, updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get retrieves a schedule by name.
func (r *SQLiteRepository) Get(ctx context.Context, name string) (*Schedule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE name = ?`, name)
	s, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("querying schedule: %w", err)
	}
	return s, nil
}

// List retrieves all schedules ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Schedule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+scheduleColumns+` FROM schedules ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying schedules: %w", err)
	}
	defer rows.Close()

	var schedules []Schedule
	for rows.Next() {
		s, scanErr := scanSchedule(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning schedule: %w", scanErr)
		}
		schedules = append(schedules, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schedules: %w", err)
	}
	return schedules, nil
}

// Save upserts s by name.
func (r *SQLiteRepository) Save(ctx context.Context, s *Schedule) error {
	eventsJSON, err := json.Marshal(s.Events)
	if err != nil {
		return fmt.Errorf("marshalling events: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	query := `
		INSERT INTO schedules (name, enabled, events, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			enabled    = excluded.enabled,
			events     = excluded.events,
			updated_at = excluded.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		s.Name,
		boolToInt(s.Enabled),
		string(eventsJSON),
		s.CreatedAt.UTC().Format(time.RFC3339),
		s.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving schedule: %w", err)
	}
	return nil
}

// SetEnabled updates the enabled flag of an existing schedule.
func (r *SQLiteRepository) SetEnabled(ctx context.Context, name string, enabled bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE schedules SET enabled = ?, updated_at = ? WHERE name = ?`,
		boolToInt(enabled), time.Now().UTC().Format(time.RFC3339), name)
	if err != nil {
		return fmt.Errorf("updating schedule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// Delete removes a schedule by name.
func (r *SQLiteRepository) Delete(ctx context.Context, name string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM schedules WHERE name = ?", name)
	if err != nil {
		return false, fmt.Errorf("deleting schedule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(scanner rowScanner) (*Schedule, error) {
	var s Schedule
	var enabled int
	var eventsJSON, createdAt, updatedAt string

	if err := scanner.Scan(&s.Name, &enabled, &eventsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.Enabled = enabled != 0

	if err := json.Unmarshal([]byte(eventsJSON), &s.Events); err != nil {
		return nil, fmt.Errorf("unmarshalling events of %q: %w", s.Name, err)
	}

	var err error
	if s.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at of %q: %w", s.Name, err)
	}
	if s.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at of %q: %w", s.Name, err)
	}
	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
