package scene

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for scene persistence.
type Repository interface {
	Get(ctx context.Context, name string) (*Scene, error)
	List(ctx context.Context) ([]Scene, error)

	// Save inserts s or overwrites the scene with the same name.
	Save(ctx context.Context, s *Scene) error

	// Delete reports whether a scene was removed.
	Delete(ctx context.Context, name string) (bool, error)
}

const sceneColumns = `name, room_filter, members, created_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get retrieves a scene by name.
func (r *SQLiteRepository) Get(ctx context.Context, name string) (*Scene, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sceneColumns+` FROM scenes WHERE name = ?`, name)
	s, err := scanScene(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSceneNotFound
		}
		return nil, fmt.Errorf("querying scene: %w", err)
	}
	return s, nil
}

// List retrieves all scenes ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Scene, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sceneColumns+` FROM scenes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying scenes: %w", err)
	}
	defer rows.Close()

	var scenes []Scene
	for rows.Next() {
		s, scanErr := scanScene(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning scene: %w", scanErr)
		}
		scenes = append(scenes, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scenes: %w", err)
	}
	return scenes, nil
}

// Save upserts s by name.
func (r *SQLiteRepository) Save(ctx context.Context, s *Scene) error {
	membersJSON, err := json.Marshal(s.Members)
	if err != nil {
		return fmt.Errorf("marshalling members: %w", err)
	}

	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now.Truncate(time.Second)
	}

	query := `
		INSERT INTO scenes (name, room_filter, members, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			room_filter = excluded.room_filter,
			members     = excluded.members,
			created_at  = excluded.created_at,
			updated_at  = excluded.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		s.Name,
		nullableInt(s.RoomFilter),
		string(membersJSON),
		s.CreatedAt.UTC().Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving scene: %w", err)
	}
	return nil
}

// Delete removes a scene by name.
func (r *SQLiteRepository) Delete(ctx context.Context, name string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM scenes WHERE name = ?", name)
	if err != nil {
		return false, fmt.Errorf("deleting scene: %w", err)
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

func scanScene(scanner rowScanner) (*Scene, error) {
	var s Scene
	var roomFilter sql.NullInt64
	var membersJSON, createdAt string

	if err := scanner.Scan(&s.Name, &roomFilter, &membersJSON, &createdAt); err != nil {
		return nil, err
	}

	if roomFilter.Valid {
		room := int(roomFilter.Int64)
		s.RoomFilter = &room
	}
	if err := json.Unmarshal([]byte(membersJSON), &s.Members); err != nil {
		return nil, fmt.Errorf("unmarshalling members of %q: %w", s.Name, err)
	}

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at of %q: %w", s.Name, err)
	}
	s.CreatedAt = t
	return &s, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
