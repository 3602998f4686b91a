package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andy/docket/internal/db"
	"github.com/andy/docket/internal/domain"
)

// EntryRepo is a SQLite implementation of EntryStore
type EntryRepo struct {
	db  *db.DB
	now func() time.Time
}

// NewEntryRepo creates a new EntryRepo
func NewEntryRepo(database *db.DB) *EntryRepo {
	return &EntryRepo{db: database, now: func() time.Time { return time.Now().UTC() }}
}

const entryColumns = `
	e.id, e.user_id, e.matter_id, e.client_id, COALESCE(m.name, ''), e.hourly_rate,
	e.start_at, e.end_at, e.paused_at, e.total_paused_seconds, e.notes,
	e.created_at, e.updated_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*domain.TimeEntry, error) {
	entry := &domain.TimeEntry{}
	var startAt, createdAt, updatedAt string
	var endAt, pausedAt sql.NullString

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.MatterID,
		&entry.ClientID,
		&entry.MatterName,
		&entry.HourlyRate,
		&startAt,
		&endAt,
		&pausedAt,
		&entry.TotalPausedSeconds,
		&entry.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if entry.StartAt, err = parseTime(startAt); err != nil {
		return nil, fmt.Errorf("failed to parse start_at: %w", err)
	}
	if entry.EndAt, err = parseNullTime(endAt); err != nil {
		return nil, fmt.Errorf("failed to parse end_at: %w", err)
	}
	if entry.PausedAt, err = parseNullTime(pausedAt); err != nil {
		return nil, fmt.Errorf("failed to parse paused_at: %w", err)
	}
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return entry, nil
}

// FindActiveEntry returns the user's active entry, or nil if idle
func (r *EntryRepo) FindActiveEntry(ctx context.Context, userID string) (*domain.TimeEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("find active entry: %w", domain.ErrUnauthenticated)
	}

	query := `SELECT ` + entryColumns + `
		FROM time_entries e
		LEFT JOIN matters m ON m.id = e.matter_id
		WHERE e.user_id = ? AND e.end_at IS NULL
	`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Idle
		}
		return nil, classify("failed to get active entry", err)
	}

	return entry, nil
}

// GetByID retrieves a time entry by ID
func (r *EntryRepo) GetByID(ctx context.Context, id string) (*domain.TimeEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM time_entries e
		LEFT JOIN matters m ON m.id = e.matter_id
		WHERE e.id = ?
	`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: time entry %s not found", domain.ErrValidation, id)
		}
		return nil, classify("failed to get time entry", err)
	}

	return entry, nil
}

// CreateEntry inserts a new active entry. The partial unique index on
// (user_id) WHERE end_at IS NULL rejects a second active entry.
func (r *EntryRepo) CreateEntry(ctx context.Context, n domain.NewEntry) (*domain.TimeEntry, error) {
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("invalid time entry: %w", err)
	}

	query := `
		INSERT INTO time_entries (
			id, user_id, matter_id, client_id, hourly_rate, start_at,
			total_paused_seconds, notes, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
	`

	id := uuid.NewString()
	now := formatTime(r.now())

	_, err := r.db.ExecContext(ctx, query,
		id,
		n.UserID,
		n.MatterID,
		n.ClientID,
		n.HourlyRate,
		formatTime(n.StartAt),
		n.Notes,
		now,
		now,
	)
	if err != nil {
		return nil, classify("failed to create time entry", err)
	}

	return r.GetByID(ctx, id)
}

// UpdateEntry patches an active entry. Closed entries are never touched.
func (r *EntryRepo) UpdateEntry(ctx context.Context, id string, patch domain.EntryPatch) (*domain.TimeEntry, error) {
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("invalid patch: %w", err)
	}

	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)

	if patch.PausedAt != nil {
		sets = append(sets, "paused_at = ?")
		args = append(args, formatTime(*patch.PausedAt))
	}
	if patch.ClearPausedAt {
		sets = append(sets, "paused_at = NULL")
	}
	if patch.TotalPausedSeconds != nil {
		sets = append(sets, "total_paused_seconds = ?")
		args = append(args, *patch.TotalPausedSeconds)
	}
	if patch.EndAt != nil {
		sets = append(sets, "end_at = ?")
		args = append(args, formatTime(*patch.EndAt))
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(r.now()), id)

	query := "UPDATE time_entries SET " + strings.Join(sets, ", ") + " WHERE id = ? AND end_at IS NULL"

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, classify("failed to update time entry", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Either gone or closed by another window
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !existing.IsActive() {
			return nil, fmt.Errorf("%w: time entry %s is already closed", domain.ErrConflict, id)
		}
		return nil, fmt.Errorf("failed to update time entry %s", id)
	}

	return r.GetByID(ctx, id)
}

// ListClosed returns the user's closed entries that started in [start, end)
func (r *EntryRepo) ListClosed(ctx context.Context, userID string, start, end time.Time) ([]*domain.TimeEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM time_entries e
		LEFT JOIN matters m ON m.id = e.matter_id
		WHERE e.user_id = ? AND e.end_at IS NOT NULL
		  AND e.start_at >= ? AND e.start_at < ?
		ORDER BY e.start_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID, formatTime(start), formatTime(end))
	if err != nil {
		return nil, classify("failed to list time entries", err)
	}
	defer rows.Close()

	entries := make([]*domain.TimeEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating time entries: %w", err)
	}

	return entries, nil
}
