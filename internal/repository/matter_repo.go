package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andy/docket/internal/db"
	"github.com/andy/docket/internal/domain"
)

// MatterRepo is a SQLite implementation of MatterRepository
type MatterRepo struct {
	db *db.DB
}

// NewMatterRepo creates a new MatterRepo
func NewMatterRepo(database *db.DB) *MatterRepo {
	return &MatterRepo{db: database}
}

const matterColumns = `
	m.id, m.client_id, m.name, m.matter_number, m.hourly_rate, m.description,
	m.created_at, m.updated_at,
	c.id, c.name, c.email, c.hourly_rate, c.notes, c.is_archived, c.created_at, c.updated_at
`

func scanMatter(row rowScanner) (*domain.Matter, error) {
	matter := &domain.Matter{Client: &domain.Client{}}
	var rate sql.NullFloat64
	var createdAt, updatedAt, clientCreatedAt, clientUpdatedAt string

	err := row.Scan(
		&matter.ID,
		&matter.ClientID,
		&matter.Name,
		&matter.MatterNumber,
		&rate,
		&matter.Description,
		&createdAt,
		&updatedAt,
		&matter.Client.ID,
		&matter.Client.Name,
		&matter.Client.Email,
		&matter.Client.HourlyRate,
		&matter.Client.Notes,
		&matter.Client.IsArchived,
		&clientCreatedAt,
		&clientUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rate.Valid {
		r := rate.Float64
		matter.HourlyRate = &r
	}

	for _, f := range []struct {
		dst *time.Time
		src string
	}{
		{&matter.CreatedAt, createdAt},
		{&matter.UpdatedAt, updatedAt},
		{&matter.Client.CreatedAt, clientCreatedAt},
		{&matter.Client.UpdatedAt, clientUpdatedAt},
	} {
		if *f.dst, err = parseTime(f.src); err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}
	}

	return matter, nil
}

// Create inserts a new matter into the database
func (r *MatterRepo) Create(ctx context.Context, matter *domain.Matter) error {
	if err := matter.Validate(); err != nil {
		return fmt.Errorf("invalid matter: %w", err)
	}

	query := `
		INSERT INTO matters (id, client_id, name, matter_number, hourly_rate, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var rate interface{}
	if matter.HourlyRate != nil {
		rate = *matter.HourlyRate
	}

	_, err := r.db.ExecContext(ctx, query,
		matter.ID,
		matter.ClientID,
		matter.Name,
		matter.MatterNumber,
		rate,
		matter.Description,
		formatTime(matter.CreatedAt),
		formatTime(matter.UpdatedAt),
	)
	if err != nil {
		return classify("failed to create matter", err)
	}

	return nil
}

// GetByID retrieves a matter with its client
func (r *MatterRepo) GetByID(ctx context.Context, id string) (*domain.Matter, error) {
	query := `SELECT ` + matterColumns + `
		FROM matters m
		JOIN clients c ON c.id = m.client_id
		WHERE m.id = ?
	`

	matter, err := scanMatter(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: matter %s not found", domain.ErrValidation, id)
		}
		return nil, classify("failed to get matter", err)
	}

	return matter, nil
}

// List retrieves matters, all of them when clientID is empty
func (r *MatterRepo) List(ctx context.Context, clientID string) ([]*domain.Matter, error) {
	query := `SELECT ` + matterColumns + `
		FROM matters m
		JOIN clients c ON c.id = m.client_id
		WHERE (? = '' OR m.client_id = ?) AND c.is_archived = 0
		ORDER BY c.name, m.name
	`

	rows, err := r.db.QueryContext(ctx, query, clientID, clientID)
	if err != nil {
		return nil, classify("failed to list matters", err)
	}
	defer rows.Close()

	matters := make([]*domain.Matter, 0)
	for rows.Next() {
		matter, err := scanMatter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan matter: %w", err)
		}
		matters = append(matters, matter)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matters: %w", err)
	}

	return matters, nil
}
