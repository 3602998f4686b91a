package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/andy/docket/internal/domain"
)

// timeLayout is fixed width so stored UTC timestamps sort as text. Sub-second
// precision is kept; elapsed time is floored later.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// parseTime parses a stored timestamp
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// formatTime formats t for storage in UTC
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseNullTime parses an optional stored timestamp
func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// classify wraps a driver error with its domain category.
func classify(op string, err error) error {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code {
		case sqlite3.ErrConstraint:
			switch sqlErr.ExtendedCode {
			case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
				return fmt.Errorf("%s: %w: %v", op, domain.ErrConflict, err)
			default:
				// foreign key, check, not null
				return fmt.Errorf("%s: %w: %v", op, domain.ErrValidation, err)
			}
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrIoErr:
			return fmt.Errorf("%s: %w: %v", op, domain.ErrTransient, err)
		case sqlite3.ErrNotADB, sqlite3.ErrAuth:
			return fmt.Errorf("%s: %w: %v", op, domain.ErrUnauthenticated, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
