package repository

import (
	"context"
	"time"

	"github.com/andy/docket/internal/domain"
)

// ClientRepository manages client persistence
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	GetByName(ctx context.Context, name string) (*domain.Client, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Client, error)
}

// MatterRepository manages matter persistence
type MatterRepository interface {
	Create(ctx context.Context, matter *domain.Matter) error
	GetByID(ctx context.Context, id string) (*domain.Matter, error) // Client populated
	List(ctx context.Context, clientID string) ([]*domain.Matter, error)
}

// EntryStore is the source of truth for time entries. Implementations
// enforce at most one active entry per user and report failures with the
// domain error categories (ErrConflict, ErrValidation, ErrUnauthenticated,
// ErrTransient).
type EntryStore interface {
	// FindActiveEntry returns the user's active entry, or nil if idle
	FindActiveEntry(ctx context.Context, userID string) (*domain.TimeEntry, error)

	// CreateEntry inserts a new active entry. Fails with ErrConflict when
	// the user already has one.
	CreateEntry(ctx context.Context, entry domain.NewEntry) (*domain.TimeEntry, error)

	// UpdateEntry patches an active entry and returns the stored row.
	// Fails with ErrConflict when the entry was closed in the meantime.
	UpdateEntry(ctx context.Context, id string, patch domain.EntryPatch) (*domain.TimeEntry, error)
}

// ChangeFeed is implemented by stores that can push change notifications.
// Each receive on the channel means "the user's entries changed, refetch".
type ChangeFeed interface {
	Changes(ctx context.Context, userID string) (<-chan struct{}, error)
}

// EntryHistory lists closed entries for summaries
type EntryHistory interface {
	ListClosed(ctx context.Context, userID string, start, end time.Time) ([]*domain.TimeEntry, error)
}
