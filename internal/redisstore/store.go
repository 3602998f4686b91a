package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/andy/docket/internal/domain"
	"github.com/andy/docket/internal/logger"
)

// Store is an EntryStore shared by every machine pointed at the same Redis.
// Entries are JSON blobs; the active key is claimed and released inside
// WATCH/MULTI transactions so a user never has two active entries.
type Store struct {
	client *redis.Client
	keys   Keys
	log    logger.Logger
	now    func() time.Time
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, keyPrefix string, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{
		client: client,
		keys:   NewKeys(keyPrefix),
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

// FindActiveEntry returns the user's active entry, or nil if idle
func (s *Store) FindActiveEntry(ctx context.Context, userID string) (*domain.TimeEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("find active entry: %w", domain.ErrUnauthenticated)
	}

	id, err := s.client.Get(ctx, s.keys.Active(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, classify("failed to get active entry", err)
	}

	entry, err := s.get(ctx, s.client, id)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			// pointer to a missing entry; treat as idle
			s.log.Warn("active key points at a missing entry", logger.String("entry_id", id))
			return nil, nil
		}
		return nil, err
	}
	if !entry.IsActive() {
		return nil, nil
	}
	return entry, nil
}

// GetByID retrieves an entry by ID
func (s *Store) GetByID(ctx context.Context, id string) (*domain.TimeEntry, error) {
	return s.get(ctx, s.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Store) get(ctx context.Context, c getter, id string) (*domain.TimeEntry, error) {
	data, err := c.Get(ctx, s.keys.Entry(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: time entry %s not found", domain.ErrValidation, id)
		}
		return nil, classify("failed to get time entry", err)
	}

	var entry domain.TimeEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal time entry %s: %w", id, err)
	}
	return &entry, nil
}

// CreateEntry stores a new active entry. Fails with ErrConflict when the
// user's active key is already held.
func (s *Store) CreateEntry(ctx context.Context, n domain.NewEntry) (*domain.TimeEntry, error) {
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("invalid time entry: %w", err)
	}

	now := s.now()
	entry := &domain.TimeEntry{
		ID:         uuid.NewString(),
		UserID:     n.UserID,
		MatterID:   n.MatterID,
		ClientID:   n.ClientID,
		MatterName: n.MatterName,
		HourlyRate: n.HourlyRate,
		StartAt:    n.StartAt.UTC(),
		Notes:      n.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal time entry: %w", err)
	}

	activeKey := s.keys.Active(n.UserID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, activeKey).Result()
		switch {
		case err == nil:
			return fmt.Errorf("%w: entry %s is already active", domain.ErrConflict, current)
		case !errors.Is(err, redis.Nil):
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.keys.Entry(entry.ID), data, 0)
			pipe.Set(ctx, activeKey, entry.ID, 0)
			pipe.SAdd(ctx, s.keys.UserEntries(n.UserID), entry.ID)
			pipe.Publish(ctx, s.keys.Changes(n.UserID), entry.ID)
			return nil
		})
		return err
	}, activeKey)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, classify("failed to create time entry", err)
	}

	return entry, nil
}

// UpdateEntry patches an active entry. Closing it releases the active key
// in the same transaction.
func (s *Store) UpdateEntry(ctx context.Context, id string, patch domain.EntryPatch) (*domain.TimeEntry, error) {
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("invalid patch: %w", err)
	}

	var updated domain.TimeEntry
	entryKey := s.keys.Entry(id)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if !current.IsActive() {
			return fmt.Errorf("%w: time entry %s is already closed", domain.ErrConflict, id)
		}

		updated = current.Apply(patch, s.now())
		data, err := json.Marshal(&updated)
		if err != nil {
			return fmt.Errorf("failed to marshal time entry: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, entryKey, data, 0)
			if updated.EndAt != nil {
				pipe.Del(ctx, s.keys.Active(updated.UserID))
			}
			pipe.Publish(ctx, s.keys.Changes(updated.UserID), id)
			return nil
		})
		return err
	}, entryKey)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrTransient) {
			return nil, err
		}
		return nil, classify("failed to update time entry", err)
	}

	return &updated, nil
}

// ListClosed returns the user's closed entries that started in [start, end)
func (s *Store) ListClosed(ctx context.Context, userID string, start, end time.Time) ([]*domain.TimeEntry, error) {
	ids, err := s.client.SMembers(ctx, s.keys.UserEntries(userID)).Result()
	if err != nil {
		return nil, classify("failed to list time entries", err)
	}
	if len(ids) == 0 {
		return []*domain.TimeEntry{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keys.Entry(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, classify("failed to list time entries", err)
	}

	entries := make([]*domain.TimeEntry, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // deleted since SMEMBERS
		}
		var entry domain.TimeEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal time entry %s: %w", ids[i], err)
		}
		if entry.IsActive() || entry.StartAt.Before(start) || !entry.StartAt.Before(end) {
			continue
		}
		entries = append(entries, &entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StartAt.Before(entries[j].StartAt)
	})
	return entries, nil
}

// Changes subscribes to write notifications for the user's entries. The
// returned channel is closed when ctx is done or the subscription drops.
func (s *Store) Changes(ctx context.Context, userID string) (<-chan struct{}, error) {
	pubsub := s.client.Subscribe(ctx, s.keys.Changes(userID))

	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, classify("failed to subscribe to changes", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default: // a notification is already queued
				}
			}
		}
	}()

	return out, nil
}
