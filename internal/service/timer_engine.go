package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/andy/docket/internal/domain"
	"github.com/andy/docket/internal/logger"
	"github.com/andy/docket/internal/repository"
)

const (
	DefaultTickInterval = time.Second
	DefaultPollInterval = 5 * time.Second
)

// TimerSnapshot is what the UI renders. All values are derived from the
// cached entry at one instant.
type TimerSnapshot struct {
	Entry          *domain.TimeEntry       `json:"entry"`
	State          domain.TimerState       `json:"state"`
	Label          string                  `json:"label"`
	ElapsedSeconds int64                   `json:"elapsed_seconds"`
	IsRunning      bool                    `json:"is_running"`
	IsPaused       bool                    `json:"is_paused"`
	QuickSwitch    domain.QuickSwitchState `json:"quick_switch"`
	BillableHours  float64                 `json:"billable_hours"`
	Amount         float64                 `json:"amount"`
	Busy           bool                    `json:"busy"` // a write is in flight
	At             time.Time               `json:"at"`
}

// EngineOptions configures a TimerEngine. Zero values get defaults.
type EngineOptions struct {
	UserID       string
	Clock        domain.Clock
	Logger       logger.Logger
	TickInterval time.Duration
	PollInterval time.Duration
}

// TimerEngine owns the user's active timer. The store is the source of
// truth; the engine caches the last row it read or wrote and recomputes the
// elapsed time from its timestamps on every tick.
//
// Writes are serialized by writeMu. mu guards the cached state only and is
// never held across a store call, so Snapshot and CancelQuickAction stay
// responsive while a write is in flight.
type TimerEngine struct {
	store        repository.EntryStore
	clock        domain.Clock
	log          logger.Logger
	userID       string
	tickInterval time.Duration
	pollInterval time.Duration

	writeMu sync.Mutex

	mu         sync.Mutex
	entry      *domain.TimeEntry
	quick      domain.QuickSwitchState
	quickSeq   uint64 // bumped whenever the user raises or cancels the prompt
	busy       bool
	closed     bool
	tickCancel context.CancelFunc
	subs       map[int]chan TimerSnapshot
	nextSub    int

	wg sync.WaitGroup
}

// NewTimerEngine creates an engine for one user. Call Refresh to load the
// current active entry and Close when done.
func NewTimerEngine(store repository.EntryStore, opts EngineOptions) *TimerEngine {
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	return &TimerEngine{
		store:        store,
		clock:        opts.Clock,
		log:          opts.Logger.With(logger.String("user_id", opts.UserID)),
		userID:       opts.UserID,
		tickInterval: opts.TickInterval,
		pollInterval: opts.PollInterval,
		subs:         make(map[int]chan TimerSnapshot),
	}
}

// Snapshot returns the current derived timer state
func (e *TimerEngine) Snapshot() TimerSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(e.clock.Now())
}

// Subscribe returns a channel that receives a snapshot after every state
// change and tick. Only the latest snapshot is buffered; slow readers skip
// intermediate values. The channel is closed by cancel or Close.
func (e *TimerEngine) Subscribe() (<-chan TimerSnapshot, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan TimerSnapshot, 1)
	if e.closed {
		close(ch)
		return ch, func() {}
	}

	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	ch <- e.snapshotLocked(e.clock.Now())

	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if c, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(c)
		}
	}
}

// Refresh reloads the active entry from the store. Used at startup and to
// pick up changes made by other windows.
func (e *TimerEngine) Refresh(ctx context.Context) error {
	if err := e.checkUser(); err != nil {
		return err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	_, err := e.refetch(ctx)
	return err
}

// Start begins timing a matter. Fails with ErrConflict if the user already
// has an active entry, in this window or any other.
func (e *TimerEngine) Start(ctx context.Context, ref domain.MatterRef) error {
	if err := e.checkUser(); err != nil {
		return err
	}
	if err := ref.Validate(); err != nil {
		return err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	defer e.setBusy()()

	_, err := e.start(ctx, ref)
	return err
}

// start requires writeMu.
func (e *TimerEngine) start(ctx context.Context, ref domain.MatterRef) (*domain.TimeEntry, error) {
	remote, err := e.refetch(ctx)
	if err != nil {
		return nil, err
	}
	if remote != nil {
		return nil, fmt.Errorf("%w: a timer is already running for %s", domain.ErrConflict, entryLabel(remote))
	}

	created, err := e.store.CreateEntry(ctx, domain.NewEntry{
		UserID:     e.userID,
		MatterID:   ref.ID,
		ClientID:   ref.ClientID,
		MatterName: ref.Name,
		HourlyRate: ref.HourlyRate,
		StartAt:    e.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost a race with another window; show its entry
			if _, rerr := e.refetch(ctx); rerr != nil {
				e.log.Warn("refetch after conflict failed", logger.Error(rerr))
			}
		}
		e.log.Warn("start failed", logger.String("matter_id", ref.ID), logger.Error(err))
		return nil, err
	}

	e.mu.Lock()
	e.quick = domain.QuickSwitchState{}
	e.setEntryLocked(created)
	e.mu.Unlock()

	e.log.Info("timer started",
		logger.String("entry_id", created.ID),
		logger.String("matter_id", created.MatterID),
		logger.Float64("hourly_rate", created.HourlyRate),
	)
	return created, nil
}

// Pause freezes the running timer. Pausing a paused timer does nothing.
func (e *TimerEngine) Pause(ctx context.Context) error {
	if err := e.checkUser(); err != nil {
		return err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	defer e.setBusy()()

	remote, err := e.refetch(ctx)
	if err != nil {
		return err
	}
	if remote == nil {
		return fmt.Errorf("%w: no active timer to pause", domain.ErrValidation)
	}
	if remote.IsPaused() {
		return nil
	}

	now := e.clock.Now()
	updated, err := e.store.UpdateEntry(ctx, remote.ID, domain.EntryPatch{PausedAt: &now})
	if err != nil {
		e.log.Warn("pause failed", logger.String("entry_id", remote.ID), logger.Error(err))
		return err
	}

	e.adopt(updated)
	e.log.Info("timer paused", logger.String("entry_id", updated.ID))
	return nil
}

// Resume restarts a paused timer, folding the pause into TotalPausedSeconds.
func (e *TimerEngine) Resume(ctx context.Context) error {
	if err := e.checkUser(); err != nil {
		return err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	defer e.setBusy()()

	remote, err := e.refetch(ctx)
	if err != nil {
		return err
	}
	if remote == nil {
		return fmt.Errorf("%w: no active timer to resume", domain.ErrValidation)
	}
	if !remote.IsPaused() {
		return fmt.Errorf("%w: timer is not paused", domain.ErrValidation)
	}

	total := remote.PausedSecondsAt(e.clock.Now())
	updated, err := e.store.UpdateEntry(ctx, remote.ID, domain.EntryPatch{
		ClearPausedAt:      true,
		TotalPausedSeconds: &total,
	})
	if err != nil {
		e.log.Warn("resume failed", logger.String("entry_id", remote.ID), logger.Error(err))
		return err
	}

	e.adopt(updated)
	e.log.Info("timer resumed",
		logger.String("entry_id", updated.ID),
		logger.Int64("total_paused_seconds", updated.TotalPausedSeconds),
	)
	return nil
}

// Stop asks for notes before closing the active entry. Nothing is written
// until SubmitQuickAction.
func (e *TimerEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.entry == nil {
		return fmt.Errorf("%w: no active timer to stop", domain.ErrValidation)
	}

	e.quick = domain.QuickSwitchState{
		Pending:           true,
		StoppedEntryLabel: entryLabel(e.entry),
	}
	e.quickSeq++
	e.publishLocked()
	return nil
}

// QuickSwitch moves the timer to another matter. With no active entry it is
// Start; on the current matter it does nothing; otherwise it asks for notes
// on the current entry first.
func (e *TimerEngine) QuickSwitch(ctx context.Context, next domain.MatterRef) error {
	if err := next.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	cur := e.entry
	if cur == nil {
		e.mu.Unlock()
		return e.Start(ctx, next)
	}
	defer e.mu.Unlock()

	if cur.MatterID == next.ID {
		return nil
	}

	e.quick = domain.QuickSwitchState{
		Pending:           true,
		NextMatter:        &next,
		StoppedEntryLabel: entryLabel(cur),
	}
	e.quickSeq++
	e.publishLocked()
	return nil
}

// SubmitQuickAction closes the active entry with notes and, for a switch,
// starts the next matter. Blank notes are accepted and leave any existing
// notes alone. If the close fails the prompt stays pending. If the entry was
// already stopped elsewhere a switch just starts the next matter and the
// closed entry is nil. A prompt cancelled while the close is in flight does
// not start the next matter. Returns the closed entry.
func (e *TimerEngine) SubmitQuickAction(ctx context.Context, notes string) (*domain.TimeEntry, error) {
	if err := e.checkUser(); err != nil {
		return nil, err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	defer e.setBusy()()

	e.mu.Lock()
	quick := e.quick
	seq := e.quickSeq
	var localID string
	if e.entry != nil {
		localID = e.entry.ID
	}
	e.mu.Unlock()

	if !quick.Pending {
		return nil, fmt.Errorf("%w: nothing is waiting for notes", domain.ErrValidation)
	}

	remote, err := e.refetch(ctx)
	if err != nil {
		return nil, err
	}
	if remote == nil {
		if quick.NextMatter == nil {
			return nil, fmt.Errorf("%w: no active timer to stop", domain.ErrValidation)
		}
		if !e.stillWanted(seq) {
			return nil, nil
		}
		e.log.Info("entry already stopped elsewhere, starting next matter",
			logger.String("matter_id", quick.NextMatter.ID))
		if _, err := e.start(ctx, *quick.NextMatter); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if remote.ID != localID {
		e.mu.Lock()
		if e.quick.Pending {
			e.quick.StoppedEntryLabel = entryLabel(remote)
			e.publishLocked()
		}
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: the active timer changed in another window (now %s)", domain.ErrConflict, entryLabel(remote))
	}

	now := e.clock.Now()
	patch := domain.EntryPatch{EndAt: &now}
	if remote.IsPaused() {
		total := remote.PausedSecondsAt(now)
		patch.ClearPausedAt = true
		patch.TotalPausedSeconds = &total
	}
	if strings.TrimSpace(notes) != "" {
		patch.Notes = &notes
	}

	closed, err := e.store.UpdateEntry(ctx, remote.ID, patch)
	if err != nil {
		e.log.Warn("stop failed", logger.String("entry_id", remote.ID), logger.Error(err))
		return nil, err
	}

	e.mu.Lock()
	wanted := e.quickSeq == seq
	e.quick = domain.QuickSwitchState{}
	e.setEntryLocked(nil)
	e.mu.Unlock()

	e.log.Info("timer stopped",
		logger.String("entry_id", closed.ID),
		logger.Int64("elapsed_seconds", closed.ElapsedSeconds(now)),
		logger.Float64("amount", closed.Amount(now)),
	)

	if quick.NextMatter != nil && wanted {
		if _, err := e.start(ctx, *quick.NextMatter); err != nil {
			return closed, fmt.Errorf("stopped %s but could not start %s: %w", entryLabel(closed), quick.NextMatter.Name, err)
		}
	}

	return closed, nil
}

// CancelQuickAction dismisses the notes prompt. The entry is untouched.
func (e *TimerEngine) CancelQuickAction() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.quick.Pending {
		return
	}
	e.quick = domain.QuickSwitchState{}
	e.quickSeq++
	e.publishLocked()
}

// Watch keeps the cache in sync with changes made elsewhere until ctx is
// done. Stores with a change feed push notifications; others are polled.
func (e *TimerEngine) Watch(ctx context.Context) error {
	if feed, ok := e.store.(repository.ChangeFeed); ok {
		changes, err := feed.Changes(ctx, e.userID)
		if err != nil {
			e.log.Warn("change feed unavailable, polling instead", logger.Error(err))
		} else {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case _, ok := <-changes:
					if !ok {
						if ctx.Err() != nil {
							return ctx.Err()
						}
						e.log.Warn("change feed closed, polling instead")
						return e.poll(ctx)
					}
					e.refreshLogged(ctx)
				}
			}
		}
	}
	return e.poll(ctx)
}

func (e *TimerEngine) poll(ctx context.Context) error {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.refreshLogged(ctx)
		}
	}
}

func (e *TimerEngine) refreshLogged(ctx context.Context) {
	if err := e.Refresh(ctx); err != nil && ctx.Err() == nil {
		e.log.Warn("refresh failed", logger.Error(err))
	}
}

// Close stops the tick and closes all subscriptions. Safe to call twice.
func (e *TimerEngine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.stopTickLocked()
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
	e.mu.Unlock()

	e.wg.Wait()
}

// stillWanted reports whether the prompt captured at seq is still the one
// pending, and clears it. Requires writeMu.
func (e *TimerEngine) stillWanted(seq uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.quickSeq != seq {
		return false
	}
	e.quick = domain.QuickSwitchState{}
	e.publishLocked()
	return true
}

func (e *TimerEngine) checkUser() error {
	if e.userID == "" {
		return fmt.Errorf("%w: no user configured", domain.ErrUnauthenticated)
	}
	return nil
}

// refetch reads the active entry and adopts it. On error the cache is left
// alone. Requires writeMu.
func (e *TimerEngine) refetch(ctx context.Context) (*domain.TimeEntry, error) {
	remote, err := e.store.FindActiveEntry(ctx, e.userID)
	if err != nil {
		e.log.Warn("fetch active entry failed", logger.Error(err))
		return nil, err
	}
	e.adopt(remote)
	return remote, nil
}

// adopt replaces the cached entry with a row read from the store. The
// prompt survives only while there is still something to stop.
func (e *TimerEngine) adopt(entry *domain.TimeEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if entry == nil || !entry.IsActive() {
		entry = nil
		e.quick = domain.QuickSwitchState{}
	}
	e.setEntryLocked(entry.Clone())
}

func (e *TimerEngine) setEntryLocked(entry *domain.TimeEntry) {
	e.entry = entry
	if entry != nil && !e.closed {
		e.startTickLocked()
	} else {
		e.stopTickLocked()
	}
	e.publishLocked()
}

// setBusy marks a write in flight and returns the func that clears it.
func (e *TimerEngine) setBusy() func() {
	e.mu.Lock()
	e.busy = true
	e.publishLocked()
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		e.busy = false
		e.publishLocked()
		e.mu.Unlock()
	}
}

func (e *TimerEngine) startTickLocked() {
	if e.tickCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.tickCancel = cancel

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.mu.Lock()
				// cancelled while waiting for the lock
				if ctx.Err() == nil {
					e.publishLocked()
				}
				e.mu.Unlock()
			}
		}
	}()
}

func (e *TimerEngine) stopTickLocked() {
	if e.tickCancel != nil {
		e.tickCancel()
		e.tickCancel = nil
	}
}

func (e *TimerEngine) ticking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tickCancel != nil
}

// publishLocked recomputes the snapshot and hands it to every subscriber,
// replacing any value they have not read yet.
func (e *TimerEngine) publishLocked() {
	snap := e.snapshotLocked(e.clock.Now())
	for _, ch := range e.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (e *TimerEngine) snapshotLocked(now time.Time) TimerSnapshot {
	snap := TimerSnapshot{
		State:       e.entry.State(),
		QuickSwitch: e.quick,
		Busy:        e.busy,
		At:          now,
	}
	if e.quick.NextMatter != nil {
		next := *e.quick.NextMatter
		snap.QuickSwitch.NextMatter = &next
	}
	if e.entry == nil {
		return snap
	}

	snap.Entry = e.entry.Clone()
	snap.Label = entryLabel(e.entry)
	snap.ElapsedSeconds = e.entry.ElapsedSeconds(now)
	snap.IsPaused = e.entry.IsPaused()
	snap.IsRunning = !snap.IsPaused
	snap.BillableHours = e.entry.BillableHours(now)
	snap.Amount = e.entry.Amount(now)
	return snap
}

func entryLabel(entry *domain.TimeEntry) string {
	if entry.MatterName != "" {
		return entry.MatterName
	}
	return entry.MatterID
}
