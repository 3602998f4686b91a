package domain

import (
	"fmt"
	"time"

	"github.com/andy/docket/internal/billing"
)

// TimeEntry is one tracked interval of work on a matter. An entry with no
// EndAt is the user's active entry; each user has at most one.
type TimeEntry struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	MatterID           string     `json:"matter_id"`
	ClientID           string     `json:"client_id"`
	MatterName         string     `json:"matter_name,omitempty"` // populated by the store
	HourlyRate         float64    `json:"hourly_rate"`           // frozen at start
	StartAt            time.Time  `json:"start_at"`
	EndAt              *time.Time `json:"end_at,omitempty"`
	PausedAt           *time.Time `json:"paused_at,omitempty"`
	TotalPausedSeconds int64      `json:"total_paused_seconds"`
	Notes              string     `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewEntry is the input for creating an active entry.
type NewEntry struct {
	UserID     string
	MatterID   string
	ClientID   string
	MatterName string
	HourlyRate float64
	StartAt    time.Time
	Notes      string
}

// Validate returns an error if the entry cannot be created
func (n NewEntry) Validate() error {
	if n.UserID == "" {
		return fmt.Errorf("%w: user ID is required", ErrUnauthenticated)
	}
	if n.MatterID == "" || n.ClientID == "" {
		return fmt.Errorf("%w: matter and client are required", ErrValidation)
	}
	if n.HourlyRate < 0 {
		return fmt.Errorf("%w: hourly rate cannot be negative", ErrValidation)
	}
	if n.StartAt.IsZero() {
		return fmt.Errorf("%w: start time is required", ErrValidation)
	}
	return nil
}

// EntryPatch is a partial update of an active entry. Nil fields are left
// alone; ClearPausedAt sets paused_at back to null.
type EntryPatch struct {
	PausedAt           *time.Time
	ClearPausedAt      bool
	TotalPausedSeconds *int64
	EndAt              *time.Time
	Notes              *string
}

// IsEmpty reports whether the patch changes nothing.
func (p EntryPatch) IsEmpty() bool {
	return p.PausedAt == nil && !p.ClearPausedAt && p.TotalPausedSeconds == nil &&
		p.EndAt == nil && p.Notes == nil
}

// Validate returns an error if the patch is self-contradictory
func (p EntryPatch) Validate() error {
	if p.PausedAt != nil && p.ClearPausedAt {
		return fmt.Errorf("%w: cannot both set and clear paused_at", ErrValidation)
	}
	if p.TotalPausedSeconds != nil && *p.TotalPausedSeconds < 0 {
		return fmt.Errorf("%w: total paused seconds cannot be negative", ErrValidation)
	}
	return nil
}

// Apply returns a copy of e with the patch applied.
func (e TimeEntry) Apply(p EntryPatch, now time.Time) TimeEntry {
	if p.PausedAt != nil {
		t := *p.PausedAt
		e.PausedAt = &t
	}
	if p.ClearPausedAt {
		e.PausedAt = nil
	}
	if p.TotalPausedSeconds != nil {
		e.TotalPausedSeconds = *p.TotalPausedSeconds
	}
	if p.EndAt != nil {
		t := *p.EndAt
		e.EndAt = &t
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
	e.UpdatedAt = now
	return e
}

// IsActive returns true if the entry has no end time
func (e *TimeEntry) IsActive() bool {
	return e.EndAt == nil
}

// IsPaused returns true if the entry is active and paused
func (e *TimeEntry) IsPaused() bool {
	return e.EndAt == nil && e.PausedAt != nil
}

// State returns the timer state this entry represents
func (e *TimeEntry) State() TimerState {
	switch {
	case e == nil || e.EndAt != nil:
		return TimerStateIdle
	case e.PausedAt != nil:
		return TimerStatePaused
	default:
		return TimerStateRunning
	}
}

// ElapsedSeconds returns worked seconds at now, derived from the entry's
// timestamps only. While paused the value is frozen at PausedAt; once
// closed it is frozen at EndAt. Never negative.
func (e *TimeEntry) ElapsedSeconds(now time.Time) int64 {
	ref := now
	switch {
	case e.PausedAt != nil:
		ref = *e.PausedAt
	case e.EndAt != nil:
		ref = *e.EndAt
	}
	elapsed := wholeSeconds(ref.Sub(e.StartAt)) - e.TotalPausedSeconds
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// PausedSecondsAt returns TotalPausedSeconds with any open pause interval
// folded in as of now, floored to whole seconds.
func (e *TimeEntry) PausedSecondsAt(now time.Time) int64 {
	total := e.TotalPausedSeconds
	if e.PausedAt != nil {
		if open := wholeSeconds(now.Sub(*e.PausedAt)); open > 0 {
			total += open
		}
	}
	return total
}

// BillableHours returns the six-minute rounded hours worked at now
func (e *TimeEntry) BillableHours(now time.Time) float64 {
	return billing.RoundToSixMinutes(e.ElapsedSeconds(now))
}

// Amount returns the billable amount at now
func (e *TimeEntry) Amount(now time.Time) float64 {
	return billing.CalculateBillingAmount(e.ElapsedSeconds(now), e.HourlyRate)
}

// Clone returns a deep copy of the entry
func (e *TimeEntry) Clone() *TimeEntry {
	if e == nil {
		return nil
	}
	c := *e
	if e.EndAt != nil {
		t := *e.EndAt
		c.EndAt = &t
	}
	if e.PausedAt != nil {
		t := *e.PausedAt
		c.PausedAt = &t
	}
	return &c
}

// wholeSeconds floors d to whole seconds. Fractional seconds have no
// billing meaning.
func wholeSeconds(d time.Duration) int64 {
	secs := int64(d / time.Second)
	if d < 0 && d%time.Second != 0 {
		secs--
	}
	return secs
}
