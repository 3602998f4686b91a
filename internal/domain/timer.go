package domain

import "time"

type TimerState string

const (
	TimerStateIdle    TimerState = "idle"
	TimerStateRunning TimerState = "running"
	TimerStatePaused  TimerState = "paused"
)

// QuickSwitchState is the "notes before stopping" prompt. It lives only in
// memory for one client session and is never persisted.
type QuickSwitchState struct {
	Pending           bool       `json:"pending"`
	NextMatter        *MatterRef `json:"next_matter,omitempty"` // nil for a plain stop
	StoppedEntryLabel string     `json:"stopped_entry_label"`
}

// IsSwitch returns true if confirming the prompt starts another matter
func (q QuickSwitchState) IsSwitch() bool {
	return q.Pending && q.NextMatter != nil
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
