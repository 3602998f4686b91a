package tui

import (
	"github.com/andy/docket/internal/domain"
	"github.com/andy/docket/internal/service"
)

// snapshotMsg carries a timer snapshot published by the engine
type snapshotMsg struct {
	snap service.TimerSnapshot
}

// actionDoneMsg reports the result of a timer write
type actionDoneMsg struct {
	action string
	closed *domain.TimeEntry // set when an entry was stopped
	err    error
}

// todayLoadedMsg carries today's closed time
type todayLoadedMsg struct {
	summary *service.DailySummary
	err     error
}

// ErrorMsg carries error information
type ErrorMsg struct {
	Err error
}
