package deps

import (
	"context"
	"time"

	"github.com/andy/docket/internal/domain"
	"github.com/andy/docket/internal/logger"
	"github.com/andy/docket/internal/service"
)

// Timer is the part of the timer engine the HTTP API drives
type Timer interface {
	Snapshot() service.TimerSnapshot
	Refresh(ctx context.Context) error
	Start(ctx context.Context, ref domain.MatterRef) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop() error
	QuickSwitch(ctx context.Context, next domain.MatterRef) error
	SubmitQuickAction(ctx context.Context, notes string) (*domain.TimeEntry, error)
	CancelQuickAction()
}

// MatterLookup resolves matter IDs sent by clients
type MatterLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Matter, error)
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Timer     Timer
	Matters   MatterLookup
}
