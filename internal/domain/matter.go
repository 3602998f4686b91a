package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andy/docket/internal/billing"
)

// Matter is a billing engagement under a client.
type Matter struct {
	ID           string
	ClientID     string
	Name         string
	MatterNumber string
	HourlyRate   *float64 // nil falls back to the client's rate
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Related data (populated by repository)
	Client *Client
}

// NewMatter creates a new matter for a client
func NewMatter(clientID, name string, hourlyRate *float64) *Matter {
	now := time.Now().UTC()
	return &Matter{
		ID:         uuid.NewString(),
		ClientID:   clientID,
		Name:       strings.TrimSpace(name),
		HourlyRate: hourlyRate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate returns an error if the matter is invalid
func (m *Matter) Validate() error {
	if len(strings.TrimSpace(m.Name)) < 2 {
		return fmt.Errorf("%w: matter name must be at least 2 characters", ErrValidation)
	}
	if m.ClientID == "" {
		return fmt.Errorf("%w: client ID is required", ErrValidation)
	}
	if m.HourlyRate != nil && *m.HourlyRate < 0 {
		return fmt.Errorf("%w: hourly rate cannot be negative", ErrValidation)
	}
	return nil
}

// MatterRef identifies what a timer bills against. HourlyRate is the
// effective rate, already resolved against the client default.
type MatterRef struct {
	ID         string  `json:"id"`
	ClientID   string  `json:"client_id"`
	Name       string  `json:"name"`
	HourlyRate float64 `json:"hourly_rate"`
}

// Validate returns an error if the reference cannot start a timer
func (r MatterRef) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: matter ID is required", ErrValidation)
	}
	if r.ClientID == "" {
		return fmt.Errorf("%w: client ID is required", ErrValidation)
	}
	if r.HourlyRate < 0 {
		return fmt.Errorf("%w: hourly rate cannot be negative", ErrValidation)
	}
	return nil
}

// Ref returns the matter as a timer target, resolving the rate against the
// client default. Client must be populated.
func (m *Matter) Ref() MatterRef {
	var clientRate float64
	if m.Client != nil {
		clientRate = m.Client.HourlyRate
	}
	return MatterRef{
		ID:         m.ID,
		ClientID:   m.ClientID,
		Name:       m.Name,
		HourlyRate: billing.EffectiveRate(m.HourlyRate, clientRate),
	}
}

// Label is "Client / Matter" when the client is known
func (m *Matter) Label() string {
	if m.Client != nil && m.Client.Name != "" {
		return m.Client.Name + " / " + m.Name
	}
	return m.Name
}
