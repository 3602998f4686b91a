package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Client struct {
	ID         string
	Name       string
	Email      string
	HourlyRate float64 // default rate for the client's matters
	Notes      string
	IsArchived bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewClient creates a new client with required fields
func NewClient(name string, hourlyRate float64) *Client {
	now := time.Now().UTC()
	return &Client{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(name),
		HourlyRate: hourlyRate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate returns an error if the client is invalid
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: client name is required", ErrValidation)
	}
	if c.HourlyRate < 0 {
		return fmt.Errorf("%w: hourly rate cannot be negative", ErrValidation)
	}
	return nil
}
