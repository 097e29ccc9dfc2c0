package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DentalService is a bookable treatment from the clinic catalog.
type DentalService struct {
	ID                     int             `json:"service_id"`
	Code                   string          `json:"service_code"`
	Name                   string          `json:"service_name"`
	Description            *string         `json:"description,omitempty"`
	DefaultDurationMinutes int             `json:"default_duration_minutes"`
	DefaultBufferMinutes   int             `json:"default_buffer_minutes"`
	Price                  decimal.Decimal `json:"price"`
	SpecializationID       *int            `json:"specialization_id,omitempty"`
	IsActive               bool            `json:"is_active"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// SlotMinutes is the time a service occupies including its clean-up buffer.
func (s DentalService) SlotMinutes() int {
	return s.DefaultDurationMinutes + s.DefaultBufferMinutes
}
