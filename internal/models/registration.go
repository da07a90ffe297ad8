package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kinderbasar/backend/internal/bazaar"
)

// SellerRegistration is a person's registration for one event.
// Accepted is nil while pending.
type SellerRegistration struct {
	ID            uuid.UUID         `json:"id"`
	EventID       uuid.UUID         `json:"event_id"`
	Name          string            `json:"name"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone"`
	Clothing      []string          `json:"clothing"`
	PreferredRole bazaar.SellerRole `json:"preferred_role"`
	Accepted      *bool             `json:"accepted"`
	HasSeller     bool              `json:"has_seller"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// RegistrationFilter selects registrations by decision state.
type RegistrationFilter string

const (
	RegistrationsAll      RegistrationFilter = ""
	RegistrationsPending  RegistrationFilter = "pending"
	RegistrationsAccepted RegistrationFilter = "accepted"
	RegistrationsDenied   RegistrationFilter = "denied"
)
