package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kinderbasar/backend/internal/bazaar"
)

// Billing is a checkout session accumulating booked articles.
type Billing struct {
	ID          uuid.UUID            `json:"id"`
	EventID     uuid.UUID            `json:"event_id"`
	UserID      uuid.UUID            `json:"user_id"`
	Status      bazaar.BillingStatus `json:"status"`
	TotalCents  int64                `json:"total_cents"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
}

// BillingDetail is a billing with its booked articles.
type BillingDetail struct {
	Billing
	Articles []Article `json:"articles"`
}
