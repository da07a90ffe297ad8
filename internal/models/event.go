package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kinderbasar/backend/internal/bazaar"
)

// Event is one bazaar with its date windows and capacity.
type Event struct {
	ID                   uuid.UUID  `json:"id"`
	Name                 string     `json:"name"`
	Description          string     `json:"description"`
	Address              string     `json:"address"`
	StartsAt             time.Time  `json:"starts_at"`
	EndsAt               time.Time  `json:"ends_at"`
	RegisterStartsAt     time.Time  `json:"register_starts_at"`
	RegisterEndsAt       time.Time  `json:"register_ends_at"`
	EditArticlesEndsAt   time.Time  `json:"edit_articles_ends_at"`
	PickupLabelsStartsAt time.Time  `json:"pickup_labels_starts_at"`
	PickupLabelsEndsAt   time.Time  `json:"pickup_labels_ends_at"`
	MaxSellers           int        `json:"max_sellers"`
	CommissionPercent    int        `json:"commission_percent"`
	CreatedBy            *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Windows returns the lifecycle timestamps for phase checks.
func (e *Event) Windows() bazaar.Windows {
	return bazaar.Windows{
		StartsAt:             e.StartsAt,
		EndsAt:               e.EndsAt,
		RegisterStartsAt:     e.RegisterStartsAt,
		RegisterEndsAt:       e.RegisterEndsAt,
		EditArticlesEndsAt:   e.EditArticlesEndsAt,
		PickupLabelsStartsAt: e.PickupLabelsStartsAt,
		PickupLabelsEndsAt:   e.PickupLabelsEndsAt,
	}
}

// EventStatistics summarizes an event for the manager dashboard.
type EventStatistics struct {
	EventID              uuid.UUID `json:"event_id"`
	Registrations        int       `json:"registrations"`
	PendingRegistrations int       `json:"pending_registrations"`
	Sellers              int       `json:"sellers"`
	Articles             int       `json:"articles"`
	SoldArticles         int       `json:"sold_articles"`
	Billings             int       `json:"billings"`
	CompletedBillings    int       `json:"completed_billings"`
	RevenueCents         int64     `json:"revenue_cents"`
}
