package models

import (
	"time"

	"github.com/google/uuid"
)

// Planning is a volunteer shift of an event.
type Planning struct {
	ID         uuid.UUID        `json:"id"`
	EventID    uuid.UUID        `json:"event_id"`
	Name       string           `json:"name"`
	Date       time.Time        `json:"date"`
	FromTime   string           `json:"from_time"`
	ToTime     string           `json:"to_time"`
	MaxHelpers int              `json:"max_helpers"`
	Helpers    []PlanningHelper `json:"helpers"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// PlanningHelper is one assignment: a user account or a free-text person name.
type PlanningHelper struct {
	ID         uuid.UUID  `json:"id"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	PersonName string     `json:"person_name,omitempty"`
	FullName   string     `json:"full_name,omitempty"`
}
