package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kinderbasar/backend/internal/bazaar"
)

// Seller is an accepted, numbered participant of one event.
type Seller struct {
	ID                uuid.UUID         `json:"id"`
	EventID           uuid.UUID         `json:"event_id"`
	RegistrationID    uuid.UUID         `json:"registration_id"`
	UserID            *uuid.UUID        `json:"user_id,omitempty"`
	SellerNumber      int               `json:"seller_number"`
	Role              bazaar.SellerRole `json:"role"`
	MaxArticleCount   int               `json:"max_article_count"`
	CanCreateBillings bool              `json:"can_create_billings"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// SellerSettlement is the payout summary of one seller.
type SellerSettlement struct {
	SellerID     uuid.UUID `json:"seller_id"`
	SellerNumber int       `json:"seller_number"`
	Name         string    `json:"name"`
	bazaar.Settlement
}
