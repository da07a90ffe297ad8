package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kinderbasar/backend/internal/bazaar"
)

// Article is a priced, labeled item listed by a seller.
type Article struct {
	ID           uuid.UUID            `json:"id"`
	EventID      uuid.UUID            `json:"event_id"`
	SellerID     uuid.UUID            `json:"seller_id"`
	SellerNumber int                  `json:"seller_number"`
	LabelNumber  int                  `json:"label_number"`
	Name         string               `json:"name"`
	Size         string               `json:"size"`
	PriceCents   int64                `json:"price_cents"`
	Status       bazaar.ArticleStatus `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}
