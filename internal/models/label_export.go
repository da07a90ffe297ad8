package models

import (
	"time"

	"github.com/google/uuid"
)

// Label export states.
const (
	LabelExportPending   = "pending"
	LabelExportCompleted = "completed"
	LabelExportFailed    = "failed"
)

// LabelExport tracks one rendered label sheet stored in S3.
type LabelExport struct {
	ID           uuid.UUID `json:"id"`
	SellerID     uuid.UUID `json:"seller_id"`
	Status       string    `json:"status"`
	S3Key        string    `json:"-"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
