package models

import (
	"time"

	"github.com/google/uuid"
)

// Email types for the outbox.
const (
	EmailTypeRegistrationConfirmation = "registration_confirmation"
	EmailTypeSellerAccepted           = "seller_accepted"
	EmailTypeSellerDenied             = "seller_denied"
	EmailTypePasswordReset            = "password_reset"
	EmailTypeEmailChange              = "email_change"
)

// OutboxEmail is a queued mail; SentAt stays nil until a send succeeds.
type OutboxEmail struct {
	ID             uuid.UUID   `json:"id"`
	EventID        *uuid.UUID  `json:"event_id,omitempty"`
	EmailType      string      `json:"email_type"`
	RecipientEmail string      `json:"recipient_email"`
	Subject        string      `json:"subject"`
	BodyHTML       string      `json:"-"`
	Attachment     *Attachment `json:"-"`
	Attempts       int         `json:"attempts"`
	LastError      string      `json:"last_error,omitempty"`
	NextAttemptAt  time.Time   `json:"next_attempt_at"`
	SentAt         *time.Time  `json:"sent_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Attachment is a file attached to an outbox mail.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}
