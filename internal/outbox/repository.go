package outbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/pkg/database"
)

// Repository handles email_outbox persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an outbox repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Enqueue stores a mail for the dispatcher. Pass a transaction as q to commit the mail
// together with the change that caused it.
func Enqueue(ctx context.Context, q database.Querier, m *models.OutboxEmail) error {
	const stmt = `INSERT INTO email_outbox (event_id, email_type, recipient_email, subject, body_html, attachment_name, attachment_type, attachment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	var name, contentType *string
	var data []byte
	if m.Attachment != nil {
		name, contentType, data = &m.Attachment.Name, &m.Attachment.ContentType, m.Attachment.Data
	}
	err := q.QueryRow(ctx, stmt, m.EventID, m.EmailType, m.RecipientEmail, m.Subject, m.BodyHTML, name, contentType, data).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}

// Enqueue stores a mail outside any transaction.
func (r *Repository) Enqueue(ctx context.Context, m *models.OutboxEmail) error {
	return Enqueue(ctx, r.pool, m)
}

// maxBackoffMinutes caps the delay between two attempts of a failing mail.
const maxBackoffMinutes = 60

// ListUnsent returns up to limit unsent mails that are due, including body and attachment.
// Mails with fewer attempts come first so failing ones cannot crowd out new mail.
func (r *Repository) ListUnsent(ctx context.Context, limit int) ([]*models.OutboxEmail, error) {
	const q = `SELECT id, event_id, email_type, recipient_email, subject, body_html,
		attachment_name, attachment_type, attachment, attempts, COALESCE(last_error, ''), next_attempt_at, created_at
		FROM email_outbox
		WHERE sent_at IS NULL AND next_attempt_at <= NOW()
		ORDER BY attempts, created_at
		LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.OutboxEmail
	for rows.Next() {
		var m models.OutboxEmail
		var name, contentType *string
		var data []byte
		if err := rows.Scan(&m.ID, &m.EventID, &m.EmailType, &m.RecipientEmail, &m.Subject, &m.BodyHTML,
			&name, &contentType, &data, &m.Attempts, &m.LastError, &m.NextAttemptAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		if name != nil {
			m.Attachment = &models.Attachment{Name: *name, Data: data}
			if contentType != nil {
				m.Attachment.ContentType = *contentType
			}
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// MarkSent records a successful send.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE email_outbox SET sent_at = NOW(), attempts = attempts + 1, last_error = NULL WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// MarkFailed records a failed attempt. The mail stays unsent and is retried after a
// delay that grows by a minute per attempt.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, sendErr string) error {
	const q = `UPDATE email_outbox
		SET attempts = attempts + 1, last_error = $2,
			next_attempt_at = NOW() + LEAST(attempts + 1, $3) * INTERVAL '1 minute'
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, sendErr, maxBackoffMinutes)
	return err
}

// List returns outbox entries newest first, optionally for one event.
func (r *Repository) List(ctx context.Context, eventID *uuid.UUID, limit int) ([]*models.OutboxEmail, error) {
	const q = `SELECT id, event_id, email_type, recipient_email, subject, attempts, COALESCE(last_error, ''), next_attempt_at, sent_at, created_at
		FROM email_outbox
		WHERE ($1::uuid IS NULL OR event_id = $1)
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, q, eventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.OutboxEmail
	for rows.Next() {
		var m models.OutboxEmail
		if err := rows.Scan(&m.ID, &m.EventID, &m.EmailType, &m.RecipientEmail, &m.Subject, &m.Attempts, &m.LastError, &m.NextAttemptAt, &m.SentAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// Resend clears the sent state and any pending backoff so the next dispatch picks the mail up.
func (r *Repository) Resend(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE email_outbox SET sent_at = NULL, last_error = NULL, next_attempt_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bazaar.ErrEmailNotFound
	}
	return nil
}
