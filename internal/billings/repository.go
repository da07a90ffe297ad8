package billings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinderbasar/backend/internal/articles"
	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/events"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/pkg/database"
)

const selectBilling = `SELECT id, event_id, user_id, status, total_cents, created_at, updated_at, completed_at FROM billings`

// Repository handles billing persistence. Every booking change locks the billing row
// first and the article row second.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a billing repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanBilling(row interface{ Scan(...any) error }) (*models.Billing, error) {
	var b models.Billing
	err := row.Scan(&b.ID, &b.EventID, &b.UserID, &b.Status, &b.TotalCents, &b.CreatedAt, &b.UpdatedAt, &b.CompletedAt)
	if database.IsNoRows(err) {
		return nil, bazaar.ErrBillingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func load(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Billing, error) {
	return scanBilling(q.QueryRow(ctx, selectBilling+` WHERE id = $1`, id))
}

func lock(ctx context.Context, tx database.Querier, id uuid.UUID) (*models.Billing, error) {
	return scanBilling(tx.QueryRow(ctx, selectBilling+` WHERE id = $1 FOR UPDATE`, id))
}

// CanCreate reports whether a user may run checkouts for an event: checkout staff,
// admins and managers always, sellers only with the can_create_billings flag.
func (r *Repository) CanCreate(ctx context.Context, eventID, userID uuid.UUID, role bazaar.UserRole) (bool, error) {
	if role == bazaar.UserRoleBilling || role.IsStaff() {
		return true, nil
	}
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(
		SELECT 1 FROM sellers WHERE event_id = $1 AND user_id = $2 AND can_create_billings)`, eventID, userID).Scan(&ok)
	return ok, err
}

// Create opens an empty billing while the bazaar is running.
func (r *Repository) Create(ctx context.Context, eventID, userID uuid.UUID, now time.Time) (*models.Billing, error) {
	ev, err := events.Load(ctx, r.pool, eventID)
	if err != nil {
		return nil, err
	}
	if !ev.Windows().CanCreateBilling(now) {
		return nil, bazaar.ErrBillingNotOpen
	}
	return scanBilling(r.pool.QueryRow(ctx, `INSERT INTO billings (event_id, user_id, status) VALUES ($1, $2, $3)
		RETURNING id, event_id, user_id, status, total_cents, created_at, updated_at, completed_at`,
		eventID, userID, bazaar.BillingInProgress))
}

// GetByID returns a billing.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Billing, error) {
	return load(ctx, r.pool, id)
}

// Detail returns a billing with its booked articles in booking order.
func (r *Repository) Detail(ctx context.Context, id uuid.UUID) (*models.BillingDetail, error) {
	b, err := load(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	list, err := articles.Query(ctx, r.pool, `JOIN billing_articles ba ON ba.article_id = a.id
		WHERE ba.billing_id = $1 ORDER BY ba.created_at, a.label_number`, id)
	if err != nil {
		return nil, err
	}
	return &models.BillingDetail{Billing: *b, Articles: list}, nil
}

// List returns the billings of an event, newest first. userID narrows to one cashier.
func (r *Repository) List(ctx context.Context, eventID uuid.UUID, userID *uuid.UUID) ([]models.Billing, error) {
	rows, err := r.pool.Query(ctx, selectBilling+` WHERE event_id = $1 AND ($2::uuid IS NULL OR user_id = $2)
		ORDER BY created_at DESC`, eventID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Billing{}
	for rows.Next() {
		b, err := scanBilling(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

// BookArticle books an article into a billing.
func (r *Repository) BookArticle(ctx context.Context, billingID, articleID uuid.UUID, now time.Time) (*models.Billing, error) {
	return r.book(ctx, billingID, now, func(tx database.Querier, _ *models.Billing) (uuid.UUID, error) {
		return articleID, nil
	})
}

// BookLabel books the article behind a scanned label into a billing.
func (r *Repository) BookLabel(ctx context.Context, billingID uuid.UUID, sellerNumber, labelNumber int, now time.Time) (*models.Billing, error) {
	return r.book(ctx, billingID, now, func(tx database.Querier, b *models.Billing) (uuid.UUID, error) {
		a, err := articles.FindByLabel(ctx, tx, b.EventID, sellerNumber, labelNumber)
		if err != nil {
			return uuid.Nil, err
		}
		return a.ID, nil
	})
}

// book runs the booking transaction: status Created -> Booked, total += price and the
// junction row, all or nothing. Bookings are only taken while the bazaar is running.
func (r *Repository) book(ctx context.Context, billingID uuid.UUID, now time.Time, resolve func(database.Querier, *models.Billing) (uuid.UUID, error)) (*models.Billing, error) {
	var out *models.Billing
	err := database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		b, err := lock(ctx, tx, billingID)
		if err != nil {
			return err
		}
		if err := bazaar.CheckBillingOpen(b.Status); err != nil {
			return err
		}
		ev, err := events.Load(ctx, tx, b.EventID)
		if err != nil {
			return err
		}
		if !ev.Windows().CanCreateBilling(now) {
			return bazaar.ErrBillingNotOpen
		}
		articleID, err := resolve(tx, b)
		if err != nil {
			return err
		}
		a, err := articles.Lock(ctx, tx, articleID)
		if err != nil {
			return err
		}
		if a.EventID != b.EventID {
			return bazaar.ErrArticleNotFound
		}
		var linked bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM billing_articles WHERE article_id = $1)`, a.ID).Scan(&linked); err != nil {
			return err
		}
		if err := bazaar.CheckBookable(b.Status, a.Status, linked); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO billing_articles (billing_id, article_id) VALUES ($1, $2)`, b.ID, a.ID); err != nil {
			if database.IsUniqueViolation(err, "") {
				return bazaar.ErrArticleAlreadyBooked
			}
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE articles SET status = $2, updated_at = NOW() WHERE id = $1`, a.ID, bazaar.ArticleBooked); err != nil {
			return err
		}
		out, err = scanBilling(tx.QueryRow(ctx, `UPDATE billings SET total_cents = total_cents + $2, updated_at = NOW() WHERE id = $1
			RETURNING id, event_id, user_id, status, total_cents, created_at, updated_at, completed_at`, b.ID, a.PriceCents))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveArticle reverses a booking of an open billing.
func (r *Repository) RemoveArticle(ctx context.Context, billingID, articleID uuid.UUID) (*models.Billing, error) {
	var out *models.Billing
	err := database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		b, err := lock(ctx, tx, billingID)
		if err != nil {
			return err
		}
		if err := bazaar.CheckBillingOpen(b.Status); err != nil {
			return err
		}
		a, err := articles.Lock(ctx, tx, articleID)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM billing_articles WHERE billing_id = $1 AND article_id = $2`, b.ID, a.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return bazaar.ErrArticleNotInBilling
		}
		if _, err := tx.Exec(ctx, `UPDATE articles SET status = $2, updated_at = NOW() WHERE id = $1`, a.ID, bazaar.ArticleCreated); err != nil {
			return err
		}
		out, err = scanBilling(tx.QueryRow(ctx, `UPDATE billings SET total_cents = total_cents - $2, updated_at = NOW() WHERE id = $1
			RETURNING id, event_id, user_id, status, total_cents, created_at, updated_at, completed_at`, b.ID, a.PriceCents))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Complete closes an open billing and marks its articles sold.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID) (*models.Billing, error) {
	var out *models.Billing
	err := database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		b, err := lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := bazaar.CheckBillingOpen(b.Status); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE articles SET status = $2, updated_at = NOW()
			WHERE id IN (SELECT article_id FROM billing_articles WHERE billing_id = $1)`, id, bazaar.ArticleSold); err != nil {
			return err
		}
		out, err = scanBilling(tx.QueryRow(ctx, `UPDATE billings SET status = $2, completed_at = NOW(), updated_at = NOW() WHERE id = $1
			RETURNING id, event_id, user_id, status, total_cents, created_at, updated_at, completed_at`, id, bazaar.BillingCompleted))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// revert returns every linked article to Created and drops the junction rows.
func revert(ctx context.Context, tx database.Querier, id uuid.UUID) error {
	if _, err := tx.Exec(ctx, `UPDATE articles SET status = $2, updated_at = NOW()
		WHERE id IN (SELECT article_id FROM billing_articles WHERE billing_id = $1)`, id, bazaar.ArticleCreated); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `DELETE FROM billing_articles WHERE billing_id = $1`, id)
	return err
}

// Cancel reverts the articles of an open or completed billing and marks it cancelled.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) (*models.Billing, error) {
	var out *models.Billing
	err := database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		b, err := lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if b.Status == bazaar.BillingCancelled {
			return bazaar.ErrBillingCancelled
		}
		if err := revert(ctx, tx, id); err != nil {
			return err
		}
		out, err = scanBilling(tx.QueryRow(ctx, `UPDATE billings SET status = $2, total_cents = 0, updated_at = NOW() WHERE id = $1
			RETURNING id, event_id, user_id, status, total_cents, created_at, updated_at, completed_at`, id, bazaar.BillingCancelled))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete reverts the articles of a billing and removes it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		if _, err := lock(ctx, tx, id); err != nil {
			return err
		}
		if err := revert(ctx, tx, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM billings WHERE id = $1`, id)
		return err
	})
}
