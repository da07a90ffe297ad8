package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/pkg/database"
)

const eventColumns = `id, name, description, address, starts_at, ends_at,
	register_starts_at, register_ends_at, edit_articles_ends_at,
	pickup_labels_starts_at, pickup_labels_ends_at,
	max_sellers, commission_percent, created_by, created_at, updated_at`

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row interface{ Scan(...any) error }) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Address, &e.StartsAt, &e.EndsAt,
		&e.RegisterStartsAt, &e.RegisterEndsAt, &e.EditArticlesEndsAt,
		&e.PickupLabelsStartsAt, &e.PickupLabelsEndsAt,
		&e.MaxSellers, &e.CommissionPercent, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, bazaar.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Load reads an event through q.
func Load(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Event, error) {
	return scanEvent(q.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// Lock reads an event and holds its row lock until the surrounding transaction ends.
// Registrations for the event serialize on this lock.
func Lock(ctx context.Context, tx database.Querier, id uuid.UUID) (*models.Event, error) {
	return scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
}

// GetByID returns an event.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return Load(ctx, r.pool, id)
}

// List returns events, newest first.
func (r *Repository) List(ctx context.Context) ([]*models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY starts_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Create inserts an event after validating its windows and capacity.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	if err := validate(e); err != nil {
		return err
	}
	const q = `INSERT INTO events (name, description, address, starts_at, ends_at,
		register_starts_at, register_ends_at, edit_articles_ends_at,
		pickup_labels_starts_at, pickup_labels_ends_at, max_sellers, commission_percent, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.Name, e.Description, e.Address, e.StartsAt, e.EndsAt,
		e.RegisterStartsAt, e.RegisterEndsAt, e.EditArticlesEndsAt,
		e.PickupLabelsStartsAt, e.PickupLabelsEndsAt, e.MaxSellers, e.CommissionPercent, e.CreatedBy).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update stores all editable fields of e.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	if err := validate(e); err != nil {
		return err
	}
	const q = `UPDATE events SET name = $2, description = $3, address = $4, starts_at = $5, ends_at = $6,
		register_starts_at = $7, register_ends_at = $8, edit_articles_ends_at = $9,
		pickup_labels_starts_at = $10, pickup_labels_ends_at = $11,
		max_sellers = $12, commission_percent = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, e.ID, e.Name, e.Description, e.Address, e.StartsAt, e.EndsAt,
		e.RegisterStartsAt, e.RegisterEndsAt, e.EditArticlesEndsAt,
		e.PickupLabelsStartsAt, e.PickupLabelsEndsAt, e.MaxSellers, e.CommissionPercent).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	if database.IsNoRows(err) {
		return bazaar.ErrEventNotFound
	}
	return err
}

// Delete removes an event that has no registrations yet.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		if _, err := Lock(ctx, tx, id); err != nil {
			return err
		}
		var n int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM seller_registrations WHERE event_id = $1`, id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return bazaar.ErrEventHasRegistrations
		}
		_, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		return err
	})
}

// Statistics aggregates registrations, sellers, articles and billings of an event.
func (r *Repository) Statistics(ctx context.Context, id uuid.UUID) (*models.EventStatistics, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	const q = `SELECT
		(SELECT COUNT(*) FROM seller_registrations WHERE event_id = $1),
		(SELECT COUNT(*) FROM seller_registrations WHERE event_id = $1 AND accepted IS NULL),
		(SELECT COUNT(*) FROM sellers WHERE event_id = $1),
		(SELECT COUNT(*) FROM articles WHERE event_id = $1),
		(SELECT COUNT(*) FROM articles WHERE event_id = $1 AND status = 'sold'),
		(SELECT COUNT(*) FROM billings WHERE event_id = $1),
		(SELECT COUNT(*) FROM billings WHERE event_id = $1 AND status = 'completed'),
		(SELECT COALESCE(SUM(total_cents), 0)::bigint FROM billings WHERE event_id = $1 AND status = 'completed')`
	s := models.EventStatistics{EventID: id}
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.Registrations, &s.PendingRegistrations, &s.Sellers,
		&s.Articles, &s.SoldArticles, &s.Billings, &s.CompletedBillings, &s.RevenueCents)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func validate(e *models.Event) error {
	if err := e.Windows().Validate(); err != nil {
		return err
	}
	return bazaar.ValidateCapacity(e.MaxSellers, e.CommissionPercent)
}
