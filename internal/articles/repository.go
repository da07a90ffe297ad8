package articles

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/events"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/internal/sellers"
	"github.com/kinderbasar/backend/pkg/database"
)

const selectArticle = `SELECT a.id, a.event_id, a.seller_id, s.seller_number, a.label_number, a.name, a.size,
	a.price_cents, a.status, a.created_at, a.updated_at
	FROM articles a
	JOIN sellers s ON s.id = a.seller_id`

// Repository handles article persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an article repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanArticle(row interface{ Scan(...any) error }) (*models.Article, error) {
	var a models.Article
	err := row.Scan(&a.ID, &a.EventID, &a.SellerID, &a.SellerNumber, &a.LabelNumber, &a.Name, &a.Size,
		&a.PriceCents, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, bazaar.ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Query runs an article select through q and collects the rows.
func Query(ctx context.Context, q database.Querier, where string, args ...any) ([]models.Article, error) {
	rows, err := q.Query(ctx, selectArticle+` `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// Load reads an article through q.
func Load(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Article, error) {
	return scanArticle(q.QueryRow(ctx, selectArticle+` WHERE a.id = $1`, id))
}

// Lock reads an article and holds its row lock for the surrounding transaction.
func Lock(ctx context.Context, tx database.Querier, id uuid.UUID) (*models.Article, error) {
	return scanArticle(tx.QueryRow(ctx, selectArticle+` WHERE a.id = $1 FOR UPDATE OF a`, id))
}

// FindByLabel resolves a scanned label (seller number, label number) within an event.
func FindByLabel(ctx context.Context, q database.Querier, eventID uuid.UUID, sellerNumber, labelNumber int) (*models.Article, error) {
	return scanArticle(q.QueryRow(ctx, selectArticle+` WHERE a.event_id = $1 AND s.seller_number = $2 AND a.label_number = $3`,
		eventID, sellerNumber, labelNumber))
}

// checkEditWindow fails once the article edit deadline of the event has passed.
func checkEditWindow(ctx context.Context, tx database.Querier, eventID uuid.UUID, now time.Time) error {
	ev, err := events.Load(ctx, tx, eventID)
	if err != nil {
		return err
	}
	w := ev.Windows()
	if w.IsExpired(now) {
		return bazaar.ErrEventExpired
	}
	if !w.CanEditArticles(now) {
		return bazaar.ErrEditArticlesClosed
	}
	return nil
}

// Input holds the seller-editable article fields.
type Input struct {
	Name       string
	Size       string
	PriceCents int64
}

func (in *Input) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Size = strings.TrimSpace(in.Size)
	if in.Name == "" {
		return bazaar.ErrInvalidInput.WithDetail("name")
	}
	return bazaar.ValidatePrice(in.PriceCents)
}

// Create adds an article with the next label number of the seller. The seller row lock
// serializes label numbering and the quota check.
func (r *Repository) Create(ctx context.Context, sellerID uuid.UUID, in Input, now time.Time) (*models.Article, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var out *models.Article
	err := database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		s, err := sellers.Lock(ctx, tx, sellerID)
		if err != nil {
			return err
		}
		if err := checkEditWindow(ctx, tx, s.EventID, now); err != nil {
			return err
		}
		var count, next int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*), COALESCE(MAX(label_number), 0) + 1 FROM articles WHERE seller_id = $1`, s.ID).
			Scan(&count, &next); err != nil {
			return err
		}
		if count >= s.MaxArticleCount {
			return bazaar.ErrArticleLimitExceeded
		}
		var id uuid.UUID
		const q = `INSERT INTO articles (event_id, seller_id, label_number, name, size, price_cents)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
		if err := tx.QueryRow(ctx, q, s.EventID, s.ID, next, in.Name, in.Size, in.PriceCents).Scan(&id); err != nil {
			return err
		}
		out, err = Load(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update changes an article that has not entered checkout.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in Input, now time.Time) (*models.Article, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var out *models.Article
	err := database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		a, err := Lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkEditWindow(ctx, tx, a.EventID, now); err != nil {
			return err
		}
		if err := bazaar.CheckArticleEditable(a.Status); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE articles SET name = $2, size = $3, price_cents = $4, updated_at = NOW() WHERE id = $1`,
			id, in.Name, in.Size, in.PriceCents); err != nil {
			return err
		}
		out, err = Load(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an article that has not entered checkout.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, now time.Time) error {
	return database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		a, err := Lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkEditWindow(ctx, tx, a.EventID, now); err != nil {
			return err
		}
		if err := bazaar.CheckArticleEditable(a.Status); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
		return err
	})
}

// GetByID returns an article.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	return Load(ctx, r.pool, id)
}

// ListBySeller returns a seller's articles by label number.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Article, error) {
	return Query(ctx, r.pool, `WHERE a.seller_id = $1 ORDER BY a.label_number`, sellerID)
}

// FindByLabel resolves a scanned label.
func (r *Repository) FindByLabel(ctx context.Context, eventID uuid.UUID, sellerNumber, labelNumber int) (*models.Article, error) {
	return FindByLabel(ctx, r.pool, eventID, sellerNumber, labelNumber)
}
