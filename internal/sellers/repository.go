package sellers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/events"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/pkg/database"
)

const selectSeller = `SELECT s.id, s.event_id, s.registration_id, s.user_id, s.seller_number, s.role,
	s.max_article_count, s.can_create_billings, r.name, r.email, s.created_at, s.updated_at
	FROM sellers s
	JOIN seller_registrations r ON r.id = s.registration_id`

// Repository handles seller persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a seller repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSeller(row interface{ Scan(...any) error }) (*models.Seller, error) {
	var s models.Seller
	err := row.Scan(&s.ID, &s.EventID, &s.RegistrationID, &s.UserID, &s.SellerNumber, &s.Role,
		&s.MaxArticleCount, &s.CanCreateBillings, &s.Name, &s.Email, &s.CreatedAt, &s.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, bazaar.ErrSellerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func querySellers(ctx context.Context, q database.Querier, sql string, args ...any) ([]*models.Seller, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Seller
	for rows.Next() {
		s, err := scanSeller(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Load reads a seller through q.
func Load(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Seller, error) {
	return scanSeller(q.QueryRow(ctx, selectSeller+` WHERE s.id = $1`, id))
}

// Lock reads a seller and holds its row lock for the surrounding transaction.
func Lock(ctx context.Context, tx database.Querier, id uuid.UUID) (*models.Seller, error) {
	return scanSeller(tx.QueryRow(ctx, selectSeller+` WHERE s.id = $1 FOR UPDATE OF s`, id))
}

// ByRegistration returns the seller promoted from a registration.
func ByRegistration(ctx context.Context, q database.Querier, registrationID uuid.UUID) (*models.Seller, error) {
	return scanSeller(q.QueryRow(ctx, selectSeller+` WHERE s.registration_id = $1`, registrationID))
}

// ByNumber returns the seller with number n in an event.
func ByNumber(ctx context.Context, q database.Querier, eventID uuid.UUID, n int) (*models.Seller, error) {
	return scanSeller(q.QueryRow(ctx, selectSeller+` WHERE s.event_id = $1 AND s.seller_number = $2`, eventID, n))
}

// NextNumber returns the next free seller number of an event. Callers hold the event
// row lock so concurrent acceptances do not pick the same number.
func NextNumber(ctx context.Context, tx database.Querier, eventID uuid.UUID) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(seller_number), 0) + 1 FROM sellers WHERE event_id = $1`, eventID).Scan(&n)
	return n, err
}

// Insert creates a seller and links it to the user account registered with email, if any.
func Insert(ctx context.Context, tx database.Querier, s *models.Seller, email string) error {
	const q = `INSERT INTO sellers (event_id, registration_id, user_id, seller_number, role, max_article_count, can_create_billings)
		VALUES ($1, $2, (SELECT id FROM users WHERE email = $3), $4, $5, $6, $7)
		RETURNING id, user_id, created_at, updated_at`
	err := tx.QueryRow(ctx, q, s.EventID, s.RegistrationID, strings.ToLower(strings.TrimSpace(email)),
		s.SellerNumber, s.Role, s.MaxArticleCount, s.CanCreateBillings).
		Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert seller: %w", err)
	}
	return nil
}

// GetByID returns a seller.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	return Load(ctx, r.pool, id)
}

// ListByEvent returns the sellers of an event ordered by number.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Seller, error) {
	return querySellers(ctx, r.pool, selectSeller+` WHERE s.event_id = $1 ORDER BY s.seller_number`, eventID)
}

// ListByUser returns the seller entries of a user across events.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Seller, error) {
	return querySellers(ctx, r.pool, selectSeller+` WHERE s.user_id = $1 ORDER BY s.created_at DESC`, userID)
}

// GetForUser returns the seller entry of a user in one event.
func (r *Repository) GetForUser(ctx context.Context, eventID, userID uuid.UUID) (*models.Seller, error) {
	return scanSeller(r.pool.QueryRow(ctx, selectSeller+` WHERE s.event_id = $1 AND s.user_id = $2`, eventID, userID))
}

// LinkUser attaches unlinked sellers whose registration email matches to userID.
func (r *Repository) LinkUser(ctx context.Context, userID uuid.UUID, email string) (int64, error) {
	const q = `UPDATE sellers s SET user_id = $1, updated_at = NOW()
		FROM seller_registrations r
		WHERE r.id = s.registration_id AND lower(r.email) = lower($2) AND s.user_id IS NULL`
	tag, err := r.pool.Exec(ctx, q, userID, strings.TrimSpace(email))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UpdateParams holds the manager-editable seller fields; nil fields stay unchanged.
type UpdateParams struct {
	SellerNumber      *int
	Role              *bazaar.SellerRole
	MaxArticleCount   *int
	CanCreateBillings *bool
}

// Update applies p. A role change without an explicit MaxArticleCount resets the quota
// to the role default. Taking a number held by another seller of the same event moves
// that seller to the next free number.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Seller, error) {
	var out *models.Seller
	err := database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		s, err := Lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := events.Lock(ctx, tx, s.EventID); err != nil {
			return err
		}
		if p.Role != nil && *p.Role != s.Role {
			s.Role = *p.Role
			if p.MaxArticleCount == nil {
				s.MaxArticleCount = s.Role.MaxArticles()
			}
		}
		if p.MaxArticleCount != nil {
			s.MaxArticleCount = *p.MaxArticleCount
		}
		if p.CanCreateBillings != nil {
			s.CanCreateBillings = *p.CanCreateBillings
		}
		if s.MaxArticleCount < 0 {
			return bazaar.ErrInvalidInput.WithDetail("max_article_count")
		}
		var articles int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM articles WHERE seller_id = $1`, id).Scan(&articles); err != nil {
			return err
		}
		if articles > s.MaxArticleCount {
			return bazaar.ErrArticleLimitExceeded.WithDetail(fmt.Sprintf("%d Artikel angelegt", articles))
		}
		if p.SellerNumber != nil && *p.SellerNumber != s.SellerNumber {
			if *p.SellerNumber <= 0 {
				return bazaar.ErrInvalidInput.WithDetail("seller_number")
			}
			if err := sweepNumber(ctx, tx, s.EventID, *p.SellerNumber); err != nil {
				return err
			}
			s.SellerNumber = *p.SellerNumber
		}
		const q = `UPDATE sellers SET seller_number = $2, role = $3, max_article_count = $4, can_create_billings = $5, updated_at = NOW()
			WHERE id = $1`
		if _, err := tx.Exec(ctx, q, s.ID, s.SellerNumber, s.Role, s.MaxArticleCount, s.CanCreateBillings); err != nil {
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

// sweepNumber frees number n in an event by moving its holder to the next free number.
// The unique constraint is deferred, so both updates may happen in either order.
func sweepNumber(ctx context.Context, tx database.Querier, eventID uuid.UUID, n int) error {
	holder, err := ByNumber(ctx, tx, eventID, n)
	if err != nil {
		if errors.Is(err, bazaar.ErrSellerNotFound) {
			return nil
		}
		return err
	}
	next, err := NextNumber(ctx, tx, eventID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE sellers SET seller_number = $2, updated_at = NOW() WHERE id = $1`, holder.ID, next)
	return err
}

// Settlement computes the payout of one seller from its sold articles.
func (r *Repository) Settlement(ctx context.Context, id uuid.UUID) (*models.SellerSettlement, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	const q = `SELECT COUNT(a.id), COALESCE(SUM(a.price_cents), 0)::bigint, e.commission_percent
		FROM events e
		LEFT JOIN articles a ON a.seller_id = $1 AND a.status = 'sold'
		WHERE e.id = $2
		GROUP BY e.commission_percent`
	var count int
	var total int64
	var percent int
	if err := r.pool.QueryRow(ctx, q, s.ID, s.EventID).Scan(&count, &total, &percent); err != nil {
		return nil, err
	}
	return &models.SellerSettlement{
		SellerID:     s.ID,
		SellerNumber: s.SellerNumber,
		Name:         s.Name,
		Settlement:   bazaar.Settle(count, total, percent),
	}, nil
}

// EventSettlement returns every seller's payout and the event total.
func (r *Repository) EventSettlement(ctx context.Context, eventID uuid.UUID) ([]models.SellerSettlement, bazaar.Settlement, error) {
	ev, err := events.Load(ctx, r.pool, eventID)
	if err != nil {
		return nil, bazaar.Settlement{}, err
	}
	const q = `SELECT s.id, s.seller_number, r.name,
		COUNT(a.id), COALESCE(SUM(a.price_cents), 0)::bigint
		FROM sellers s
		JOIN seller_registrations r ON r.id = s.registration_id
		LEFT JOIN articles a ON a.seller_id = s.id AND a.status = 'sold'
		WHERE s.event_id = $1
		GROUP BY s.id, s.seller_number, r.name
		ORDER BY s.seller_number`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, bazaar.Settlement{}, err
	}
	defer rows.Close()
	var list []models.SellerSettlement
	var total bazaar.Settlement
	for rows.Next() {
		var st models.SellerSettlement
		var count int
		var sum int64
		if err := rows.Scan(&st.SellerID, &st.SellerNumber, &st.Name, &count, &sum); err != nil {
			return nil, bazaar.Settlement{}, err
		}
		st.Settlement = bazaar.Settle(count, sum, ev.CommissionPercent)
		total.SoldCount += st.SoldCount
		total.SoldTotalCents += st.SoldTotalCents
		total.CommissionCents += st.CommissionCents
		total.PayoutCents += st.PayoutCents
		list = append(list, st)
	}
	return list, total, rows.Err()
}
