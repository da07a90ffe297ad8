package registrations

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/events"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/internal/outbox"
	"github.com/kinderbasar/backend/internal/sellers"
	"github.com/kinderbasar/backend/pkg/database"
)

const selectRegistration = `SELECT r.id, r.event_id, r.name, r.email, r.phone, r.clothing, r.preferred_role,
	r.accepted, (s.id IS NOT NULL), r.created_at, r.updated_at
	FROM seller_registrations r
	LEFT JOIN sellers s ON s.registration_id = r.id`

// Mails renders the mails sent for registration decisions.
type Mails interface {
	RegistrationConfirmation(ev *models.Event, reg *models.SellerRegistration) (*models.OutboxEmail, error)
	SellerAccepted(ev *models.Event, reg *models.SellerRegistration, seller *models.Seller) (*models.OutboxEmail, error)
	SellerDenied(ev *models.Event, reg *models.SellerRegistration) (*models.OutboxEmail, error)
}

// Repository handles seller registrations and their promotion to sellers.
type Repository struct {
	pool  *pgxpool.Pool
	mails Mails
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool, mails Mails) *Repository {
	return &Repository{pool: pool, mails: mails}
}

func scanRegistration(row interface{ Scan(...any) error }) (*models.SellerRegistration, error) {
	var reg models.SellerRegistration
	err := row.Scan(&reg.ID, &reg.EventID, &reg.Name, &reg.Email, &reg.Phone, &reg.Clothing, &reg.PreferredRole,
		&reg.Accepted, &reg.HasSeller, &reg.CreatedAt, &reg.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, bazaar.ErrRegistrationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// lock reads a registration and holds its row lock.
func lock(ctx context.Context, tx database.Querier, id uuid.UUID) (*models.SellerRegistration, error) {
	return scanRegistration(tx.QueryRow(ctx, selectRegistration+` WHERE r.id = $1 FOR UPDATE OF r`, id))
}

// CreateOptions controls the checks of Create.
type CreateOptions struct {
	Now         time.Time
	CheckWindow bool // public registrations must fall inside the registration window
}

// Create stores a registration and queues its confirmation mail. The event row is locked
// for the capacity check, so concurrent registrations cannot exceed max sellers. Denied
// registrations do not count towards the limit.
func (r *Repository) Create(ctx context.Context, reg *models.SellerRegistration, opts CreateOptions) error {
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	if reg.Clothing == nil {
		reg.Clothing = []string{}
	}
	return database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		ev, err := events.Lock(ctx, tx, reg.EventID)
		if err != nil {
			return err
		}
		if opts.CheckWindow {
			w := ev.Windows()
			if w.IsExpired(opts.Now) {
				return bazaar.ErrEventExpired
			}
			if !w.CanRegister(opts.Now) {
				return bazaar.ErrRegistrationClosed
			}
		}
		var taken, exists bool
		const q = `SELECT
			(SELECT COUNT(*) FROM seller_registrations WHERE event_id = $1 AND accepted IS DISTINCT FROM FALSE) >= $2,
			EXISTS (SELECT 1 FROM seller_registrations WHERE event_id = $1 AND email = $3)`
		if err := tx.QueryRow(ctx, q, ev.ID, ev.MaxSellers, reg.Email).Scan(&taken, &exists); err != nil {
			return err
		}
		if exists {
			return bazaar.ErrEmailAlreadyRegistered
		}
		if taken {
			return bazaar.ErrSellerLimitExceeded
		}
		const ins = `INSERT INTO seller_registrations (event_id, name, email, phone, clothing, preferred_role)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at`
		err = tx.QueryRow(ctx, ins, reg.EventID, reg.Name, reg.Email, reg.Phone, reg.Clothing, reg.PreferredRole).
			Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
		if database.IsUniqueViolation(err, "") {
			return bazaar.ErrEmailAlreadyRegistered
		}
		if err != nil {
			return err
		}
		mail, err := r.mails.RegistrationConfirmation(ev, reg)
		if err != nil {
			return err
		}
		return outbox.Enqueue(ctx, tx, mail)
	})
}

// GetByID returns a registration.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.SellerRegistration, error) {
	return scanRegistration(r.pool.QueryRow(ctx, selectRegistration+` WHERE r.id = $1`, id))
}

// List returns the registrations of an event, oldest first.
func (r *Repository) List(ctx context.Context, eventID uuid.UUID, filter models.RegistrationFilter) ([]*models.SellerRegistration, error) {
	q := selectRegistration + ` WHERE r.event_id = $1`
	switch filter {
	case models.RegistrationsPending:
		q += ` AND r.accepted IS NULL`
	case models.RegistrationsAccepted:
		q += ` AND r.accepted = TRUE`
	case models.RegistrationsDenied:
		q += ` AND r.accepted = FALSE`
	}
	rows, err := r.pool.Query(ctx, q+` ORDER BY r.created_at`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.SellerRegistration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

// Accept promotes a registration to a seller with the next free number and queues the
// acceptance mail. A registration that already has a seller returns that seller and
// created=false without sending another mail.
func (r *Repository) Accept(ctx context.Context, id uuid.UUID) (seller *models.Seller, created bool, err error) {
	err = database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		reg, err := lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if reg.HasSeller {
			seller, err = sellers.ByRegistration(ctx, tx, reg.ID)
			return err
		}
		ev, err := events.Lock(ctx, tx, reg.EventID)
		if err != nil {
			return err
		}
		// A denied registration released its slot; it may have been taken since.
		if reg.Accepted != nil && !*reg.Accepted {
			var taken bool
			const q = `SELECT COUNT(*) >= $2 FROM seller_registrations
				WHERE event_id = $1 AND accepted IS DISTINCT FROM FALSE`
			if err := tx.QueryRow(ctx, q, ev.ID, ev.MaxSellers).Scan(&taken); err != nil {
				return err
			}
			if taken {
				return bazaar.ErrSellerLimitExceeded
			}
		}
		number, err := sellers.NextNumber(ctx, tx, ev.ID)
		if err != nil {
			return err
		}
		role, err := bazaar.ParseSellerRole(string(reg.PreferredRole))
		if err != nil {
			role = bazaar.SellerRoleStandard
		}
		s := &models.Seller{
			EventID:           ev.ID,
			RegistrationID:    reg.ID,
			SellerNumber:      number,
			Role:              role,
			MaxArticleCount:   role.MaxArticles(),
			CanCreateBillings: role.CanCreateBillings(),
			Name:              reg.Name,
			Email:             reg.Email,
		}
		if err := sellers.Insert(ctx, tx, s, reg.Email); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE seller_registrations SET accepted = TRUE, updated_at = NOW() WHERE id = $1`, reg.ID); err != nil {
			return err
		}
		mail, err := r.mails.SellerAccepted(ev, reg, s)
		if err != nil {
			return err
		}
		if err := outbox.Enqueue(ctx, tx, mail); err != nil {
			return err
		}
		seller, created = s, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return seller, created, nil
}

// Deny rejects a registration that was not promoted and queues the denial mail.
// Denying twice is a no-op.
func (r *Repository) Deny(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		reg, err := lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if reg.HasSeller {
			return bazaar.ErrRegistrationDecided
		}
		if reg.Accepted != nil && !*reg.Accepted {
			return nil
		}
		if _, err := tx.Exec(ctx, `UPDATE seller_registrations SET accepted = FALSE, updated_at = NOW() WHERE id = $1`, reg.ID); err != nil {
			return err
		}
		ev, err := events.Load(ctx, tx, reg.EventID)
		if err != nil {
			return err
		}
		mail, err := r.mails.SellerDenied(ev, reg)
		if err != nil {
			return err
		}
		return outbox.Enqueue(ctx, tx, mail)
	})
}

// Delete removes a registration that has not been decided yet.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		reg, err := lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if reg.HasSeller || reg.Accepted != nil {
			return bazaar.ErrRegistrationDecided
		}
		_, err = tx.Exec(ctx, `DELETE FROM seller_registrations WHERE id = $1`, id)
		return err
	})
}
