package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/internal/outbox"
	"github.com/kinderbasar/backend/pkg/database"
)

const userColumns = `id, email, password_hash, full_name, role, COALESCE(totp_secret, ''), totp_enabled, created_at, updated_at`

// Repository handles user and link token persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Role, &u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, bazaar.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email, case-insensitively.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, normalizeEmail(email)))
}

// List returns all users for the admin overview.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, full_name, role, totp_enabled, created_at FROM users ORDER BY full_name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.TOTPEnabled, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Create inserts a new user. A taken email yields ErrEmailAlreadyRegistered.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string, role bazaar.UserRole) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, q, normalizeEmail(email), passwordHash, fullName, role))
	if database.IsUniqueViolation(err, "") {
		return nil, bazaar.ErrEmailAlreadyRegistered
	}
	return u, err
}

// Count returns the number of accounts; the first account becomes admin.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// UpdateRole changes a user's role.
func (r *Repository) UpdateRole(ctx context.Context, id uuid.UUID, role bazaar.UserRole) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bazaar.ErrUserNotFound
	}
	return nil
}

// SetTOTPSecret stores a pending secret; it is only enforced once enabled.
func (r *Repository) SetTOTPSecret(ctx context.Context, id uuid.UUID, secret string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET totp_secret = $2, totp_enabled = FALSE, updated_at = NOW() WHERE id = $1`, id, secret)
	return err
}

// SetTOTPEnabled switches the second factor on or off. Disabling also drops the secret.
func (r *Repository) SetTOTPEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	const q = `UPDATE users SET totp_enabled = $2,
		totp_secret = CASE WHEN $2 THEN totp_secret ELSE NULL END,
		updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, enabled)
	return err
}

// CreateToken stores a link token hash and queues the mail carrying the plain token,
// in one transaction.
func (r *Repository) CreateToken(ctx context.Context, t *models.UserToken, mail *models.OutboxEmail) error {
	return database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		// Older unused tokens of the same purpose stop working.
		if _, err := tx.Exec(ctx, `UPDATE user_tokens SET used_at = NOW() WHERE user_id = $1 AND purpose = $2 AND used_at IS NULL`,
			t.UserID, t.Purpose); err != nil {
			return err
		}
		const q = `INSERT INTO user_tokens (user_id, purpose, token_hash, new_email, expires_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5)
			RETURNING id, created_at`
		if err := tx.QueryRow(ctx, q, t.UserID, t.Purpose, t.TokenHash, normalizeEmail(t.NewEmail), t.ExpiresAt).
			Scan(&t.ID, &t.CreatedAt); err != nil {
			return fmt.Errorf("insert token: %w", err)
		}
		return outbox.Enqueue(ctx, tx, mail)
	})
}

func consumeToken(ctx context.Context, tx database.Querier, purpose, tokenHash string) (*models.UserToken, error) {
	const q = `UPDATE user_tokens SET used_at = NOW()
		WHERE token_hash = $1 AND purpose = $2 AND used_at IS NULL AND expires_at > NOW()
		RETURNING id, user_id, purpose, token_hash, COALESCE(new_email, ''), expires_at, used_at, created_at`
	var t models.UserToken
	err := tx.QueryRow(ctx, q, tokenHash, purpose).
		Scan(&t.ID, &t.UserID, &t.Purpose, &t.TokenHash, &t.NewEmail, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if database.IsNoRows(err) {
		return nil, bazaar.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ResetPassword consumes a reset token and stores the new password hash.
func (r *Repository) ResetPassword(ctx context.Context, tokenHash, passwordHash string) error {
	return database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		t, err := consumeToken(ctx, tx, models.TokenPurposePasswordReset, tokenHash)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, t.UserID, passwordHash)
		return err
	})
}

// ConfirmEmailChange consumes an email change token and switches the address.
func (r *Repository) ConfirmEmailChange(ctx context.Context, tokenHash string) (*models.User, error) {
	var u *models.User
	err := database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		t, err := consumeToken(ctx, tx, models.TokenPurposeEmailChange, tokenHash)
		if err != nil {
			return err
		}
		u, err = scanUser(tx.QueryRow(ctx, `UPDATE users SET email = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
			t.UserID, t.NewEmail))
		if database.IsUniqueViolation(err, "") {
			return bazaar.ErrEmailAlreadyRegistered
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// TokenExpiry returns the expiry for a link token issued now.
func TokenExpiry(hours int) time.Time {
	return time.Now().Add(time.Duration(hours) * time.Hour)
}
