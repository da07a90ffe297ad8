package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/pkg/database/dbtest"
	"github.com/kinderbasar/backend/pkg/utils"
)

func TestRepository_CreateAndLookup(t *testing.T) {
	repo := NewRepository(dbtest.New(t))
	ctx := context.Background()

	u, err := repo.Create(ctx, " Anna@Example.com ", "hash", "Anna", bazaar.UserRoleSeller)
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", u.Email)

	got, err := repo.GetByEmail(ctx, "ANNA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.Create(ctx, "anna@example.com", "hash", "Anna 2", bazaar.UserRoleSeller)
	assert.ErrorIs(t, err, bazaar.ErrEmailAlreadyRegistered)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, bazaar.ErrUserNotFound)
}

func TestRepository_PasswordResetTokenIsSingleUse(t *testing.T) {
	pool := dbtest.New(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	u, err := repo.Create(ctx, "anna@example.com", "old", "Anna", bazaar.UserRoleSeller)
	require.NoError(t, err)

	tok := &models.UserToken{UserID: u.ID, Purpose: models.TokenPurposePasswordReset, TokenHash: utils.HashToken("plain"), ExpiresAt: TokenExpiry(1)}
	mail := &models.OutboxEmail{EmailType: models.EmailTypePasswordReset, RecipientEmail: u.Email, Subject: "Reset", BodyHTML: "<p>x</p>"}
	require.NoError(t, repo.CreateToken(ctx, tok, mail))

	var queued int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM email_outbox WHERE sent_at IS NULL`).Scan(&queued))
	assert.Equal(t, 1, queued)

	require.NoError(t, repo.ResetPassword(ctx, utils.HashToken("plain"), "new"))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Password)

	err = repo.ResetPassword(ctx, utils.HashToken("plain"), "again")
	assert.ErrorIs(t, err, bazaar.ErrInvalidToken)
}

func TestRepository_ExpiredTokenRejected(t *testing.T) {
	repo := NewRepository(dbtest.New(t))
	ctx := context.Background()

	u, err := repo.Create(ctx, "anna@example.com", "old", "Anna", bazaar.UserRoleSeller)
	require.NoError(t, err)
	tok := &models.UserToken{UserID: u.ID, Purpose: models.TokenPurposePasswordReset, TokenHash: utils.HashToken("late"), ExpiresAt: TokenExpiry(-1)}
	mail := &models.OutboxEmail{EmailType: models.EmailTypePasswordReset, RecipientEmail: u.Email, Subject: "Reset", BodyHTML: "x"}
	require.NoError(t, repo.CreateToken(ctx, tok, mail))

	assert.ErrorIs(t, repo.ResetPassword(ctx, utils.HashToken("late"), "new"), bazaar.ErrInvalidToken)
}

func TestRepository_ConfirmEmailChange(t *testing.T) {
	repo := NewRepository(dbtest.New(t))
	ctx := context.Background()

	u, err := repo.Create(ctx, "old@example.com", "pw", "Anna", bazaar.UserRoleSeller)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "taken@example.com", "pw", "Berta", bazaar.UserRoleSeller)
	require.NoError(t, err)

	mail := &models.OutboxEmail{EmailType: models.EmailTypeEmailChange, RecipientEmail: "new@example.com", Subject: "Bestätigen", BodyHTML: "x"}
	tok := &models.UserToken{UserID: u.ID, Purpose: models.TokenPurposeEmailChange, TokenHash: utils.HashToken("t1"), NewEmail: "New@Example.com", ExpiresAt: TokenExpiry(1)}
	require.NoError(t, repo.CreateToken(ctx, tok, mail))

	// Reset tokens cannot confirm an email change.
	assert.ErrorIs(t, repo.ResetPassword(ctx, utils.HashToken("t1"), "x"), bazaar.ErrInvalidToken)

	got, err := repo.ConfirmEmailChange(ctx, utils.HashToken("t1"))
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)

	tok2 := &models.UserToken{UserID: u.ID, Purpose: models.TokenPurposeEmailChange, TokenHash: utils.HashToken("t2"), NewEmail: "taken@example.com", ExpiresAt: TokenExpiry(1)}
	require.NoError(t, repo.CreateToken(ctx, tok2, mail))
	_, err = repo.ConfirmEmailChange(ctx, utils.HashToken("t2"))
	assert.ErrorIs(t, err, bazaar.ErrEmailAlreadyRegistered)
}

func TestRepository_TOTPToggle(t *testing.T) {
	repo := NewRepository(dbtest.New(t))
	ctx := context.Background()

	u, err := repo.Create(ctx, "anna@example.com", "pw", "Anna", bazaar.UserRoleSeller)
	require.NoError(t, err)
	require.NoError(t, repo.SetTOTPSecret(ctx, u.ID, "SECRET"))
	require.NoError(t, repo.SetTOTPEnabled(ctx, u.ID, true))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.TOTPEnabled)
	assert.Equal(t, "SECRET", got.TOTPSecret)

	require.NoError(t, repo.SetTOTPEnabled(ctx, u.ID, false))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.TOTPEnabled)
	assert.Empty(t, got.TOTPSecret)
}
