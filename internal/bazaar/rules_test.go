package bazaar

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesByCode(t *testing.T) {
	detailed := ErrInvalidDateRange.WithDetail("starts_at")
	wrapped := fmt.Errorf("create event: %w", detailed)

	assert.ErrorIs(t, wrapped, ErrInvalidDateRange)
	assert.NotErrorIs(t, wrapped, ErrInvalidPrice)

	e, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindInvalid, e.Kind)
	assert.Contains(t, e.Message, "starts_at")
}

func TestSellerRoles(t *testing.T) {
	r, err := ParseSellerRole("")
	require.NoError(t, err)
	assert.Equal(t, SellerRoleStandard, r)
	assert.Equal(t, 24, r.MaxArticles())
	assert.False(t, r.CanCreateBillings())

	r, err = ParseSellerRole("orga")
	require.NoError(t, err)
	assert.Equal(t, 60, r.MaxArticles())
	assert.True(t, r.CanCreateBillings())

	_, err = ParseSellerRole("king")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestValidatePrice(t *testing.T) {
	assert.NoError(t, ValidatePrice(50))
	assert.NoError(t, ValidatePrice(1250))
	assert.ErrorIs(t, ValidatePrice(0), ErrInvalidPrice)
	assert.ErrorIs(t, ValidatePrice(-100), ErrInvalidPrice)
	assert.ErrorIs(t, ValidatePrice(120), ErrInvalidPrice)
}

func TestSettle(t *testing.T) {
	s := Settle(3, 1050, 10)
	assert.Equal(t, int64(105), s.CommissionCents)
	assert.Equal(t, int64(945), s.PayoutCents)

	// 15% of 350 = 52.5 cents, rounds half up
	s = Settle(1, 350, 15)
	assert.Equal(t, int64(53), s.CommissionCents)
	assert.Equal(t, int64(297), s.PayoutCents)

	s = Settle(0, 0, 20)
	assert.Equal(t, Settlement{}, s)
}

func TestCheckBookable(t *testing.T) {
	assert.NoError(t, CheckBookable(BillingInProgress, ArticleCreated, false))
	assert.ErrorIs(t, CheckBookable(BillingInProgress, ArticleCreated, true), ErrArticleAlreadyBooked)
	assert.ErrorIs(t, CheckBookable(BillingInProgress, ArticleBooked, false), ErrArticleAlreadyBooked)
	assert.ErrorIs(t, CheckBookable(BillingInProgress, ArticleSold, false), ErrArticleAlreadyBooked)
	assert.ErrorIs(t, CheckBookable(BillingCompleted, ArticleCreated, false), ErrBillingCompleted)
	assert.ErrorIs(t, CheckBookable(BillingCancelled, ArticleCreated, false), ErrBillingCancelled)
}

func TestCheckArticleEditable(t *testing.T) {
	assert.NoError(t, CheckArticleEditable(ArticleCreated))
	assert.ErrorIs(t, CheckArticleEditable(ArticleBooked), ErrArticleNotEditable)
}

func TestFormatEuro(t *testing.T) {
	assert.Equal(t, "12,50 €", FormatEuro(1250))
	assert.Equal(t, "0,50 €", FormatEuro(50))
	assert.Equal(t, "-3,00 €", FormatEuro(-300))
}
