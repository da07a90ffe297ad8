package articles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/pkg/database/dbtest"
)

func TestCreate_SequentialLabelsAndQuota(t *testing.T) {
	pool := dbtest.New(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	eventID := dbtest.Event(t, pool, dbtest.EventOpts{})
	sellerID := dbtest.Seller(t, pool, eventID, 7, nil)
	_, err := pool.Exec(ctx, `UPDATE sellers SET max_article_count = 2 WHERE id = $1`, sellerID)
	require.NoError(t, err)

	a1, err := repo.Create(ctx, sellerID, Input{Name: " Hose ", Size: "98", PriceCents: 350}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, a1.LabelNumber)
	assert.Equal(t, 7, a1.SellerNumber)
	assert.Equal(t, "Hose", a1.Name)
	assert.Equal(t, bazaar.ArticleCreated, a1.Status)

	a2, err := repo.Create(ctx, sellerID, Input{Name: "Jacke", PriceCents: 1000}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, a2.LabelNumber)

	_, err = repo.Create(ctx, sellerID, Input{Name: "Mütze", PriceCents: 200}, time.Now())
	assert.ErrorIs(t, err, bazaar.ErrArticleLimitExceeded)

	found, err := repo.FindByLabel(ctx, eventID, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, a2.ID, found.ID)

	_, err = repo.FindByLabel(ctx, eventID, 7, 9)
	assert.ErrorIs(t, err, bazaar.ErrArticleNotFound)
}

func TestCreate_Validation(t *testing.T) {
	pool := dbtest.New(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	eventID := dbtest.Event(t, pool, dbtest.EventOpts{})
	sellerID := dbtest.Seller(t, pool, eventID, 1, nil)

	_, err := repo.Create(ctx, sellerID, Input{Name: "Hose", PriceCents: 120}, time.Now())
	assert.ErrorIs(t, err, bazaar.ErrInvalidPrice)

	_, err = repo.Create(ctx, sellerID, Input{Name: "  ", PriceCents: 100}, time.Now())
	assert.ErrorIs(t, err, bazaar.ErrInvalidInput)

	_, err = repo.Create(ctx, sellerID, Input{Name: "Hose", PriceCents: 100}, time.Now().Add(150*time.Minute))
	assert.ErrorIs(t, err, bazaar.ErrEditArticlesClosed)

	_, err = repo.Create(ctx, sellerID, Input{Name: "Hose", PriceCents: 100}, time.Now().Add(24*time.Hour))
	assert.ErrorIs(t, err, bazaar.ErrEventExpired)
}

func TestUpdateDelete_OnlyWhileCreated(t *testing.T) {
	pool := dbtest.New(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	eventID := dbtest.Event(t, pool, dbtest.EventOpts{})
	sellerID := dbtest.Seller(t, pool, eventID, 1, nil)

	a, err := repo.Create(ctx, sellerID, Input{Name: "Hose", PriceCents: 350}, time.Now())
	require.NoError(t, err)

	updated, err := repo.Update(ctx, a.ID, Input{Name: "Hose blau", Size: "104", PriceCents: 400}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Hose blau", updated.Name)
	assert.Equal(t, int64(400), updated.PriceCents)

	_, err = pool.Exec(ctx, `UPDATE articles SET status = 'booked' WHERE id = $1`, a.ID)
	require.NoError(t, err)
	_, err = repo.Update(ctx, a.ID, Input{Name: "x", PriceCents: 100}, time.Now())
	assert.ErrorIs(t, err, bazaar.ErrArticleNotEditable)
	assert.ErrorIs(t, repo.Delete(ctx, a.ID, time.Now()), bazaar.ErrArticleNotEditable)

	_, err = pool.Exec(ctx, `UPDATE articles SET status = 'created' WHERE id = $1`, a.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, a.ID, time.Now()))
	_, err = repo.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, bazaar.ErrArticleNotFound)
}
