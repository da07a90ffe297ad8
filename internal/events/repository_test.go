package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/pkg/database/dbtest"
)

func TestRepository_CRUD(t *testing.T) {
	repo := NewRepository(dbtest.New(t))
	ctx := context.Background()

	e := validEvent()
	require.NoError(t, repo.Create(ctx, e))
	require.NotEmpty(t, e.ID)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Frühjahrsbasar", got.Name)
	assert.True(t, got.StartsAt.Equal(e.StartsAt))

	got.MaxSellers = 80
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, again.MaxSellers)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, e.ID))
	_, err = repo.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, bazaar.ErrEventNotFound)
}

func TestRepository_CreateValidates(t *testing.T) {
	repo := NewRepository(dbtest.New(t))
	e := validEvent()
	e.EndsAt = e.StartsAt
	assert.ErrorIs(t, repo.Create(context.Background(), e), bazaar.ErrInvalidDateRange)

	e = validEvent()
	e.MaxSellers = 0
	assert.ErrorIs(t, repo.Create(context.Background(), e), bazaar.ErrInvalidInput)
}

func TestRepository_DeleteRefusedWithRegistrations(t *testing.T) {
	pool := dbtest.New(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	e := validEvent()
	require.NoError(t, repo.Create(ctx, e))
	_, err := pool.Exec(ctx, `INSERT INTO seller_registrations (event_id, name, email) VALUES ($1, 'Anna', 'anna@example.com')`, e.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, e.ID), bazaar.ErrEventHasRegistrations)

	stats, err := repo.Statistics(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Registrations)
	assert.Equal(t, 1, stats.PendingRegistrations)
	assert.Zero(t, stats.RevenueCents)
}

func TestHandler_Phase(t *testing.T) {
	repo := NewRepository(dbtest.New(t))
	e := validEvent()
	require.NoError(t, repo.Create(context.Background(), e))

	h := NewHandler(repo, nil)
	h.now = func() time.Time { return e.RegisterStartsAt.Add(time.Hour) }
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/"+e.ID.String()+"/phase", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool          `json:"success"`
		Data    PhaseResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.CanRegister)
	assert.True(t, body.Data.CanEditArticles)
	assert.False(t, body.Data.CanCreateBilling)
	assert.False(t, body.Data.IsExpired)
}
