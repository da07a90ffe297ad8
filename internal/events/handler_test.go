package events

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinderbasar/backend/internal/middleware"
	"github.com/kinderbasar/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

func newTestRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, uuid.New())
		c.Next()
	})
	r.POST("/events", h.Create)
	r.GET("/events/:id/phase", h.Phase)
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, body any) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var out response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w, out
}

func TestCreate_RejectsInvalidDateRange(t *testing.T) {
	h := NewHandler(nil, nil)
	r := newTestRouter(h)

	tests := []struct {
		name   string
		mutate func(*EventRequest)
		detail string
	}{
		{"register end before start", func(req *EventRequest) { req.RegisterEndsAt = req.RegisterStartsAt.Add(-1) }, "register_ends_at"},
		{"edit end after bazaar start", func(req *EventRequest) { req.EditArticlesEndsAt = req.StartsAt.AddDate(0, 0, 1) }, "starts_at"},
		{"pickup end before pickup start", func(req *EventRequest) { req.PickupLabelsEndsAt = req.PickupLabelsStartsAt }, "pickup_labels_ends_at"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := requestFor(validEvent())
			tc.mutate(&req)
			w, body := postJSON(t, r, "/events", req)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.False(t, body.Success)
			assert.Equal(t, "invalid_date_range", body.Code)
			assert.Contains(t, body.Error, tc.detail)
		})
	}
}

func TestCreate_MissingFieldsIsBadRequest(t *testing.T) {
	r := newTestRouter(NewHandler(nil, nil))
	w, body := postJSON(t, r, "/events", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, body.Success)
}

func TestPhase_InvalidID(t *testing.T) {
	r := newTestRouter(NewHandler(nil, nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/nope/phase", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
