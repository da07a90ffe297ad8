package plannings

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

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/middleware"
	"github.com/kinderbasar/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(h *Handler, role bazaar.UserRole) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, uuid.New())
		c.Set(middleware.ContextUserRole, role)
		c.Next()
	})
	r.POST("/events/:id/plannings", h.Create)
	r.POST("/plannings/:id/helpers", h.Assign)
	return r
}

func post(t *testing.T, r http.Handler, path string, body any) (*httptest.ResponseRecorder, response.Body) {
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

func TestCreate_Validation(t *testing.T) {
	r := newTestRouter(NewHandler(nil, nil), bazaar.UserRoleManager)
	valid := PlanningRequest{Name: "Aufbau", Date: "2026-03-13", FromTime: "16:00", ToTime: "19:00", MaxHelpers: 4}
	path := "/events/" + uuid.NewString() + "/plannings"

	w, _ := post(t, r, "/events/nope/plannings", valid)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bad := valid
	bad.FromTime = "25:00"
	w, _ = post(t, r, path, bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bad = valid
	bad.MaxHelpers = 0
	w, _ = post(t, r, path, bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	reversed := valid
	reversed.FromTime, reversed.ToTime = "19:00", "16:00"
	w, body := post(t, r, path, reversed)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, bazaar.ErrInvalidDateRange.Code, body.Code)
}

func TestAssign_SellersCannotAssignOthers(t *testing.T) {
	r := newTestRouter(NewHandler(nil, nil), bazaar.UserRoleSeller)
	path := "/plannings/" + uuid.NewString() + "/helpers"

	w, body := post(t, r, path, AssignRequest{PersonName: "Oma Erna"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, bazaar.ErrForbidden.Code, body.Code)

	other := uuid.New()
	w, _ = post(t, r, path, AssignRequest{UserID: &other})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
