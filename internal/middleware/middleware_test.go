package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kinderbasar/backend/internal/auth"
	"github.com/kinderbasar/backend/internal/bazaar"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(jwtSvc *auth.JWTService, roles ...bazaar.UserRole) *gin.Engine {
	r := gin.New()
	r.GET("/secret", JWT(jwtSvc), RequireRole(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c).String())
	})
	return r
}

func TestJWT_MissingHeader(t *testing.T) {
	r := newRouter(auth.NewJWTService("s", 1, "test"), bazaar.UserRoleAdmin)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secret", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWT_RoleAllowed(t *testing.T) {
	svc := auth.NewJWTService("s", 1, "test")
	id := uuid.New()
	token, err := svc.Generate(id, "a@example.com", bazaar.UserRoleManager)
	require.NoError(t, err)

	r := newRouter(svc, bazaar.UserRoleAdmin, bazaar.UserRoleManager)
	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), w.Body.String())
}

func TestJWT_RoleForbidden(t *testing.T) {
	svc := auth.NewJWTService("s", 1, "test")
	token, err := svc.Generate(uuid.New(), "a@example.com", bazaar.UserRoleSeller)
	require.NoError(t, err)

	r := newRouter(svc, bazaar.UserRoleAdmin)
	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"forbidden"`)
}

func TestLogger_AddsCallerForAuthenticatedRequests(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := auth.NewJWTService("s", 1, "test")
	id := uuid.New()
	token, err := svc.Generate(id, "kasse@example.com", bazaar.UserRoleBilling)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/public", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/billings/:id", JWT(svc), func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/public", nil))
	req := httptest.NewRequest(http.MethodGet, "/billings/42", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 2)

	public := entries[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.NotContains(t, public, "user_id")
	assert.NotContains(t, public, "route")

	authed := entries[1].ContextMap()
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "request", entries[1].Message)
	assert.Equal(t, id.String(), authed["user_id"])
	assert.Equal(t, string(bazaar.UserRoleBilling), authed["role"])
	assert.Equal(t, "/billings/:id", authed["route"])
	assert.EqualValues(t, http.StatusNotFound, authed["status"])
}

func TestLogger_ServerErrorsLogAtErrorLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestCORS_UnknownOriginGetsNoHeaders(t *testing.T) {
	r := gin.New()
	r.Use(CORS("http://localhost:3000"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS("http://localhost:3000"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
	assert.Equal(t, "Content-Disposition", w.Header().Get("Access-Control-Expose-Headers"))
}
