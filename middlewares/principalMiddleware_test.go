package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradedesk/portal_backend/middlewares"
	"github.com/tradedesk/portal_backend/models"
	"github.com/tradedesk/portal_backend/utils"
)

type seen struct {
	userId  string
	role    string
	company string
	pinned  any
	hit     bool
}

func strPtr(s string) *string { return &s }

func withUserId(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(utils.SetUserIdInContext(c.Request.Context(), id))
		c.Next()
	}
}

func principalRouter(load middlewares.UserLoader, out *seen, before ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(before...)
	r.Use(middlewares.PrincipalMiddleware(load))
	r.GET("/", func(c *gin.Context) {
		ctx := c.Request.Context()
		out.hit = true
		out.userId, _ = utils.GetUserIdFromContext(ctx)
		out.role, _ = utils.GetUserRoleFromContext(ctx)
		out.company, _ = utils.GetCompanyIdFromContext(ctx)
		out.pinned = ctx.Value(utils.ContextKeyPinnedCompanyId)
		c.Status(http.StatusOK)
	})
	return r
}

func serve(r http.Handler, header ...string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	r.ServeHTTP(w, req)
	return w
}

func loaderFor(users ...models.User) middlewares.UserLoader {
	return func(_ context.Context, id string) (*models.User, error) {
		for i := range users {
			if users[i].ID == id {
				return &users[i], nil
			}
		}
		return nil, models.ErrUserNotFound
	}
}

func TestPrincipalMiddlewarePinsCompanyAdmins(t *testing.T) {
	var out seen
	load := loaderFor(models.User{ID: "u-1", Role: models.UserRoleAccountAdmin, CompanyId: strPtr("co-a"), IsActive: true})

	w := serve(principalRouter(load, &out, withUserId("u-1")))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.UserRoleAccountAdmin), out.role)
	assert.Equal(t, "co-a", out.company)
	assert.Equal(t, "co-a", out.pinned)
}

func TestPrincipalMiddlewarePinsCompanylessAdminToNothing(t *testing.T) {
	var out seen
	load := loaderFor(models.User{ID: "u-1", Role: models.UserRoleAccountAdmin, IsActive: true})

	w := serve(principalRouter(load, &out, withUserId("u-1")))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, out.company)
	assert.Equal(t, "", out.pinned)
}

func TestPrincipalMiddlewareLeavesCrossCompanyRolesUnpinned(t *testing.T) {
	for _, role := range []models.UserRole{models.UserRoleSuperAdmin, models.UserRoleOperation} {
		var out seen
		load := loaderFor(models.User{ID: "u-1", Role: role, CompanyId: strPtr("co-a"), IsActive: true})

		w := serve(principalRouter(load, &out, withUserId("u-1")))

		require.Equal(t, http.StatusOK, w.Code, role)
		assert.Equal(t, string(role), out.role)
		assert.Nil(t, out.pinned, role)
	}
}

func TestPrincipalMiddlewareRejectsUnknownOrInactiveUsers(t *testing.T) {
	load := loaderFor(models.User{ID: "u-off", Role: models.UserRoleSuperAdmin, IsActive: false})

	for _, id := range []string{"u-off", "u-missing"} {
		var out seen
		w := serve(principalRouter(load, &out, withUserId(id)))

		assert.Equal(t, http.StatusUnauthorized, w.Code, id)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
		assert.False(t, out.hit)
	}
}

func TestPrincipalMiddlewareLoaderFailure(t *testing.T) {
	var out seen
	load := func(context.Context, string) (*models.User, error) { return nil, errors.New("db down") }

	w := serve(principalRouter(load, &out, withUserId("u-1")))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, out.hit)
}

func TestPrincipalMiddlewareAnonymousPassThrough(t *testing.T) {
	var out seen
	called := false
	load := func(context.Context, string) (*models.User, error) {
		called = true
		return nil, nil
	}

	w := serve(principalRouter(load, &out))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, out.hit)
	assert.False(t, called)
	assert.Empty(t, out.role)
}

func TestAuthMiddlewareBearerToken(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	token, err := utils.JwtGenerate("u-1", string(models.UserRoleOperation))
	require.NoError(t, err)

	var out seen
	load := loaderFor(models.User{ID: "u-1", Role: models.UserRoleOperation, IsActive: true})
	r := principalRouter(load, &out, middlewares.AuthMiddleware())

	w := serve(r, "Authorization", "Bearer "+token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", out.userId)
	assert.Equal(t, string(models.UserRoleOperation), out.role)
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	var out seen
	r := principalRouter(loaderFor(), &out, middlewares.AuthMiddleware())

	for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer not-a-jwt"} {
		w := serve(r, "Authorization", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
	assert.False(t, out.hit)
}

func TestSessionMiddlewareWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares.SessionMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r).Code)
	// an unresolvable session token is rejected
	assert.Equal(t, http.StatusUnauthorized, serve(r, "token", "abc").Code)
}
