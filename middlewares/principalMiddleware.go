package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradedesk/portal_backend/config"
	"github.com/tradedesk/portal_backend/models"
	"github.com/tradedesk/portal_backend/utils"
)

// UserLoader fetches the signed-in user by id.
type UserLoader func(ctx context.Context, id string) (*models.User, error)

// CachedUserLoader reads User:<id> from redis and falls back to the database,
// filling the cache for config.SessionLifespan().
func CachedUserLoader() UserLoader {
	return func(ctx context.Context, id string) (*models.User, error) {
		var user models.User
		found, err := config.GetRedisObject("User:"+id, &user)
		if err == nil && found {
			return &user, nil
		}

		u, err := models.GetUser(utils.SetSkipCompanyScopeInContext(ctx, true), config.GetDB(), id)
		if err != nil {
			return nil, err
		}
		if err := config.SetRedisObject(u.CacheKey(), u, config.SessionLifespan()); err != nil {
			config.LogError(config.GetLogger(), "PrincipalMiddleware", "CachedUserLoader", "cache user", id, err)
		}
		return u, nil
	}
}

// PrincipalMiddleware turns the user id left by the session or JWT middleware
// into the full caller identity. Callers limited to one company get that company
// pinned on the context so the database guard applies it to every query.
// Requests without a user id pass through untouched.
func PrincipalMiddleware(load UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userId, ok := utils.GetUserIdFromContext(ctx)
		if !ok || userId == "" {
			c.Next()
			return
		}

		user, err := load(ctx, userId)
		if err != nil {
			if !errors.Is(err, models.ErrUserNotFound) {
				config.LogError(config.GetLogger(), "PrincipalMiddleware", "load", "load user", userId, err)
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		if !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		ctx = utils.SetUserNameInContext(ctx, user.Name)
		ctx = utils.SetUserEmailInContext(ctx, user.Email)
		ctx = utils.SetUserRoleInContext(ctx, string(user.Role))
		if user.CompanyId != nil {
			ctx = utils.SetCompanyIdInContext(ctx, *user.CompanyId)
		}
		if !models.CapabilitiesFor(user.Role).CrossCompany {
			ctx = utils.SetPinnedCompanyIdInContext(ctx, utils.DereferencePtr(user.CompanyId, ""))
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
