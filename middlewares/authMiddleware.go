package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tradedesk/portal_backend/utils"
)

type authString string

// AuthMiddleware accepts a Bearer JWT as an alternative to the session token.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Next()
			return
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		validate, err := utils.JwtValidate(strings.TrimSpace(auth[len(bearer):]))
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		customClaim, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok || customClaim.ID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), authString("auth"), customClaim)
		if _, ok := utils.GetUserIdFromContext(ctx); !ok {
			ctx = utils.SetUserIdInContext(ctx, customClaim.ID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
