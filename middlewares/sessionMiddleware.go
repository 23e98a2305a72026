package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradedesk/portal_backend/config"
	"github.com/tradedesk/portal_backend/utils"
)

// SessionMiddleware resolves the opaque `token` header issued by the login
// service. Redis holds Token:<token> -> user id.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		userId, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists || userId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUserIdInContext(ctx, userId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
