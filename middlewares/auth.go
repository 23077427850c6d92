// file: middlewares/auth.go
package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lqSky7/pwncore/utils"
)

// JWTAuthMiddleware rejects requests without a valid bearer token and puts
// the user id on the context for the handlers.
func JWTAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			utils.Fail(c, http.StatusUnauthorized, utils.MsgUserNotFound)
			c.Abort()
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			utils.Fail(c, http.StatusUnauthorized, utils.MsgUserNotFound)
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(secret, parts[1])
		if err != nil {
			utils.Fail(c, http.StatusUnauthorized, utils.MsgUserNotFound)
			c.Abort()
			return
		}
		c.Set("user_id", claims.UserID)
		c.Next()
	}
}
