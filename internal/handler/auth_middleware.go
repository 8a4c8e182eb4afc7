package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eventflow/internal/auth"
)

const (
	ctxUserID   = "userID"
	ctxUserName = "userName"
)

// RequireAuth verifies the Bearer token with the same verifier the socket
// side uses and stores the caller identity on the request context.
func RequireAuth(verifier auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		identity, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or missing token",
			})
			return
		}
		c.Set(ctxUserID, identity.UserID)
		c.Set(ctxUserName, identity.Name)
		c.Next()
	}
}

func callerID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
