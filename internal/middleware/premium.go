package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequirePremium must run after VerifyToken. Free users get 402.
func RequirePremium() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "User not found in context"})
			return
		}
		if !user.IsPremium {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, ErrorResponse{
				Error:   "Premium subscription required",
				Details: "Upgrade via /api/v1/billing to use AI generation",
			})
			return
		}
		c.Next()
	}
}
