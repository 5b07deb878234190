package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerflow/txncore/pkg/authtoken"
	"github.com/ledgerflow/txncore/pkg/logger"
)

// Authenticate validates the bearer token (C1) and stores the
// resulting claims on the gin context for handlers and downstream
// middleware (RequireRole) to read. Replaces the teacher's pkg/auth-
// based Authentication with the HMAC compact-token validator built
// for this service boundary.
func Authenticate(validator *authtoken.Validator, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":      "authorization header required",
				"request_id": c.GetString("request_id"),
			})
			c.Abort()
			return
		}

		claims, err := validator.Validate(authHeader)
		if err != nil {
			log.Warn("token validation failed", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":      "invalid or expired token",
				"request_id": c.GetString("request_id"),
			})
			c.Abort()
			return
		}

		c.Set("subject", claims.Subject)
		c.Set("roles", claims.Roles)
		c.Set("bearer", authHeader)
		c.Next()
	}
}

// RequireRole rejects any caller whose token claims don't carry role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rolesVal, _ := c.Get("roles")
		roles, _ := rolesVal.([]string)

		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":      "role not permitted for this operation",
			"request_id": c.GetString("request_id"),
		})
		c.Abort()
	}
}
