package middlewares

import (
	"net/http"

	"github.com/AnubisArt/PVA-Model-Banky/internal/authz"
	"github.com/gin-gonic/gin"
)

// RequireCommand consults the authorization gate before dispatch. A
// principal outside the command's tier never reaches the handler.
func RequireCommand(gate *authz.Gate, command string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing identity context",
				},
			})
			return
		}

		if !gate.Allowed(role, command) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "unauthorized_command",
					"message": "Role " + string(role) + " may not invoke " + command,
				},
			})
			return
		}
		c.Next()
	}
}
