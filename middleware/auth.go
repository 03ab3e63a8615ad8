package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medibook/utils"
)

const sessionUserKey = "sessionUser"

// PatientAuthMiddleware validates the bearer session token and admits only
// users holding the patient role. The decoded session user snapshot is placed
// on the request context for handlers to inject into the wizard.
func PatientAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		user, err := utils.SessionUserFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		if !user.IsPatient() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Only patients can book appointments"})
			return
		}

		c.Set(sessionUserKey, *user)
		c.Next()
	}
}
