package middleware

import (
	"github.com/gin-gonic/gin"

	"medibook/models"
)

// SessionUserFromContext returns the session user placed on the request by
// PatientAuthMiddleware.
func SessionUserFromContext(c *gin.Context) (models.SessionUser, bool) {
	v, ok := c.Get(sessionUserKey)
	if !ok {
		return models.SessionUser{}, false
	}
	user, ok := v.(models.SessionUser)
	return user, ok
}
