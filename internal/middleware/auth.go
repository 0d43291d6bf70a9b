package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthRequired accepte une session navigateur ou un token Bearer, et pose
// user_id / is_admin dans le contexte Gin.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, isAdmin, ok := userFromSession(c)
		if !ok {
			userID, isAdmin, ok = userFromBearer(c)
		}
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("is_admin", isAdmin)
		c.Next()
	}
}

// CurrentUserID retourne l'id de l'utilisateur posé par AuthRequired
func CurrentUserID(c *gin.Context) int64 {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
