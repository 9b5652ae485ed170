package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parkview-commons/rental-booking-backend/internal/auth"
	"github.com/parkview-commons/rental-booking-backend/internal/user"
)

// RequireTeam ensures the authenticated user carries rental-team privileges.
// It MUST be used after auth.AuthRequired middleware.
func RequireTeam(userService user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.GetUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		role, err := userService.RoleOf(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		if !role.TeamCapable() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: rental team access required"})
			return
		}

		c.Next()
	}
}
