package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/auth"
	"github.com/kindling-app/kindling/internal/config"
	"github.com/kindling-app/kindling/internal/repository"
)

const ctxUserID = "userID"

// RequireAuth validates the bearer token, rejects banned accounts and
// stores the caller's user id in the request context.
func RequireAuth(cfg *config.Config, appCtx *app.AppContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		userID, err := auth.Parse(cfg.Auth.JWTSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		user, err := repository.NewUserRepository(appCtx.DB).FindByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown account"})
			return
		}
		if user.IsBanned {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is banned"})
			return
		}
		c.Set(ctxUserID, user.ID)
		c.Set("isAdmin", user.IsAdmin)
		c.Next()
	}
}

// RequireAdmin gates moderation routes. Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("isAdmin") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

// currentUserID reads the id RequireAuth stored.
func currentUserID(c *gin.Context) uint64 {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(uint64); ok {
			return id
		}
	}
	return 0
}
