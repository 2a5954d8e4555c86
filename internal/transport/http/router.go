// Package handlers wires the REST surface: route groups, auth middleware
// and the JSON translation in front of the services.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/config"
	"github.com/kindling-app/kindling/internal/service/account"
	"github.com/kindling-app/kindling/internal/service/credits"
	"github.com/kindling-app/kindling/internal/service/like"
	"github.com/kindling-app/kindling/internal/service/match"
	"github.com/kindling-app/kindling/internal/service/message"
)

// Services groups everything the router exposes.
type Services struct {
	Accounts *account.Service
	Credits  *credits.Service
	Likes    *like.Service
	Matches  *match.Service
	Messages *message.Service
}

// NewRouter builds the gin engine with all route groups mounted.
func NewRouter(cfg *config.Config, appCtx *app.AppContext, svc Services) *gin.Engine {
	if cfg.App.ENV == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		if err := appCtx.RedisCache.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authH := NewAuthHandler(svc.Accounts)
	profileH := NewProfileHandler(svc.Accounts)
	searchH := NewSearchHandler(svc.Matches)
	likeH := NewLikeHandler(svc.Likes)
	messageH := NewMessageHandler(svc.Messages)
	walletH := NewWalletHandler(svc.Credits, svc.Accounts)
	adminH := NewAdminHandler(svc.Accounts, svc.Credits)

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", authH.Signup)
			authGroup.POST("/login", authH.Login)
			authGroup.POST("/otp/request", authH.RequestOTP)
			authGroup.POST("/otp/verify", RequireAuth(cfg, appCtx), authH.VerifyOTP)
		}

		authed := v1.Group("")
		authed.Use(RequireAuth(cfg, appCtx))
		{
			authed.GET("/profile", profileH.Get)
			authed.PUT("/profile", profileH.Complete)
			authed.PUT("/privacy", profileH.SetIncognito)
			authed.POST("/boost", profileH.Boost)

			authed.POST("/search", searchH.Search)
			authed.POST("/search/offgrid-refresh", searchH.OffGridRefresh)

			authed.POST("/likes", likeH.Like)
			authed.POST("/likes/compliment", likeH.Compliment)
			authed.GET("/likes/admirers", likeH.Admirers)
			authed.GET("/likes/admirers/count", likeH.AdmirerCount)

			authed.GET("/matches", likeH.Matches)
			authed.DELETE("/matches/:id", likeH.Unmatch)
			authed.POST("/matches/:id/messages", messageH.Send)
			authed.GET("/matches/:id/messages", messageH.List)

			authed.POST("/blocks", likeH.Block)

			authed.GET("/wallet", walletH.Balance)
			authed.GET("/wallet/history", walletH.History)
			authed.POST("/wallet/purchase", walletH.Purchase)
		}

		admin := v1.Group("/admin")
		admin.Use(RequireAuth(cfg, appCtx), RequireAdmin())
		{
			admin.POST("/users/:id/ban", adminH.Ban)
			admin.POST("/users/:id/unban", adminH.Unban)
			admin.POST("/users/:id/credits", adminH.GrantCredits)
		}
	}

	return router
}
