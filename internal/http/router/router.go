package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elitemarket/auction-backend/internal/config"
	"github.com/elitemarket/auction-backend/internal/http/handlers"
	"github.com/elitemarket/auction-backend/internal/http/middleware"
	"github.com/elitemarket/auction-backend/internal/service"
)

// SetupRouter собирает все маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	auctionHandler *handlers.AuctionHandler,
	chatHandler *handlers.ChatHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	seedHandler *handlers.SeedHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	if seedHandler != nil && cfg.Env == "development" {
		api.POST("/dev/seed", seedHandler.Seed)
	}

	// Аутентификация и восстановление пароля с жёстким rate limit.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/recover/question", authHandler.SecurityQuestion)
		authGroup.POST("/recover", authHandler.Recover)
		authGroup.POST("/recover/reset", authHandler.ResetPassword)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.GET("/sessions", authHandler.ListSessions)
		protectedAuth.DELETE("/sessions/:id", middleware.UUIDValidator("id"), authHandler.DeleteSession)
		protectedAuth.POST("/sessions/revoke-others", authHandler.DeleteOtherSessions)
	}

	// Публичные маршруты.
	api.GET("/auctions", auctionHandler.List)
	api.GET("/auctions/:id", middleware.UUIDValidator("id"), auctionHandler.Get)
	api.GET("/auctions/:id/bids", middleware.UUIDValidator("id"), auctionHandler.ListBids)
	api.GET("/auctions/:id/review", middleware.UUIDValidator("id"), auctionHandler.GetReview)
	api.GET("/profiles/:id", middleware.UUIDValidator("id"), profileHandler.GetUserProfile)
	api.GET("/providers", profileHandler.SearchProviders)
	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты.
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profiles/me", profileHandler.GetMe)
		protected.PUT("/profiles/me", profileHandler.UpdateMe)
		protected.POST("/profiles/me/photo", profileHandler.UploadPhoto)

		protected.POST("/auctions", auctionHandler.Create)
		protected.GET("/auctions/my", auctionHandler.My)
		protected.GET("/auctions/assignments", auctionHandler.Assignments)
		protected.POST("/auctions/:id/bids", middleware.UUIDValidator("id"), auctionHandler.SubmitBid)
		protected.POST("/auctions/:id/bids/:bidId/accept", middleware.UUIDValidator("id"), middleware.UUIDValidator("bidId"), auctionHandler.AcceptBid)
		protected.POST("/auctions/:id/deliver", middleware.UUIDValidator("id"), auctionHandler.MarkDelivered)
		protected.POST("/auctions/:id/review", middleware.UUIDValidator("id"), auctionHandler.SubmitReview)

		protected.GET("/auctions/:id/messages", middleware.UUIDValidator("id"), chatHandler.List)
		protected.POST("/auctions/:id/messages", middleware.UUIDValidator("id"), chatHandler.Send)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.CountUnread)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.DELETE("/notifications/:id", middleware.UUIDValidator("id"), notificationHandler.Delete)
	}

	return r
}
