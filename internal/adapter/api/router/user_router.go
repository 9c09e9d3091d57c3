package router

import (
	"github.com/labstack/echo/v4"

	"hitrank/internal/adapter/api/handler"
	"hitrank/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimit *middleware.RateLimitMiddleware) {
	profileHandler := handler.GetProfileHandler()
	interactionHandler := handler.GetInteractionHandler()

	users := e.Group("/v1/users")
	users.Use(authMiddleware.Authenticate)

	users.POST("/me", profileHandler.EnsureProfile)
	users.GET("/me/notifications", profileHandler.ListNotifications)
	users.GET("/me/favorites", interactionHandler.ListFavorites)
	users.GET("/:userId/reputation", profileHandler.GetReputation)
}
