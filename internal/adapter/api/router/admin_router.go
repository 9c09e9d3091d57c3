package router

import (
	"github.com/labstack/echo/v4"

	"hitrank/internal/adapter/api/handler"
	"hitrank/internal/adapter/api/middleware"
)

func SetupAdminRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	challengeHandler := handler.GetChallengeHandler()

	admin := e.Group("/v1/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.GET("/challenges", challengeHandler.ListChallenges)

	challenge := admin.Group("/pins/:pinId/challenges/:challengeId")
	challenge.POST("/approve", challengeHandler.ApproveChallenge)
	challenge.POST("/reject", challengeHandler.RejectChallenge)
	challenge.POST("/finalize", challengeHandler.FinalizeChallenge)
	challenge.POST("/cancel", challengeHandler.CancelChallenge)
}
