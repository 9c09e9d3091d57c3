package router

import (
	"github.com/labstack/echo/v4"

	"hitrank/internal/adapter/api/handler"
	"hitrank/internal/adapter/api/middleware"
	"hitrank/internal/infrastructure/ratelimit"
)

func SetupPinRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimit *middleware.RateLimitMiddleware) {
	pinHandler := handler.GetPinHandler()
	challengeHandler := handler.GetChallengeHandler()
	interactionHandler := handler.GetInteractionHandler()

	// Public
	e.GET("/v1/pins/:pinId", pinHandler.GetPin)

	pins := e.Group("/v1/pins")
	pins.Use(authMiddleware.Authenticate)

	pins.POST("", pinHandler.CreatePin, rateLimit.Limit(ratelimit.ActionCreatePin))
	pins.POST("/:pinId/ratings", pinHandler.SubmitRating, rateLimit.Limit(ratelimit.ActionRate))
	pins.GET("/:pinId/ratings/:ratingId", pinHandler.GetRating)
	pins.POST("/:pinId/vouch", pinHandler.ToggleVouch, rateLimit.Limit(ratelimit.ActionVouch))

	pins.GET("/:pinId/interactions", interactionHandler.GetState)
	pins.POST("/:pinId/like", interactionHandler.Like, rateLimit.Limit(ratelimit.ActionInteract))
	pins.POST("/:pinId/dislike", interactionHandler.Dislike, rateLimit.Limit(ratelimit.ActionInteract))
	pins.POST("/:pinId/favorite", interactionHandler.ToggleFavorite, rateLimit.Limit(ratelimit.ActionInteract))
	pins.POST("/:pinId/flag", interactionHandler.ToggleFlag, rateLimit.Limit(ratelimit.ActionInteract))

	pins.POST("/:pinId/challenges", challengeHandler.CreateChallenge, rateLimit.Limit(ratelimit.ActionChallenge))
	pins.GET("/:pinId/challenges/:challengeId", challengeHandler.GetChallenge)
	pins.POST("/:pinId/challenges/:challengeId/votes", challengeHandler.CastVote, rateLimit.Limit(ratelimit.ActionVote))
}
