package router

import (
	"github.com/labstack/echo/v4"

	"hitrank/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware, rateLimit *middleware.RateLimitMiddleware) {
	SetupUserRouter(e, authMiddleware, rateLimit)
	SetupPinRouter(e, authMiddleware, rateLimit)
	SetupAdminRouter(e, authMiddleware, adminMiddleware)
	SetupHealthRouter(e)
}
