package router

import (
	"github.com/labstack/echo/v4"

	"hitrank/internal/adapter/api/handler"
	"hitrank/internal/adapter/api/middleware"
)

// SetupWebSocketRouter sets up the notification stream. Browsers cannot set
// headers on the upgrade request, so the token comes from the query string.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler, authMiddleware *middleware.AuthMiddleware) {
	e.GET("/v1/ws", wsHandler.HandleWebSocket, authMiddleware.AuthenticateQuery)
}
