package router

import (
	"github.com/labstack/echo/v4"

	"classipost/internal/adapter/api/handler"
	"classipost/internal/adapter/api/middleware"
)

func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	messages := e.Group("/v1/messages")
	messages.Use(authMiddleware.Authenticate)

	// Cross-conversation listing with conversation_id/type/unread filters.
	messages.GET("", messageHandler.List)
}
