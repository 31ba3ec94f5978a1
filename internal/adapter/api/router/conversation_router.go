package router

import (
	"github.com/labstack/echo/v4"

	"classipost/internal/adapter/api/handler"
	"classipost/internal/adapter/api/middleware"
)

func SetupConversationRouter(e *echo.Echo, conversationHandler *handler.ConversationHandler, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	conversations := e.Group("/v1/conversations")
	conversations.Use(authMiddleware.Authenticate)

	conversations.POST("", conversationHandler.Start)
	conversations.GET("", conversationHandler.List)
	conversations.GET("/unread-count", conversationHandler.UnreadCount)
	conversations.GET("/stats", conversationHandler.Stats)
	conversations.GET("/:id", conversationHandler.Get)
	conversations.POST("/:id/archive", conversationHandler.Archive)
	conversations.POST("/:id/unarchive", conversationHandler.Unarchive)
	conversations.POST("/:id/block", conversationHandler.Block)
	conversations.POST("/:id/unblock", conversationHandler.Unblock)

	conversations.POST("/:id/messages", messageHandler.Send)
	conversations.POST("/:id/messages/read-all", messageHandler.MarkAllRead)
	conversations.POST("/:id/messages/:messageId/read", messageHandler.MarkRead)
	conversations.POST("/:id/messages/:messageId/flag", messageHandler.Flag)
}
