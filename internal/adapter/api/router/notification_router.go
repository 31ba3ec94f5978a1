package router

import (
	"github.com/labstack/echo/v4"

	"classipost/internal/adapter/api/handler"
	"classipost/internal/adapter/api/middleware"
)

func SetupNotificationRouter(e *echo.Echo, notificationHandler *handler.NotificationHandler, authMiddleware *middleware.AuthMiddleware) {
	notifications := e.Group("/v1/notifications")
	notifications.Use(authMiddleware.Authenticate)

	notifications.GET("", notificationHandler.List)
	notifications.GET("/unread-count", notificationHandler.UnreadCount)
	notifications.POST("/read-all", notificationHandler.MarkAllRead)
	notifications.DELETE("/read", notificationHandler.ClearRead)
	notifications.POST("/:id/read", notificationHandler.MarkRead)
}
