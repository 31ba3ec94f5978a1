package router

import (
	"github.com/labstack/echo/v4"

	"classipost/internal/adapter/api/handler"
	"classipost/internal/adapter/api/middleware"
)

type Handlers struct {
	Conversation *handler.ConversationHandler
	Message      *handler.MessageHandler
	Notification *handler.NotificationHandler
	Admin        *handler.AdminHandler
	WebSocket    *handler.WebSocketHandler
	Health       *handler.HealthHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	SetupHealthRouter(e, h.Health)
	SetupConversationRouter(e, h.Conversation, h.Message, authMiddleware)
	SetupMessageRouter(e, h.Message, authMiddleware)
	SetupNotificationRouter(e, h.Notification, authMiddleware)
	SetupAdminRouter(e, h.Admin, authMiddleware, adminMiddleware)
	SetupWebSocketRouter(e, h.WebSocket, authMiddleware)
}
