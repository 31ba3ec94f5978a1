package router

import (
	"github.com/labstack/echo/v4"

	"classipost/internal/adapter/api/handler"
	"classipost/internal/adapter/api/middleware"
)

func SetupAdminRouter(e *echo.Echo, adminHandler *handler.AdminHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	admin := e.Group("/v1/admin/notifications")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.POST("/listing-status", adminHandler.NotifyListingStatus)
	admin.POST("/system", adminHandler.NotifySystem)
}
