package handler

import (
	"github.com/labstack/echo/v4"

	"classipost/internal/usecase"
	"classipost/pkg/response"
	"classipost/pkg/utils"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

func (h *NotificationHandler) List(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c, 20)

	input := usecase.ListNotificationsInput{
		Type:   c.QueryParam("type"),
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	switch c.QueryParam("is_read") {
	case "true":
		isRead := true
		input.IsRead = &isRead
	case "false":
		isRead := false
		input.IsRead = &isRead
	}

	notifications, total, err := h.notificationUseCase.List(c.Request().Context(), userID, input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, notifications, total, params.Limit, params.Offset)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID := c.Get("uid").(string)

	notification, err := h.notificationUseCase.MarkRead(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, notification)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID := c.Get("uid").(string)

	count, err := h.notificationUseCase.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int64{"marked_read": count})
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	userID := c.Get("uid").(string)

	count, err := h.notificationUseCase.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int64{"unread_count": count})
}

// ClearRead deletes the caller's read notifications; unread ones survive.
func (h *NotificationHandler) ClearRead(c echo.Context) error {
	userID := c.Get("uid").(string)

	count, err := h.notificationUseCase.ClearRead(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int64{"deleted": count})
}
