package handler

import (
	"github.com/labstack/echo/v4"

	"classipost/internal/usecase"
	"classipost/pkg/response"
	"classipost/pkg/utils"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

type sendMessageRequest struct {
	Type     string `json:"type" validate:"omitempty,oneof=text image"`
	Content  string `json:"content" validate:"max=5000"`
	MediaURL string `json:"media_url" validate:"omitempty,url"`
}

func (h *MessageHandler) Send(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	message, err := h.messageUseCase.Send(c.Request().Context(), userID, c.Param("id"), usecase.SendMessageInput{
		Type:     req.Type,
		Content:  req.Content,
		MediaURL: req.MediaURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// List returns messages across the caller's conversations; filters by
// conversation, type and unread state come from query parameters.
func (h *MessageHandler) List(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c, 50)

	messages, total, err := h.messageUseCase.List(c.Request().Context(), userID, usecase.ListMessagesInput{
		ConversationID: c.QueryParam("conversation_id"),
		Type:           c.QueryParam("type"),
		UnreadOnly:     c.QueryParam("unread") == "true",
		Limit:          params.Limit,
		Offset:         params.Offset,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, messages, total, params.Limit, params.Offset)
}

func (h *MessageHandler) MarkRead(c echo.Context) error {
	userID := c.Get("uid").(string)

	message, err := h.messageUseCase.MarkRead(c.Request().Context(), userID, c.Param("id"), c.Param("messageId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}

func (h *MessageHandler) MarkAllRead(c echo.Context) error {
	userID := c.Get("uid").(string)

	count, err := h.messageUseCase.MarkAllRead(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int64{"marked_read": count})
}

func (h *MessageHandler) Flag(c echo.Context) error {
	userID := c.Get("uid").(string)

	message, err := h.messageUseCase.Flag(c.Request().Context(), userID, c.Param("id"), c.Param("messageId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}
