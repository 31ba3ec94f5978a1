package handler

import (
	"github.com/labstack/echo/v4"

	"classipost/internal/usecase"
	"classipost/pkg/response"
	"classipost/pkg/utils"
)

type ConversationHandler struct {
	conversationUseCase *usecase.ConversationUseCase
}

func NewConversationHandler(conversationUseCase *usecase.ConversationUseCase) *ConversationHandler {
	return &ConversationHandler{
		conversationUseCase: conversationUseCase,
	}
}

type startConversationRequest struct {
	ListingID      string `json:"listing_id" validate:"required"`
	InitialMessage string `json:"initial_message" validate:"max=5000"`
}

// Start opens or resumes the caller's conversation about a listing.
func (h *ConversationHandler) Start(c echo.Context) error {
	var req startConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	conversation, err := h.conversationUseCase.Start(c.Request().Context(), userID, usecase.StartConversationInput{
		ListingID:      req.ListingID,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, conversation)
}

// List returns the caller's conversations, most recently active first.
func (h *ConversationHandler) List(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c, 20)

	conversations, total, err := h.conversationUseCase.List(c.Request().Context(), userID, usecase.ListConversationsInput{
		Status:    c.QueryParam("status"),
		ListingID: c.QueryParam("listing_id"),
		Search:    c.QueryParam("search"),
		Limit:     params.Limit,
		Offset:    params.Offset,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, conversations, total, params.Limit, params.Offset)
}

// Get returns one conversation with its message log and marks the other
// party's messages as read.
func (h *ConversationHandler) Get(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c, 50)

	conversation, err := h.conversationUseCase.Get(c.Request().Context(), userID, c.Param("id"), params.Limit, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

func (h *ConversationHandler) Archive(c echo.Context) error {
	userID := c.Get("uid").(string)

	conversation, err := h.conversationUseCase.Archive(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

func (h *ConversationHandler) Unarchive(c echo.Context) error {
	userID := c.Get("uid").(string)

	conversation, err := h.conversationUseCase.Unarchive(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

func (h *ConversationHandler) Block(c echo.Context) error {
	userID := c.Get("uid").(string)

	result, err := h.conversationUseCase.Block(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *ConversationHandler) Unblock(c echo.Context) error {
	userID := c.Get("uid").(string)

	result, err := h.conversationUseCase.Unblock(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *ConversationHandler) UnreadCount(c echo.Context) error {
	userID := c.Get("uid").(string)

	count, err := h.conversationUseCase.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int64{"unread_count": count})
}

func (h *ConversationHandler) Stats(c echo.Context) error {
	userID := c.Get("uid").(string)

	stats, err := h.conversationUseCase.Stats(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, stats)
}
