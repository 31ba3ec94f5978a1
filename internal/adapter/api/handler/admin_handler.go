package handler

import (
	"github.com/labstack/echo/v4"

	"classipost/internal/domain/repository"
	"classipost/internal/usecase"
	"classipost/pkg/errors"
	"classipost/pkg/response"
)

// AdminHandler exposes notification triggers for the moderation pipeline.
// Listing lifecycle events originate outside this service and land here.
type AdminHandler struct {
	notificationUseCase *usecase.NotificationUseCase
	listingRepo         repository.ListingRepository
}

func NewAdminHandler(notificationUseCase *usecase.NotificationUseCase, listingRepo repository.ListingRepository) *AdminHandler {
	return &AdminHandler{
		notificationUseCase: notificationUseCase,
		listingRepo:         listingRepo,
	}
}

type listingStatusRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
	Event     string `json:"event" validate:"required,oneof=approved rejected expired expiring_soon"`
	Reason    string `json:"reason"`
	DaysLeft  int    `json:"days_left"`
}

func (h *AdminHandler) NotifyListingStatus(c echo.Context) error {
	var req listingStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()
	listing, err := h.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		return response.Error(c, err)
	}

	var notification interface{}
	switch req.Event {
	case "approved":
		notification, err = h.notificationUseCase.NotifyListingApproved(ctx, listing.OwnerID, listing)
	case "rejected":
		notification, err = h.notificationUseCase.NotifyListingRejected(ctx, listing.OwnerID, listing, req.Reason)
	case "expired":
		notification, err = h.notificationUseCase.NotifyListingExpired(ctx, listing.OwnerID, listing)
	case "expiring_soon":
		if req.DaysLeft <= 0 {
			return response.Error(c, errors.BadRequest("days_left must be positive", nil))
		}
		notification, err = h.notificationUseCase.NotifyListingExpiringSoon(ctx, listing.OwnerID, listing, req.DaysLeft)
	}
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, notification)
}

type systemNotificationRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Body        string `json:"body" validate:"required,max=2000"`
	ActionURL   string `json:"action_url"`
}

func (h *AdminHandler) NotifySystem(c echo.Context) error {
	var req systemNotificationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	notification, err := h.notificationUseCase.NotifySystem(c.Request().Context(), req.RecipientID, req.Title, req.Body, req.ActionURL)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, notification)
}
