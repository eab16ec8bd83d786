package handlers

import (
	"github.com/arnold/goalgraph-api/internal/middleware"
	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetNotifications returns paginated notifications for the current teammate
func (a *API) GetNotifications(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	out, err := a.Store.NotificationsFor(c.UserContext(), middleware.GetTeammateID(c), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// MarkNotificationRead marks a single notification as read
func (a *API) MarkNotificationRead(c *fiber.Ctx) error {
	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, &models.ValidationError{Messages: []string{"invalid notification ID"}})
	}
	if err := a.Store.MarkNotificationRead(c.UserContext(), middleware.GetTeammateID(c), notifID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// MarkAllRead marks all notifications as read for the current teammate
func (a *API) MarkAllRead(c *fiber.Ctx) error {
	if err := a.Store.MarkAllNotificationsRead(c.UserContext(), middleware.GetTeammateID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// RegisterDeviceToken saves the FCM token for push notifications
func (a *API) RegisterDeviceToken(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := a.Store.SetDeviceToken(c.UserContext(), middleware.GetTeammateID(c), req.Token); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
