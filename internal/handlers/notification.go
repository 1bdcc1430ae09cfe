package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/electioncart/internal/models"
	"github.com/example/electioncart/internal/utils"
)

// NotificationHandler serves the in-app notification feed.
type NotificationHandler struct {
	db *gorm.DB
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// List returns the user's notifications, unread count included.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	pagination := utils.ParsePagination(c)

	query := h.db.Where("user_id = ?", actor.ID)
	if c.Query("unread") == "true" {
		query = query.Where("NOT is_read")
	}

	var notifications []models.Notification
	err := query.Order("created_at desc").
		Offset(pagination.Offset).Limit(pagination.Limit).
		Find(&notifications).Error
	if err != nil {
		return err
	}

	var unread int64
	if err := h.db.Model(&models.Notification{}).Where("user_id = ? AND NOT is_read", actor.ID).Count(&unread).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    notifications,
		"unread":  unread,
		"page":    pagination.Page,
	})
}

// MarkRead marks one notification as read.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	result := h.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, actor.ID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "notification not found")
	}

	return c.JSON(fiber.Map{"success": true})
}

// MarkAllRead marks every notification as read.
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND NOT is_read", actor.ID).
		Update("is_read", true).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}
