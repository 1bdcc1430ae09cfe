package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/electioncart/internal/models"
	"github.com/example/electioncart/internal/services"
	"github.com/example/electioncart/internal/utils"
)

// StaffHandler serves the fulfilment queue for staff members.
type StaffHandler struct {
	db        *gorm.DB
	lifecycle *services.LifecycleService
}

// NewStaffHandler constructs a StaffHandler.
func NewStaffHandler(db *gorm.DB, lifecycle *services.LifecycleService) *StaffHandler {
	return &StaffHandler{db: db, lifecycle: lifecycle}
}

// MyOrders returns orders assigned to the authenticated staff member.
func (h *StaffHandler) MyOrders(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	pagination := utils.ParsePagination(c)

	query := h.db.Where("assigned_to_id = ?", actor.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status NOT IN ?", []models.OrderStatus{models.StatusCompleted, models.StatusCancelled})
	}

	var orders []models.Order
	err := query.Preload("User").Preload("Items").
		Order("priority desc, created_at asc").
		Offset(pagination.Offset).Limit(pagination.Limit).
		Find(&orders).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"page":    pagination.Page,
	})
}

type checklistItemRequest struct {
	Completed bool `json:"completed"`
}

// UpdateChecklistItem marks a checklist item complete or reopens it.
func (h *StaffHandler) UpdateChecklistItem(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	itemID, err := parseUUIDParam(c, "itemId")
	if err != nil {
		return err
	}

	var req checklistItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	item, progress, err := h.lifecycle.CompleteChecklistItem(actor, itemID, req.Completed)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"data":     item,
		"progress": progress,
	})
}

// StartWork moves an assigned order into progress.
func (h *StaffHandler) StartWork(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	order, err := h.lifecycle.Transition(orderID, models.StatusInProgress, actor, "work started")
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// HoldOrder puts an order on hold.
func (h *StaffHandler) HoldOrder(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	reason := c.Query("reason")
	if reason == "" {
		reason = "put on hold"
	}

	order, err := h.lifecycle.Transition(orderID, models.StatusOnHold, actor, reason)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}
