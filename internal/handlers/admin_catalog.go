package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/electioncart/internal/models"
)

type packageRequest struct {
	Name         string          `json:"name" validate:"required"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price" validate:"required"`
	Features     json.RawMessage `json:"features"`
	IsActive     *bool           `json:"is_active"`
	IsPopular    bool            `json:"is_popular"`
	PopularOrder int             `json:"popular_order"`
}

// CreatePackage adds a package to the catalog.
func (h *AdminHandler) CreatePackage(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req packageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	actorID := actor.ID
	pkg := models.Package{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Features:     []byte(req.Features),
		IsActive:     true,
		IsPopular:    req.IsPopular,
		PopularOrder: req.PopularOrder,
		CreatedByID:  &actorID,
	}
	if req.IsActive != nil {
		pkg.IsActive = *req.IsActive
	}

	if err := h.db.Create(&pkg).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": pkg})
}

// UpdatePackage edits a catalog package.
func (h *AdminHandler) UpdatePackage(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req packageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var pkg models.Package
	if err := h.db.First(&pkg, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "package not found")
		}
		return err
	}

	if req.Name != "" {
		pkg.Name = req.Name
	}
	if req.Description != "" {
		pkg.Description = req.Description
	}
	if req.Price.IsPositive() {
		pkg.Price = req.Price
	}
	if len(req.Features) > 0 {
		pkg.Features = []byte(req.Features)
	}
	if req.IsActive != nil {
		pkg.IsActive = *req.IsActive
	}
	pkg.IsPopular = req.IsPopular
	pkg.PopularOrder = req.PopularOrder

	if err := h.db.Save(&pkg).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": pkg})
}

type campaignRequest struct {
	Name         string          `json:"name" validate:"required"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price" validate:"required"`
	Deliverables json.RawMessage `json:"deliverables"`
	IsActive     *bool           `json:"is_active"`
}

// CreateCampaign adds a campaign service to the catalog.
func (h *AdminHandler) CreateCampaign(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req campaignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	actorID := actor.ID
	campaign := models.Campaign{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Deliverables: []byte(req.Deliverables),
		IsActive:     true,
		CreatedByID:  &actorID,
	}
	if req.IsActive != nil {
		campaign.IsActive = *req.IsActive
	}

	if err := h.db.Create(&campaign).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": campaign})
}

// UpdateCampaign edits a campaign service.
func (h *AdminHandler) UpdateCampaign(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req campaignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var campaign models.Campaign
	if err := h.db.First(&campaign, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "campaign not found")
		}
		return err
	}

	if req.Name != "" {
		campaign.Name = req.Name
	}
	if req.Description != "" {
		campaign.Description = req.Description
	}
	if req.Price.IsPositive() {
		campaign.Price = req.Price
	}
	if len(req.Deliverables) > 0 {
		campaign.Deliverables = []byte(req.Deliverables)
	}
	if req.IsActive != nil {
		campaign.IsActive = *req.IsActive
	}

	if err := h.db.Save(&campaign).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": campaign})
}
