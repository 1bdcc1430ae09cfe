package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/electioncart/internal/models"
	"github.com/example/electioncart/internal/services"
	"github.com/example/electioncart/internal/utils"
)

// ProductHandler serves the public catalog.
type ProductHandler struct {
	db        *gorm.DB
	resources *services.ResourceService
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(db *gorm.DB, resources *services.ResourceService) *ProductHandler {
	return &ProductHandler{db: db, resources: resources}
}

// ListPackages returns active packages, popular first.
func (h *ProductHandler) ListPackages(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	var packages []models.Package
	query := h.db.Where("is_active").Order("is_popular desc, popular_order asc, created_at desc")
	if err := query.Offset(pagination.Offset).Limit(pagination.Limit).Find(&packages).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    packages,
		"page":    pagination.Page,
	})
}

// GetPackage returns one package.
func (h *ProductHandler) GetPackage(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var pkg models.Package
	if err := h.db.First(&pkg, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "package not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": pkg})
}

// ListCampaigns returns active campaign services.
func (h *ProductHandler) ListCampaigns(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	var campaigns []models.Campaign
	query := h.db.Where("is_active").Order("created_at desc")
	if err := query.Offset(pagination.Offset).Limit(pagination.Limit).Find(&campaigns).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    campaigns,
		"page":    pagination.Page,
	})
}

// GetCampaign returns one campaign service.
func (h *ProductHandler) GetCampaign(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var campaign models.Campaign
	if err := h.db.First(&campaign, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "campaign not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": campaign})
}

// ListResourceFields returns the resource requirements for a product so
// customers can see what to prepare before ordering.
func (h *ProductHandler) ListResourceFields(c *fiber.Ctx) error {
	productType := models.ProductType(c.Params("type"))
	if !productType.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product type")
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	fields, err := h.resources.ListFields(models.ProductRef{Type: productType, ID: id})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": fields})
}
