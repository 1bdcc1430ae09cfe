package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/electioncart/internal/models"
	"github.com/example/electioncart/internal/services"
)

// CartHandler manages the customer's active cart.
type CartHandler struct {
	db *gorm.DB
}

// NewCartHandler constructs a CartHandler.
func NewCartHandler(db *gorm.DB) *CartHandler {
	return &CartHandler{db: db}
}

func (h *CartHandler) loadOrCreateCart(userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := h.db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if err == gorm.ErrRecordNotFound {
		cart = models.Cart{UserID: userID}
		if err := h.db.Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Get returns the customer's cart with current catalog prices.
func (h *CartHandler) Get(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	cart, err := h.loadOrCreateCart(actor.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    cart,
		"total":   cart.Total(),
	})
}

type addCartItemRequest struct {
	ProductType models.ProductType `json:"product_type" validate:"required"`
	ProductID   uuid.UUID          `json:"product_id" validate:"required"`
	Quantity    int                `json:"quantity"`
}

// AddItem puts a product in the cart, bumping quantity when the line
// already exists.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req addCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if !req.ProductType.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product type")
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	ref := models.ProductRef{Type: req.ProductType, ID: req.ProductID}
	product, err := services.ResolveProduct(h.db, ref)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return fiber.NewError(fiber.StatusBadRequest, "product is not available")
	}

	cart, err := h.loadOrCreateCart(actor.ID)
	if err != nil {
		return err
	}

	var line models.CartItem
	err = h.db.Where("cart_id = ? AND product_type = ? AND product_id = ?", cart.ID, ref.Type, ref.ID).First(&line).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		line = models.CartItem{
			CartID:   cart.ID,
			Product:  ref,
			Quantity: req.Quantity,
			Price:    product.Price,
		}
		if err := h.db.Create(&line).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		line.Quantity += req.Quantity
		line.Price = product.Price
		if err := h.db.Save(&line).Error; err != nil {
			return err
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": line})
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// UpdateItem changes a cart line's quantity.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	itemID, err := parseUUIDParam(c, "itemId")
	if err != nil {
		return err
	}

	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	line, err := h.ownedLine(actor.ID, itemID)
	if err != nil {
		return err
	}

	line.Quantity = req.Quantity
	if err := h.db.Save(line).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": line})
}

// RemoveItem deletes a cart line.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	itemID, err := parseUUIDParam(c, "itemId")
	if err != nil {
		return err
	}

	line, err := h.ownedLine(actor.ID, itemID)
	if err != nil {
		return err
	}

	if err := h.db.Delete(line).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// Clear empties the cart.
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var cart models.Cart
	if err := h.db.Where("user_id = ?", actor.ID).First(&cart).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(fiber.Map{"success": true})
		}
		return err
	}

	if err := h.db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *CartHandler) ownedLine(userID, itemID uuid.UUID) (*models.CartItem, error) {
	var line models.CartItem
	if err := h.db.First(&line, "id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "cart item not found")
		}
		return nil, err
	}

	var cart models.Cart
	if err := h.db.First(&cart, "id = ?", line.CartID).Error; err != nil {
		return nil, err
	}
	if cart.UserID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "cart item does not belong to you")
	}
	return &line, nil
}
