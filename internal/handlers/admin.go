package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/electioncart/internal/models"
	"github.com/example/electioncart/internal/services"
	"github.com/example/electioncart/internal/utils"
)

// AdminHandler serves the back-office endpoints.
type AdminHandler struct {
	db        *gorm.DB
	lifecycle *services.LifecycleService
	payments  *services.PaymentService
	resources *services.ResourceService
	analytics *services.AnalyticsService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(db *gorm.DB, lifecycle *services.LifecycleService, payments *services.PaymentService, resources *services.ResourceService, analytics *services.AnalyticsService) *AdminHandler {
	return &AdminHandler{
		db:        db,
		lifecycle: lifecycle,
		payments:  payments,
		resources: resources,
		analytics: analytics,
	}
}

// Dashboard returns the cached admin aggregates.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.analytics.Dashboard(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": stats})
}

// DailyRevenue returns collected payments per day.
func (h *AdminHandler) DailyRevenue(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)
	points, err := h.analytics.DailyRevenue(c.Context(), days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": points})
}

// ListOrders returns all orders with status, source, priority, and
// assignment filters.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	query := h.db.Model(&models.Order{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if source := c.Query("source"); source != "" {
		query = query.Where("order_source = ?", source)
	}
	if priority := c.Query("priority"); priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if payment := c.Query("payment_status"); payment != "" {
		query = query.Where("payment_status = ?", payment)
	}
	if c.Query("manual") == "true" {
		query = query.Where("is_manual_order")
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		id, err := uuid.Parse(assignee)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid assigned_to")
		}
		query = query.Where("assigned_to_id = ?", id)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	err := query.Preload("User").Preload("AssignedTo").Preload("Items").
		Order("created_at desc").
		Offset(pagination.Offset).Limit(pagination.Limit).
		Find(&orders).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"total":   total,
		"page":    pagination.Page,
	})
}

type manualOrderItemRequest struct {
	ProductType models.ProductType `json:"product_type" validate:"required"`
	ProductID   uuid.UUID          `json:"product_id" validate:"required"`
	Quantity    int                `json:"quantity"`
}

type manualOrderRequest struct {
	CustomerID     *uuid.UUID               `json:"customer_id"`
	CustomerName   string                   `json:"customer_name"`
	CustomerPhone  string                   `json:"customer_phone"`
	Items          []manualOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Source         models.OrderSource       `json:"order_source"`
	Priority       models.Priority          `json:"priority"`
	AdminNotes     string                   `json:"admin_notes"`
	InitialPayment *decimal.Decimal         `json:"initial_payment"`
	PaymentMethod  models.PaymentMethod     `json:"payment_method"`
	AssignedToID   *uuid.UUID               `json:"assigned_to_id"`
}

// CreateManualOrder records an order taken offline.
func (h *AdminHandler) CreateManualOrder(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req manualOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	in := services.ManualOrderInput{
		CustomerID:     req.CustomerID,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		Source:         req.Source,
		Priority:       req.Priority,
		AdminNotes:     req.AdminNotes,
		InitialPayment: req.InitialPayment,
		PaymentMethod:  req.PaymentMethod,
		AssignedToID:   req.AssignedToID,
	}
	for _, item := range req.Items {
		if !item.ProductType.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product type")
		}
		in.Items = append(in.Items, services.ManualOrderItemInput{
			Product:  models.ProductRef{Type: item.ProductType, ID: item.ProductID},
			Quantity: item.Quantity,
		})
	}

	order, err := h.lifecycle.CreateManualOrder(actor, in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": order})
}

type overrideStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
	Reason string             `json:"reason" validate:"required"`
}

// OverrideStatus manually moves an order to any valid status.
func (h *AdminHandler) OverrideStatus(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req overrideStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	order, err := h.lifecycle.OverrideStatus(actor, orderID, req.Status, req.Reason)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type assignRequest struct {
	StaffID uuid.UUID `json:"staff_id" validate:"required"`
}

// AssignOrder assigns an order to a staff member.
func (h *AdminHandler) AssignOrder(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req assignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	order, err := h.lifecycle.AssignToStaff(actor, orderID, req.StaffID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type recordPaymentRequest struct {
	Amount    decimal.Decimal      `json:"amount" validate:"required"`
	Method    models.PaymentMethod `json:"payment_method"`
	Reference string               `json:"payment_reference"`
	Notes     string               `json:"notes"`
}

// RecordPayment appends an offline payment to the order's ledger.
func (h *AdminHandler) RecordPayment(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req recordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	order, err := h.payments.RecordManualPayment(actor, orderID, services.ManualPaymentInput{
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": order})
}

type fieldDefinitionRequest struct {
	ProductType       models.ProductType `json:"product_type"`
	ProductID         uuid.UUID          `json:"product_id"`
	FieldName         string             `json:"field_name"`
	FieldType         models.FieldType   `json:"field_type"`
	IsRequired        bool               `json:"is_required"`
	SortOrder         int                `json:"order"`
	HelpText          string             `json:"help_text"`
	MaxFileSizeMB     *int               `json:"max_file_size_mb"`
	MaxLength         *int               `json:"max_length"`
	MinValue          *int64             `json:"min_value"`
	MaxValue          *int64             `json:"max_value"`
	AllowedExtensions []string           `json:"allowed_extensions"`
}

func (r fieldDefinitionRequest) toModel() models.ResourceFieldDefinition {
	return models.ResourceFieldDefinition{
		Product:           models.ProductRef{Type: r.ProductType, ID: r.ProductID},
		FieldName:         r.FieldName,
		FieldType:         r.FieldType,
		IsRequired:        r.IsRequired,
		SortOrder:         r.SortOrder,
		HelpText:          r.HelpText,
		MaxFileSizeMB:     r.MaxFileSizeMB,
		MaxLength:         r.MaxLength,
		MinValue:          r.MinValue,
		MaxValue:          r.MaxValue,
		AllowedExtensions: pq.StringArray(r.AllowedExtensions),
	}
}

// CreateResourceField adds a resource field to a product's schema.
func (h *AdminHandler) CreateResourceField(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req fieldDefinitionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	def, err := h.resources.CreateField(actor, req.toModel())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": def})
}

// UpdateResourceField edits a resource field definition.
func (h *AdminHandler) UpdateResourceField(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req fieldDefinitionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	def, err := h.resources.UpdateField(actor, id, req.toModel())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": def})
}

type reorderFieldsRequest struct {
	ProductType models.ProductType `json:"product_type" validate:"required"`
	ProductID   uuid.UUID          `json:"product_id" validate:"required"`
	FieldIDs    []uuid.UUID        `json:"field_ids" validate:"required,min=1"`
}

// ReorderResourceFields rewrites the display order of a product's
// resource fields.
func (h *AdminHandler) ReorderResourceFields(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req reorderFieldsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if !req.ProductType.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product type")
	}

	defs, err := h.resources.ReorderFields(actor, models.ProductRef{Type: req.ProductType, ID: req.ProductID}, req.FieldIDs)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": defs})
}

// DeleteResourceField removes a resource field definition.
func (h *AdminHandler) DeleteResourceField(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.resources.DeleteField(actor, id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

type templateItemRequest struct {
	ProductType              models.ProductType `json:"product_type" validate:"required"`
	ProductID                uuid.UUID          `json:"product_id" validate:"required"`
	Name                     string             `json:"name" validate:"required"`
	Description              string             `json:"description"`
	SortOrder                int                `json:"order"`
	IsOptional               bool               `json:"is_optional"`
	EstimatedDurationMinutes *int               `json:"estimated_duration_minutes"`
}

// CreateTemplateItem adds a checklist template task for a product.
func (h *AdminHandler) CreateTemplateItem(c *fiber.Ctx) error {
	var req templateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if !req.ProductType.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product type")
	}

	item := models.ChecklistTemplateItem{
		Product:                  models.ProductRef{Type: req.ProductType, ID: req.ProductID},
		Name:                     req.Name,
		Description:              req.Description,
		SortOrder:                req.SortOrder,
		IsOptional:               req.IsOptional,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
	}
	if err := h.db.Create(&item).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// ListTemplateItems returns a product's checklist templates in order.
func (h *AdminHandler) ListTemplateItems(c *fiber.Ctx) error {
	productType := models.ProductType(c.Query("product_type"))
	if !productType.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product type")
	}
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product_id")
	}

	var items []models.ChecklistTemplateItem
	err = h.db.Where("product_type = ? AND product_id = ?", productType, productID).
		Order("sort_order asc").
		Find(&items).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": items})
}

// DeleteTemplateItem removes a checklist template task. Existing order
// checklists keep their generated items.
func (h *AdminHandler) DeleteTemplateItem(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	result := h.db.Delete(&models.ChecklistTemplateItem{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "template item not found")
	}

	return c.JSON(fiber.Map{"success": true})
}

// ListCustomers returns customer accounts with an optional search.
func (h *AdminHandler) ListCustomers(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	query := h.db.Model(&models.User{}).Where("role = ?", models.RoleCustomer)
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR phone LIKE ?", pattern, pattern, pattern)
	}

	var users []models.User
	err := query.Order("created_at desc").
		Offset(pagination.Offset).Limit(pagination.Limit).
		Find(&users).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
		"page":    pagination.Page,
	})
}

// ListStaff returns active staff and admin accounts for assignment.
func (h *AdminHandler) ListStaff(c *fiber.Ctx) error {
	var users []models.User
	err := h.db.Where("role IN ? AND is_active", []models.Role{models.RoleStaff, models.RoleAdmin}).
		Order("first_name asc").
		Find(&users).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": users})
}

type updateUserRoleRequest struct {
	Role     models.Role `json:"role" validate:"required"`
	IsActive *bool       `json:"is_active"`
}

// UpdateUserRole changes a user's role or active flag.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req updateUserRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Role != models.RoleCustomer && req.Role != models.RoleStaff && req.Role != models.RoleAdmin {
		return fiber.NewError(fiber.StatusBadRequest, "invalid role")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	user.Role = req.Role
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := h.db.Save(&user).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}
