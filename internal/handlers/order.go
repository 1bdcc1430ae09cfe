package handlers

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/electioncart/internal/models"
	"github.com/example/electioncart/internal/services"
	"github.com/example/electioncart/internal/utils"
)

// OrderHandler serves the customer-facing order endpoints.
type OrderHandler struct {
	db         *gorm.DB
	lifecycle  *services.LifecycleService
	payments   *services.PaymentService
	resources  *services.ResourceService
	checklists *services.ChecklistService
	invoices   *services.InvoiceService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(db *gorm.DB, lifecycle *services.LifecycleService, payments *services.PaymentService, resources *services.ResourceService, checklists *services.ChecklistService, invoices *services.InvoiceService) *OrderHandler {
	return &OrderHandler{
		db:         db,
		lifecycle:  lifecycle,
		payments:   payments,
		resources:  resources,
		checklists: checklists,
		invoices:   invoices,
	}
}

// Checkout turns the cart into a pending-payment order.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	order, err := h.lifecycle.CheckoutCart(actor.ID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": order})
}

// List returns the customer's own orders, newest first.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	pagination := utils.ParsePagination(c)

	query := h.db.Where("user_id = ?", actor.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	err := query.Preload("Items").Order("created_at desc").
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

// Get returns one order with its items, ledger, and history. Customers
// only see their own orders; staff see all.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var order models.Order
	err = h.db.
		Preload("Items").
		Preload("Items.Submissions").
		Preload("Items.Resource").
		Preload("PaymentRecords").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("AssignedTo").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	if order.UserID != actor.ID && !actor.Role.IsStaffOrAdmin() {
		return fiber.NewError(fiber.StatusForbidden, "you do not own this order")
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"data":            order,
		"total_paid":      order.TotalPaid(),
		"balance":         order.Balance(),
		"upload_progress": order.ResourceUploadProgress(),
	})
}

type verifyPaymentRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// VerifyPayment confirms a gateway payment for the order.
func (h *OrderHandler) VerifyPayment(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req verifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	order, err := h.payments.VerifyGatewayPayment(actor, services.GatewayCallbackInput{
		OrderID:   orderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// SubmitResources accepts the dynamic resource form for one order item.
// Text fields arrive as form values, files as uploads, all keyed by
// field name.
func (h *OrderHandler) SubmitResources(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	itemID, err := parseUUIDParam(c, "itemId")
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "expected multipart form data")
	}

	inputs := make(map[string]services.FieldInput)
	for name, values := range form.Value {
		if len(values) > 0 {
			inputs[name] = services.FieldInput{Text: values[0]}
		}
	}
	for name, files := range form.File {
		if len(files) == 0 {
			continue
		}
		upload, err := readUpload(files[0])
		if err != nil {
			return err
		}
		inputs[name] = services.FieldInput{File: upload}
	}

	order, err := h.resources.SubmitDynamic(actor, itemID, inputs)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

// SubmitLegacyResources accepts the fixed resource form for one item.
func (h *OrderHandler) SubmitLegacyResources(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	itemID, err := parseUUIDParam(c, "itemId")
	if err != nil {
		return err
	}

	in := services.LegacyResourceInput{
		CampaignSlogan:  c.FormValue("campaign_slogan"),
		PreferredDate:   c.FormValue("preferred_date"),
		WhatsAppNumber:  c.FormValue("whatsapp_number"),
		AdditionalNotes: c.FormValue("additional_notes"),
	}

	if header, err := c.FormFile("candidate_photo"); err == nil {
		upload, err := readUpload(header)
		if err != nil {
			return err
		}
		in.CandidatePhoto = upload
	}
	if header, err := c.FormFile("party_logo"); err == nil {
		upload, err := readUpload(header)
		if err != nil {
			return err
		}
		in.PartyLogo = upload
	}

	order, err := h.resources.SubmitLegacy(actor, itemID, in)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// UploadStatus reports resource collection progress per item.
func (h *OrderHandler) UploadStatus(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	statuses, progress, err := h.resources.UploadStatus(actor, orderID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"data":     statuses,
		"progress": progress,
	})
}

// Checklist returns the order checklist with progress.
func (h *OrderHandler) Checklist(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var order models.Order
	if err := h.db.First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}
	if order.UserID != actor.ID && !actor.Role.IsStaffOrAdmin() {
		return fiber.NewError(fiber.StatusForbidden, "you do not own this order")
	}

	checklist, progress, err := h.checklists.GetForOrder(orderID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"data":     checklist,
		"progress": progress,
	})
}

// Payments returns the order's payment ledger.
func (h *OrderHandler) Payments(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	order, records, err := h.payments.ListPayments(actor, orderID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       records,
		"total_paid": order.TotalPaid(),
		"balance":    order.Balance(),
	})
}

// RequestInvoice queues invoice rendering and returns the task handle.
func (h *OrderHandler) RequestInvoice(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	request, err := h.invoices.Request(actor, orderID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"success": true, "data": request})
}

func readUpload(header *multipart.FileHeader) (*services.FileUpload, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}

	return &services.FileUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  content,
	}, nil
}
