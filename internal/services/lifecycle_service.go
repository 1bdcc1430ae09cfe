package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/electioncart/internal/cache"
	"github.com/example/electioncart/internal/errs"
	"github.com/example/electioncart/internal/gateway"
	"github.com/example/electioncart/internal/models"
	"github.com/example/electioncart/internal/utils"
)

// allowedTransitions is the system transition table. Manual admin
// overrides bypass it; everything else must follow an edge here.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPendingPayment:     {models.StatusPendingResources, models.StatusCancelled},
	models.StatusPendingResources:   {models.StatusReadyForProcessing, models.StatusOnHold, models.StatusCancelled},
	models.StatusReadyForProcessing: {models.StatusAssigned, models.StatusOnHold, models.StatusCancelled},
	models.StatusAssigned:           {models.StatusInProgress, models.StatusReadyForProcessing, models.StatusOnHold, models.StatusCancelled},
	models.StatusInProgress:         {models.StatusCompleted, models.StatusOnHold, models.StatusCancelled},
	models.StatusOnHold:             {models.StatusPendingResources, models.StatusReadyForProcessing, models.StatusAssigned, models.StatusInProgress, models.StatusCancelled},
	models.StatusCompleted:          {},
	models.StatusCancelled:          {},
}

// CanTransition reports whether the system transition table allows
// moving from one status to another.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LifecycleService owns order creation and every status change. All
// transitions run inside a transaction holding a row lock on the order,
// so concurrent changes to one order serialize.
type LifecycleService struct {
	db         *gorm.DB
	checklists *ChecklistService
	notify     *NotificationService
	gateway    gateway.Client
	analytics  *cache.Analytics
}

func NewLifecycleService(db *gorm.DB, checklists *ChecklistService, notify *NotificationService, gw gateway.Client, analytics *cache.Analytics) *LifecycleService {
	return &LifecycleService{
		db:         db,
		checklists: checklists,
		notify:     notify,
		gateway:    gw,
		analytics:  analytics,
	}
}

// lockOrder loads an order with its row locked for the duration of tx.
func lockOrder(tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", orderID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errs.NotFound("order")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Transition moves an order to a new status in its own transaction.
func (s *LifecycleService) Transition(orderID uuid.UUID, to models.OrderStatus, actor models.Actor, reason string) (*models.Order, error) {
	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := s.TransitionTx(tx, locked, to, actor, reason, false); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.analytics.Invalidate(context.Background())
	return order, nil
}

// TransitionTx applies a status change to an already locked order
// inside tx. Manual transitions may take any edge between two distinct
// valid statuses; system transitions must follow the transition table.
func (s *LifecycleService) TransitionTx(tx *gorm.DB, order *models.Order, to models.OrderStatus, actor models.Actor, reason string, manual bool) error {
	if !to.Valid() {
		return errs.Validation(fmt.Sprintf("unknown status %q", to))
	}
	if order.Status == to {
		return errs.InvalidTransition(string(order.Status), string(to))
	}
	if !manual && !CanTransition(order.Status, to) {
		return errs.InvalidTransition(string(order.Status), string(to))
	}

	from := order.Status
	order.Status = to
	if err := tx.Model(order).Update("status", to).Error; err != nil {
		return err
	}

	var actorID *uuid.UUID
	if actor.ID != uuid.Nil {
		id := actor.ID
		actorID = &id
	}
	history := models.OrderStatusHistory{
		OrderID:        order.ID,
		OldStatus:      from,
		NewStatus:      to,
		ChangedByID:    actorID,
		Reason:         reason,
		IsManualChange: manual,
	}
	if err := tx.Create(&history).Error; err != nil {
		return err
	}

	return s.afterTransition(tx, order, to)
}

// afterTransition runs the in-transaction side effects of entering a
// status. Notifications write rows in the same tx scope via the
// service's own handle, which is acceptable because they are best
// effort either way.
func (s *LifecycleService) afterTransition(tx *gorm.DB, order *models.Order, to models.OrderStatus) error {
	switch to {
	case models.StatusPendingResources:
		s.notify.Notify(order.UserID, &order.ID, models.NotifyResourceNeeded,
			"Resources needed",
			fmt.Sprintf("Please upload the required resources for order %s.", order.OrderNumber))

	case models.StatusReadyForProcessing:
		s.notify.NotifyAdmins(&order.ID, models.NotifyOrderStatus,
			"Order ready for processing",
			fmt.Sprintf("Order %s has all resources and is ready to be assigned.", order.OrderNumber))

	case models.StatusAssigned:
		// The checklist comes into being at assignment. Generation is
		// idempotent, so re-entry through on_hold is harmless.
		if _, err := s.checklists.GenerateForOrder(tx, order); err != nil {
			return err
		}
		if order.AssignedToID != nil {
			s.notify.Notify(*order.AssignedToID, &order.ID, models.NotifyAssignment,
				"Order assigned to you",
				fmt.Sprintf("Order %s has been assigned to you.", order.OrderNumber))
		}

	case models.StatusOnHold:
		if order.AssignedToID != nil {
			s.notify.Notify(*order.AssignedToID, &order.ID, models.NotifyOrderStatus,
				"Order on hold",
				fmt.Sprintf("Order %s has been put on hold.", order.OrderNumber))
		}

	case models.StatusCompleted:
		s.notify.Notify(order.UserID, &order.ID, models.NotifyOrderStatus,
			"Order completed",
			fmt.Sprintf("Your order %s has been completed.", order.OrderNumber))
		s.notify.NotifyAdmins(&order.ID, models.NotifyOrderStatus,
			"Order completed",
			fmt.Sprintf("Order %s has been completed.", order.OrderNumber))

	case models.StatusCancelled:
		if order.AssignedToID != nil {
			order.AssignedToID = nil
			if err := tx.Model(order).Update("assigned_to_id", nil).Error; err != nil {
				return err
			}
		}
		s.notify.Notify(order.UserID, &order.ID, models.NotifyOrderStatus,
			"Order cancelled",
			fmt.Sprintf("Your order %s has been cancelled.", order.OrderNumber))
	}
	return nil
}

// OverrideStatus is the admin escape hatch: any edge between distinct
// valid statuses, recorded as a manual change with a required reason.
func (s *LifecycleService) OverrideStatus(actor models.Actor, orderID uuid.UUID, to models.OrderStatus, reason string) (*models.Order, error) {
	if actor.Role != models.RoleAdmin {
		return nil, errs.Permission("only admins can override order status")
	}
	if reason == "" {
		return nil, errs.Validation("a reason is required for manual status changes")
	}

	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := s.TransitionTx(tx, locked, to, actor, reason, true); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.analytics.Invalidate(context.Background())
	return order, nil
}

// CheckoutCart turns the user's cart into a pending-payment order with
// prices snapshotted, registers a gateway charge, and empties the cart.
func (s *LifecycleService) CheckoutCart(userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		err := tx.Preload("Items").Where("user_id = ?", userID).First(&cart).Error
		if err == gorm.ErrRecordNotFound || (err == nil && len(cart.Items) == 0) {
			return errs.Validation("cart is empty")
		}
		if err != nil {
			return err
		}

		order = models.Order{
			UserID:      userID,
			OrderNumber: utils.NewOrderNumber(time.Now()),
			Status:      models.StatusPendingPayment,
			OrderSource: models.SourceWebsite,
			Priority:    models.PriorityNormal,
		}

		total := decimal.Zero
		var items []models.OrderItem
		for _, line := range cart.Items {
			product, err := ResolveProduct(tx, line.Product)
			if err != nil {
				return err
			}
			if !product.IsActive {
				return errs.Validation(fmt.Sprintf("%s is no longer available", product.Name))
			}
			items = append(items, models.OrderItem{
				Product:  line.Product,
				Quantity: line.Quantity,
				Price:    product.Price,
			})
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		order.TotalAmount = total

		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		order.Items = items

		if s.gateway != nil {
			// Gateway amounts are in paise.
			minor := total.Mul(decimal.NewFromInt(100)).IntPart()
			charge, err := s.gateway.CreateCharge(minor, "INR", order.OrderNumber)
			if err != nil {
				return fmt.Errorf("create gateway charge: %w", err)
			}
			order.GatewayOrderID = charge.ID
			if err := tx.Model(&order).Update("gateway_order_id", charge.ID).Error; err != nil {
				return err
			}
		}

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			OldStatus: models.StatusPendingPayment,
			NewStatus: models.StatusPendingPayment,
			Reason:    "order created",
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		return tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifyOrderCreated(&order)
	s.analytics.Invalidate(context.Background())
	return &order, nil
}

// ManualOrderItemInput is one product line on a manual order.
type ManualOrderItemInput struct {
	Product  models.ProductRef
	Quantity int
}

// ManualOrderInput is the admin-entered order for offline channels.
type ManualOrderInput struct {
	CustomerID     *uuid.UUID
	CustomerName   string
	CustomerPhone  string
	Items          []ManualOrderItemInput
	Source         models.OrderSource
	Priority       models.Priority
	AdminNotes     string
	InitialPayment *decimal.Decimal
	PaymentMethod  models.PaymentMethod
	AssignedToID   *uuid.UUID
}

// CreateManualOrder records an order taken over the phone or in person.
// Manual orders skip the payment and resource gates: they start at
// ready_for_processing with resources marked uploaded.
func (s *LifecycleService) CreateManualOrder(actor models.Actor, in ManualOrderInput) (*models.Order, error) {
	if !actor.Role.IsStaffOrAdmin() {
		return nil, errs.Permission("only staff can create manual orders")
	}
	if len(in.Items) == 0 {
		return nil, errs.Validation("a manual order needs at least one item")
	}

	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		customer, err := s.resolveCustomer(tx, in)
		if err != nil {
			return err
		}

		actorID := actor.ID
		order = models.Order{
			UserID:        customer.ID,
			OrderNumber:   utils.NewOrderNumber(time.Now()),
			Status:        models.StatusReadyForProcessing,
			IsManualOrder: true,
			OrderSource:   in.Source,
			Priority:      in.Priority,
			AdminNotes:    in.AdminNotes,
			CreatedByID:   &actorID,
		}
		if order.OrderSource == "" {
			order.OrderSource = models.SourcePhoneCall
		}
		if order.Priority == "" {
			order.Priority = models.PriorityNormal
		}

		total := decimal.Zero
		var items []models.OrderItem
		for _, line := range in.Items {
			product, err := ResolveProduct(tx, line.Product)
			if err != nil {
				return err
			}
			qty := line.Quantity
			if qty <= 0 {
				qty = 1
			}
			items = append(items, models.OrderItem{
				Product:           line.Product,
				Quantity:          qty,
				Price:             product.Price,
				ResourcesUploaded: true,
			})
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(qty))))
		}
		order.TotalAmount = total

		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		order.Items = items

		history := models.OrderStatusHistory{
			OrderID:        order.ID,
			OldStatus:      models.StatusReadyForProcessing,
			NewStatus:      models.StatusReadyForProcessing,
			ChangedByID:    &actorID,
			Reason:         "manual order created",
			IsManualChange: true,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		if in.AssignedToID != nil {
			var staff models.User
			if err := tx.First(&staff, "id = ?", *in.AssignedToID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return errs.NotFound("staff member")
				}
				return err
			}
			if !staff.Role.IsStaffOrAdmin() || !staff.IsActive {
				return errs.Validation("orders can only be assigned to active staff")
			}
			order.AssignedToID = in.AssignedToID
			if err := tx.Model(&order).Update("assigned_to_id", *in.AssignedToID).Error; err != nil {
				return err
			}
			if err := s.TransitionTx(tx, &order, models.StatusAssigned, actor, fmt.Sprintf("assigned to %s", staff.FullName()), false); err != nil {
				return err
			}
		}

		if in.InitialPayment != nil && in.InitialPayment.IsPositive() {
			method := in.PaymentMethod
			if method == "" {
				method = models.MethodCash
			}
			if err := recordPaymentTx(tx, &order, models.PaymentRecord{
				OrderID:      order.ID,
				Amount:       *in.InitialPayment,
				Method:       method,
				RecordedByID: &actorID,
				Notes:        "recorded at order creation",
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyOrderCreated(&order)
	s.analytics.Invalidate(context.Background())
	return &order, nil
}

// resolveCustomer finds the customer for a manual order, creating a
// placeholder account keyed by phone when none exists.
func (s *LifecycleService) resolveCustomer(tx *gorm.DB, in ManualOrderInput) (*models.User, error) {
	if in.CustomerID != nil {
		var user models.User
		if err := tx.First(&user, "id = ?", *in.CustomerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errs.NotFound("customer")
			}
			return nil, err
		}
		return &user, nil
	}

	phone := utils.NormalizePhone(in.CustomerPhone)
	if utils.DigitCount(phone) < minPhoneDigits {
		return nil, errs.Validation("customer phone must contain at least 10 digits")
	}

	var user models.User
	err := tx.Where("phone = ?", phone).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	name := in.CustomerName
	if name == "" {
		name = "Customer"
	}
	user = models.User{
		FirstName: name,
		Phone:     phone,
		Role:      models.RoleCustomer,
		IsActive:  true,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AssignToStaff assigns an order to an active staff member. Assigning
// from ready_for_processing transitions the order; reassigning while
// assigned or in progress just swaps the assignee.
func (s *LifecycleService) AssignToStaff(actor models.Actor, orderID, staffID uuid.UUID) (*models.Order, error) {
	if !actor.Role.IsStaffOrAdmin() {
		return nil, errs.Permission("only staff can assign orders")
	}

	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var staff models.User
		if err := tx.First(&staff, "id = ?", staffID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.NotFound("staff member")
			}
			return err
		}
		if !staff.Role.IsStaffOrAdmin() || !staff.IsActive {
			return errs.Validation("orders can only be assigned to active staff")
		}

		locked, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}

		locked.AssignedToID = &staffID
		if err := tx.Model(locked).Update("assigned_to_id", staffID).Error; err != nil {
			return err
		}

		switch locked.Status {
		case models.StatusReadyForProcessing:
			if err := s.TransitionTx(tx, locked, models.StatusAssigned, actor, fmt.Sprintf("assigned to %s", staff.FullName()), false); err != nil {
				return err
			}
		case models.StatusAssigned, models.StatusInProgress:
			s.notify.Notify(staffID, &locked.ID, models.NotifyAssignment,
				"Order assigned to you",
				fmt.Sprintf("Order %s has been assigned to you.", locked.OrderNumber))
		default:
			return errs.InvalidTransition(string(locked.Status), string(models.StatusAssigned))
		}

		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// checklistTransitions decides which statuses an order moves through
// after its checklist progress changes. Any progress takes an assigned
// order to in_progress; full progress completes an in_progress order.
// Other statuses are left alone.
func checklistTransitions(status models.OrderStatus, percentage int) []models.OrderStatus {
	var steps []models.OrderStatus
	if status == models.StatusAssigned && percentage > 0 {
		steps = append(steps, models.StatusInProgress)
		status = models.StatusInProgress
	}
	if status == models.StatusInProgress && percentage == 100 {
		steps = append(steps, models.StatusCompleted)
	}
	return steps
}

// CompleteChecklistItem flips one checklist item and applies the
// knock-on effects: milestone notifications, the assigned order moving
// to in_progress once work shows progress, and auto-completion at 100%.
func (s *LifecycleService) CompleteChecklistItem(actor models.Actor, itemID uuid.UUID, completed bool) (*models.ChecklistItem, ChecklistProgress, error) {
	if !actor.Role.IsStaffOrAdmin() {
		return nil, ChecklistProgress{}, errs.Permission("only staff can update checklist items")
	}

	var item models.ChecklistItem
	var progress ChecklistProgress
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.NotFound("checklist item")
			}
			return err
		}

		var checklist models.OrderChecklist
		if err := tx.First(&checklist, "id = ?", item.ChecklistID).Error; err != nil {
			return err
		}

		order, err := lockOrder(tx, checklist.OrderID)
		if err != nil {
			return err
		}
		if order.Status.Terminal() {
			return errs.Conflict("checklist is frozen on a closed order")
		}
		if actor.Role != models.RoleAdmin && (order.AssignedToID == nil || *order.AssignedToID != actor.ID) {
			return errs.Permission("only the assigned staff member can update this checklist")
		}

		_, after, err := markItem(tx, &item, completed, actor.ID)
		if err != nil {
			return err
		}
		progress = after

		if MilestoneReached(after.Percentage) {
			s.notify.NotifyAdmins(&order.ID, models.NotifyOrderStatus,
				fmt.Sprintf("Order %d%% complete", after.Percentage),
				fmt.Sprintf("Work on order %s has reached %d%%.", order.OrderNumber, after.Percentage))
		}

		for _, next := range checklistTransitions(order.Status, after.Percentage) {
			reason := "work started"
			if next == models.StatusCompleted {
				reason = "checklist completed"
			}
			if err := s.TransitionTx(tx, order, next, actor, reason, false); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, ChecklistProgress{}, err
	}
	return &item, progress, nil
}

func (s *LifecycleService) notifyOrderCreated(order *models.Order) {
	var customer models.User
	if err := s.db.First(&customer, "id = ?", order.UserID).Error; err != nil {
		return
	}

	lines := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		product, err := ResolveProduct(s.db, item.Product)
		name := "order item"
		if err == nil {
			name = product.Name
		}
		lines = append(lines, fmt.Sprintf("%s x%d @ %s", name, item.Quantity, item.Price.StringFixed(2)))
	}

	source := string(order.OrderSource)
	s.notify.NotifyNewOrder(OrderDigest{
		OrderNumber:   order.OrderNumber,
		CustomerName:  customer.FullName(),
		CustomerPhone: customer.Phone,
		TotalAmount:   order.TotalAmount.StringFixed(2),
		Source:        source,
		Status:        string(order.Status),
		Lines:         lines,
	})
	s.notify.NotifyAdmins(&order.ID, models.NotifyOrderStatus,
		"New order",
		fmt.Sprintf("Order %s created (%s).", order.OrderNumber, source))
}
