package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/electioncart/internal/cache"
	"github.com/example/electioncart/internal/errs"
	"github.com/example/electioncart/internal/events"
	"github.com/example/electioncart/internal/gateway"
	"github.com/example/electioncart/internal/models"
	"github.com/example/electioncart/internal/utils"
)

// DerivePaymentStatus maps the ledger total against the order total.
// Overpayment still reads as paid.
func DerivePaymentStatus(total, paid decimal.Decimal) models.PaymentStatus {
	switch {
	case paid.LessThanOrEqual(decimal.Zero):
		return models.PaymentUnpaid
	case paid.GreaterThanOrEqual(total):
		return models.PaymentPaid
	default:
		return models.PaymentPartial
	}
}

// applyPaymentTotals rederives the order's payment status from the
// ledger total. payment_completed_at is stamped the first time the
// order becomes fully paid and never cleared or restamped afterwards.
// The returned updates map carries exactly the columns that changed.
func applyPaymentTotals(order *models.Order, paid decimal.Decimal, now time.Time) map[string]interface{} {
	status := DerivePaymentStatus(order.TotalAmount, paid)
	updates := map[string]interface{}{"payment_status": status}
	if status == models.PaymentPaid && order.PaymentCompletedAt == nil {
		order.PaymentCompletedAt = &now
		updates["payment_completed_at"] = now
	}
	order.PaymentStatus = status
	return updates
}

// recordPaymentTx appends one ledger entry for an already locked order
// and rederives the order's payment status from the full ledger.
func recordPaymentTx(tx *gorm.DB, order *models.Order, rec models.PaymentRecord) error {
	if !rec.Amount.IsPositive() {
		return errs.Validation("payment amount must be positive")
	}
	if err := tx.Create(&rec).Error; err != nil {
		return err
	}

	var records []models.PaymentRecord
	if err := tx.Where("order_id = ?", order.ID).Find(&records).Error; err != nil {
		return err
	}
	paid := decimal.Zero
	for _, r := range records {
		paid = paid.Add(r.Amount)
	}
	order.PaymentRecords = records

	return tx.Model(order).Updates(applyPaymentTotals(order, paid, time.Now())).Error
}

// PaymentService owns the append-only payment ledger and the gateway
// verification path.
type PaymentService struct {
	db        *gorm.DB
	gateway   gateway.Client
	lifecycle *LifecycleService
	notify    *NotificationService
	producer  *events.TaskProducer
	analytics *cache.Analytics
}

func NewPaymentService(db *gorm.DB, gw gateway.Client, lifecycle *LifecycleService, notify *NotificationService, producer *events.TaskProducer, analytics *cache.Analytics) *PaymentService {
	return &PaymentService{
		db:        db,
		gateway:   gw,
		lifecycle: lifecycle,
		notify:    notify,
		producer:  producer,
		analytics: analytics,
	}
}

// ManualPaymentInput is a staff-entered offline payment.
type ManualPaymentInput struct {
	Amount      decimal.Decimal
	Method      models.PaymentMethod
	Reference   string
	ProofHandle string
	Notes       string
}

// RecordManualPayment appends an offline payment to the ledger.
// Records are never edited; corrections go in as further entries.
func (s *PaymentService) RecordManualPayment(actor models.Actor, orderID uuid.UUID, in ManualPaymentInput) (*models.Order, error) {
	if !actor.Role.IsStaffOrAdmin() {
		return nil, errs.Permission("only staff can record payments")
	}
	if in.Method != "" && !in.Method.Valid() {
		return nil, errs.Validation(fmt.Sprintf("unknown payment method %q", in.Method))
	}
	if in.Method == "" {
		in.Method = models.MethodCash
	}

	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}

		actorID := actor.ID
		if err := recordPaymentTx(tx, locked, models.PaymentRecord{
			OrderID:      locked.ID,
			Amount:       in.Amount,
			Method:       in.Method,
			Reference:    in.Reference,
			ProofHandle:  in.ProofHandle,
			RecordedByID: &actorID,
			Notes:        in.Notes,
		}); err != nil {
			return err
		}

		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.NotifyPaymentReceived(order.OrderNumber, in.Amount.StringFixed(2), string(in.Method))
	s.analytics.Invalidate(context.Background())
	return order, nil
}

// GatewayCallbackInput is the signed payment confirmation posted back
// by the checkout page.
type GatewayCallbackInput struct {
	OrderID   uuid.UUID
	PaymentID string
	Signature string
}

// VerifyGatewayPayment validates the gateway signature, records the
// payment, and moves the order to pending_resources. The call is
// idempotent: replaying the same payment confirmation returns the
// already-confirmed order.
func (s *PaymentService) VerifyGatewayPayment(actor models.Actor, in GatewayCallbackInput) (*models.Order, error) {
	if s.gateway == nil {
		return nil, errs.Conflict("online payments are not configured")
	}

	var order *models.Order
	var replay bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := lockOrder(tx, in.OrderID)
		if err != nil {
			return err
		}
		if locked.UserID != actor.ID && !actor.Role.IsStaffOrAdmin() {
			return errs.Permission("you do not own this order")
		}

		if locked.GatewayPaymentID == in.PaymentID && locked.GatewayPaymentID != "" {
			order = locked
			replay = true
			return nil
		}

		if locked.Status != models.StatusPendingPayment {
			return errs.Conflict("order is not awaiting payment")
		}
		if locked.GatewayOrderID == "" {
			return errs.Conflict("order has no gateway charge")
		}
		if !s.gateway.VerifySignature(locked.GatewayOrderID, in.PaymentID, in.Signature) {
			return errs.Validation("payment signature verification failed")
		}

		updates := map[string]interface{}{
			"gateway_payment_id": in.PaymentID,
			"gateway_signature":  in.Signature,
		}
		if err := tx.Model(locked).Updates(updates).Error; err != nil {
			return err
		}
		locked.GatewayPaymentID = in.PaymentID

		if err := recordPaymentTx(tx, locked, models.PaymentRecord{
			OrderID:   locked.ID,
			Amount:    locked.TotalAmount,
			Method:    models.MethodGateway,
			Reference: in.PaymentID,
		}); err != nil {
			return err
		}

		if _, err := s.ensurePaymentHistoryTx(tx, locked, in.PaymentID); err != nil {
			return err
		}

		if err := s.lifecycle.TransitionTx(tx, locked, models.StatusPendingResources, actor, "payment confirmed", false); err != nil {
			return err
		}

		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	if replay {
		return order, nil
	}

	ctx := context.Background()
	if _, err := s.producer.Enqueue(ctx, events.TaskInvoiceRender, order.ID.String(), nil); err != nil {
		// Invoice rendering retries on the next explicit request.
		log.Printf("[Payment] failed to enqueue invoice render for %s: %v", order.OrderNumber, err)
	}
	s.notify.NotifyPaymentReceived(order.OrderNumber, order.TotalAmount.StringFixed(2), string(models.MethodGateway))
	s.analytics.Invalidate(ctx)
	return order, nil
}

// ensurePaymentHistoryTx creates the order's gateway transaction row if
// it does not exist yet (find-then-create keeps replays from erroring).
func (s *PaymentService) ensurePaymentHistoryTx(tx *gorm.DB, order *models.Order, paymentID string) (*models.PaymentHistory, error) {
	var history models.PaymentHistory
	err := tx.Where("order_id = ?", order.ID).First(&history).Error
	if err == nil {
		return &history, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	history = models.PaymentHistory{
		OrderID:       order.ID,
		PaymentMethod: string(models.MethodGateway),
		TransactionID: paymentID,
		Amount:        order.TotalAmount,
		Currency:      "INR",
		Status:        "paid",
		PaymentDate:   time.Now(),
		InvoiceNumber: utils.NewInvoiceNumber(time.Now()),
	}
	if err := tx.Create(&history).Error; err != nil {
		return nil, err
	}
	return &history, nil
}

// ListPayments returns the ledger for an order, newest first.
func (s *PaymentService) ListPayments(actor models.Actor, orderID uuid.UUID) (*models.Order, []models.PaymentRecord, error) {
	var order models.Order
	if err := s.db.First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, errs.NotFound("order")
		}
		return nil, nil, err
	}
	if order.UserID != actor.ID && !actor.Role.IsStaffOrAdmin() {
		return nil, nil, errs.Permission("you do not own this order")
	}

	var records []models.PaymentRecord
	if err := s.db.Where("order_id = ?", orderID).Order("created_at desc").Find(&records).Error; err != nil {
		return nil, nil, err
	}
	order.PaymentRecords = records
	return &order, records, nil
}
