package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/electioncart/internal/errs"
	"github.com/example/electioncart/internal/events"
	"github.com/example/electioncart/internal/models"
	"github.com/example/electioncart/internal/utils"
)

// InvoiceService hands invoice rendering off to the background worker.
type InvoiceService struct {
	db       *gorm.DB
	producer *events.TaskProducer
}

func NewInvoiceService(db *gorm.DB, producer *events.TaskProducer) *InvoiceService {
	return &InvoiceService{db: db, producer: producer}
}

// InvoiceRequest is the handle returned while the renderer works.
type InvoiceRequest struct {
	TaskID        string `json:"task_id"`
	InvoiceNumber string `json:"invoice_number"`
	Status        string `json:"status"`
}

// Request enqueues invoice rendering for an order and returns the task
// handle. Orders are eligible once payment is confirmed, either through
// a paid ledger or an existing payment history entry.
func (s *InvoiceService) Request(actor models.Actor, orderID uuid.UUID) (*InvoiceRequest, error) {
	var order models.Order
	if err := s.db.First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFound("order")
		}
		return nil, err
	}
	if order.UserID != actor.ID && !actor.Role.IsStaffOrAdmin() {
		return nil, errs.Permission("you do not own this order")
	}

	var history models.PaymentHistory
	err := s.db.Where("order_id = ?", orderID).First(&history).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if err == gorm.ErrRecordNotFound && order.PaymentStatus != models.PaymentPaid {
		return nil, errs.Conflict("invoices are only available once payment is confirmed")
	}

	if err == gorm.ErrRecordNotFound {
		history = models.PaymentHistory{
			OrderID:       order.ID,
			PaymentMethod: "manual",
			Amount:        order.TotalAmount,
			Currency:      "INR",
			Status:        "paid",
			PaymentDate:   time.Now(),
			InvoiceNumber: utils.NewInvoiceNumber(time.Now()),
		}
		if err := s.db.Create(&history).Error; err != nil {
			return nil, err
		}
	}

	taskID, err := s.producer.Enqueue(context.Background(), events.TaskInvoiceRender, order.ID.String(), map[string]string{
		"invoice_number": history.InvoiceNumber,
	})
	if err != nil {
		return nil, err
	}

	if history.InvoiceGeneratedAt == nil {
		now := time.Now()
		if err := s.db.Model(&history).Update("invoice_generated_at", now).Error; err != nil {
			return nil, err
		}
	}

	return &InvoiceRequest{
		TaskID:        taskID,
		InvoiceNumber: history.InvoiceNumber,
		Status:        "queued",
	}, nil
}
