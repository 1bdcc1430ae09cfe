package models

import "github.com/google/uuid"

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotifyOrderStatus     NotificationType = "order_status"
	NotifyPaymentReceived NotificationType = "payment_received"
	NotifyResourceNeeded  NotificationType = "resource_needed"
	NotifyAssignment      NotificationType = "assignment"
	NotifyGeneral         NotificationType = "general"
)

// Notification is a per-user in-app message. Delivery to external
// sinks is best effort and never blocks the write.
type Notification struct {
	BaseModel
	UserID  uuid.UUID        `gorm:"type:uuid;index" json:"user_id"`
	OrderID *uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	Type    NotificationType `gorm:"index" json:"type"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
	IsRead  bool             `gorm:"index;default:false" json:"is_read"`
}
