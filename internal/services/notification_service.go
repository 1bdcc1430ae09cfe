package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/electioncart/internal/models"
)

// NotificationService writes in-app notifications and mirrors a subset
// to the admin Telegram chat. Delivery is best effort: failures are
// logged and never returned to callers.
type NotificationService struct {
	db          *gorm.DB
	botToken    string
	adminChatID string
}

// NewNotificationService creates the service. Empty Telegram
// credentials disable the mirror.
func NewNotificationService(db *gorm.DB, botToken, adminChatID string) *NotificationService {
	return &NotificationService{
		db:          db,
		botToken:    botToken,
		adminChatID: adminChatID,
	}
}

// Notify writes one in-app notification for a user.
func (s *NotificationService) Notify(userID uuid.UUID, orderID *uuid.UUID, kind models.NotificationType, title, message string) {
	n := models.Notification{
		UserID:  userID,
		OrderID: orderID,
		Type:    kind,
		Title:   title,
		Message: message,
	}
	if err := s.db.Create(&n).Error; err != nil {
		log.Printf("[Notify] failed to store notification for %s: %v", userID, err)
	}
}

// NotifyAdmins fans one notification out to every active admin.
func (s *NotificationService) NotifyAdmins(orderID *uuid.UUID, kind models.NotificationType, title, message string) {
	var admins []models.User
	if err := s.db.Where("role = ? AND is_active", models.RoleAdmin).Find(&admins).Error; err != nil {
		log.Printf("[Notify] failed to load admins: %v", err)
		return
	}
	for _, admin := range admins {
		s.Notify(admin.ID, orderID, kind, title, message)
	}
}

// OrderDigest is the order summary mirrored to Telegram.
type OrderDigest struct {
	OrderNumber   string
	CustomerName  string
	CustomerPhone string
	TotalAmount   string
	Source        string
	Status        string
	Lines         []string
}

// NotifyNewOrder mirrors a new-order digest to the admin chat.
func (s *NotificationService) NotifyNewOrder(d OrderDigest) {
	var items strings.Builder
	for i, line := range d.Lines {
		items.WriteString(fmt.Sprintf("%d. %s\n", i+1, line))
	}

	message := fmt.Sprintf(`<b>New order %s</b>
Customer: %s (%s)
Source: %s
Status: %s
%s
Total: %s`,
		d.OrderNumber,
		d.CustomerName,
		d.CustomerPhone,
		d.Source,
		d.Status,
		items.String(),
		d.TotalAmount,
	)

	s.sendToAdmin(strings.TrimSpace(message))
}

// NotifyPaymentReceived mirrors a payment confirmation to the admin chat.
func (s *NotificationService) NotifyPaymentReceived(orderNumber, amount, method string) {
	message := fmt.Sprintf(`<b>Payment received</b>
Order: %s
Amount: %s
Method: %s`,
		orderNumber, amount, method,
	)
	s.sendToAdmin(strings.TrimSpace(message))
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (s *NotificationService) sendToAdmin(text string) {
	if s.botToken == "" || s.adminChatID == "" {
		return
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    s.adminChatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		log.Printf("[Telegram] marshal: %v", err)
		return
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] failed to send message: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] unexpected status: %d", resp.StatusCode)
	}
}
