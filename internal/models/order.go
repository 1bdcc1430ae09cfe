package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	StatusPendingPayment     OrderStatus = "pending_payment"
	StatusPendingResources   OrderStatus = "pending_resources"
	StatusReadyForProcessing OrderStatus = "ready_for_processing"
	StatusAssigned           OrderStatus = "assigned"
	StatusInProgress         OrderStatus = "in_progress"
	StatusCompleted          OrderStatus = "completed"
	StatusCancelled          OrderStatus = "cancelled"
	StatusOnHold             OrderStatus = "on_hold"
)

// OrderStatuses lists every valid status, used to validate manual edits.
var OrderStatuses = []OrderStatus{
	StatusPendingPayment,
	StatusPendingResources,
	StatusReadyForProcessing,
	StatusAssigned,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusOnHold,
}

// Valid reports whether s names a known status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further system transitions may leave s.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PaymentStatus is derived from the payment ledger.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentCOD      PaymentStatus = "cod"
)

// Valid reports whether s names a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPartial, PaymentPaid, PaymentRefunded, PaymentCOD:
		return true
	}
	return false
}

// OrderSource records which channel an order came in through.
type OrderSource string

const (
	SourceWebsite   OrderSource = "website"
	SourcePhoneCall OrderSource = "phone_call"
	SourceWhatsApp  OrderSource = "whatsapp"
	SourceWalkIn    OrderSource = "walk_in"
	SourceEmail     OrderSource = "email"
	SourceReferral  OrderSource = "referral"
	SourceOther     OrderSource = "other"
)

// Priority ranks orders for staff triage.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Order is the root purchase aggregate. Orders are never deleted;
// cancellation is a status.
type Order struct {
	BaseModel
	UserID             uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	User               *User           `json:"user,omitempty"`
	OrderNumber        string          `gorm:"uniqueIndex" json:"order_number"`
	TotalAmount        decimal.Decimal `gorm:"type:numeric(10,2)" json:"total_amount"`
	Status             OrderStatus     `gorm:"index;default:pending_payment" json:"status"`
	PaymentStatus      PaymentStatus   `gorm:"default:unpaid" json:"payment_status"`
	PaymentCompletedAt *time.Time      `json:"payment_completed_at"`
	GatewayOrderID     string          `json:"gateway_order_id"`
	GatewayPaymentID   string          `json:"gateway_payment_id"`
	GatewaySignature   string          `json:"-"`
	IsManualOrder      bool            `gorm:"index;default:false" json:"is_manual_order"`
	OrderSource        OrderSource     `gorm:"index;default:website" json:"order_source"`
	Priority           Priority        `gorm:"index;default:normal" json:"priority"`
	AdminNotes         string          `json:"admin_notes"`
	AssignedToID       *uuid.UUID      `gorm:"type:uuid;index" json:"assigned_to_id"`
	AssignedTo         *User           `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	CreatedByID        *uuid.UUID      `gorm:"type:uuid;index" json:"created_by_id"`
	CreatedBy          *User           `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	Items          []OrderItem          `json:"items,omitempty"`
	PaymentRecords []PaymentRecord      `json:"payment_records,omitempty"`
	StatusHistory  []OrderStatusHistory `json:"status_history,omitempty"`
	Checklist      *OrderChecklist      `json:"checklist,omitempty"`
	PaymentHistory *PaymentHistory      `json:"payment_history,omitempty"`
}

// AllResourcesUploaded reports whether every loaded item has its
// resources. Callers must have Items preloaded (or freshly queried
// inside the transaction that makes the decision).
func (o *Order) AllResourcesUploaded() bool {
	for _, item := range o.Items {
		if !item.ResourcesUploaded {
			return false
		}
	}
	return true
}

// ResourceUploadProgress returns the percentage of items with resources.
func (o *Order) ResourceUploadProgress() int {
	if len(o.Items) == 0 {
		return 100
	}
	uploaded := 0
	for _, item := range o.Items {
		if item.ResourcesUploaded {
			uploaded++
		}
	}
	return uploaded * 100 / len(o.Items)
}

// TotalPaid sums the loaded payment ledger.
func (o *Order) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, rec := range o.PaymentRecords {
		total = total.Add(rec.Amount)
	}
	return total
}

// Balance is total_amount minus total paid. A negative balance
// (overpayment) is representable on purpose.
func (o *Order) Balance() decimal.Decimal {
	return o.TotalAmount.Sub(o.TotalPaid())
}

// OrderItem is one purchased line with the unit price snapshotted at
// order-creation time. Owned exclusively by its Order.
type OrderItem struct {
	BaseModel
	OrderID           uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	Product           ProductRef      `gorm:"embedded" json:"product"`
	Quantity          int             `gorm:"default:1" json:"quantity"`
	Price             decimal.Decimal `gorm:"type:numeric(10,2)" json:"price"`
	ResourcesUploaded bool            `gorm:"default:false" json:"resources_uploaded"`

	Resource    *OrderResource              `gorm:"foreignKey:OrderItemID" json:"resource,omitempty"`
	Submissions []DynamicResourceSubmission `gorm:"foreignKey:OrderItemID" json:"submissions,omitempty"`
}

// Subtotal is the snapshotted price times quantity.
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderResource is the legacy fixed-shape resource set (one per item),
// kept alongside the dynamic field path. Either one satisfies the
// item's resource requirement.
type OrderResource struct {
	BaseModel
	OrderItemID     uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"order_item_id"`
	CandidatePhoto  string    `json:"candidate_photo"`
	PartyLogo       string    `json:"party_logo"`
	CampaignSlogan  string    `json:"campaign_slogan"`
	PreferredDate   string    `json:"preferred_date"`
	WhatsAppNumber  string    `json:"whatsapp_number"`
	AdditionalNotes string    `json:"additional_notes"`
}

// DynamicResourceSubmission holds exactly one typed value for one
// (order item, field definition) pair.
type DynamicResourceSubmission struct {
	BaseModel
	OrderItemID       uuid.UUID                `gorm:"type:uuid;uniqueIndex:idx_submission_item_field" json:"order_item_id"`
	FieldDefinitionID uuid.UUID                `gorm:"type:uuid;uniqueIndex:idx_submission_item_field" json:"field_definition_id"`
	FieldDefinition   *ResourceFieldDefinition `json:"field_definition,omitempty"`

	TextValue   *string `json:"text_value"`
	NumberValue *int64  `json:"number_value"`
	FileValue   *string `json:"file_value"`
}

// ValueKind tags the populated arm of a FieldValue.
type ValueKind int

const (
	ValueText ValueKind = iota
	ValueNumber
	ValueFile
)

// FieldValue is the tagged variant stored by a submission. Exactly one
// arm is populated, chosen by the field's declared type at construction.
type FieldValue struct {
	kind   ValueKind
	text   string
	number int64
	file   string
}

func TextValue(s string) FieldValue  { return FieldValue{kind: ValueText, text: s} }
func NumberValue(n int64) FieldValue { return FieldValue{kind: ValueNumber, number: n} }

func FileValue(handle string) FieldValue {
	return FieldValue{kind: ValueFile, file: handle}
}

// Kind returns which arm is populated.
func (v FieldValue) Kind() ValueKind { return v.kind }

// Text returns the text arm (empty unless Kind()==ValueText).
func (v FieldValue) Text() string { return v.text }

// Number returns the numeric arm.
func (v FieldValue) Number() int64 { return v.number }

// File returns the stored file handle.
func (v FieldValue) File() string { return v.file }

// SetValue writes the variant into the row, clearing the other columns
// so a row can never carry two values.
func (s *DynamicResourceSubmission) SetValue(v FieldValue) {
	s.TextValue, s.NumberValue, s.FileValue = nil, nil, nil
	switch v.kind {
	case ValueText:
		text := v.text
		s.TextValue = &text
	case ValueNumber:
		number := v.number
		s.NumberValue = &number
	case ValueFile:
		file := v.file
		s.FileValue = &file
	}
}

// Value reconstructs the tagged variant from the populated column.
func (s *DynamicResourceSubmission) Value() (FieldValue, bool) {
	switch {
	case s.TextValue != nil:
		return TextValue(*s.TextValue), true
	case s.NumberValue != nil:
		return NumberValue(*s.NumberValue), true
	case s.FileValue != nil:
		return FileValue(*s.FileValue), true
	}
	return FieldValue{}, false
}

// OrderChecklist is generated once per order (1:1).
type OrderChecklist struct {
	BaseModel
	OrderID uuid.UUID       `gorm:"type:uuid;uniqueIndex" json:"order_id"`
	Items   []ChecklistItem `gorm:"foreignKey:ChecklistID" json:"items,omitempty"`
}

// ChecklistItem is one fulfilment task on an order checklist.
type ChecklistItem struct {
	BaseModel
	ChecklistID    uuid.UUID  `gorm:"type:uuid;index" json:"checklist_id"`
	TemplateItemID *uuid.UUID `gorm:"type:uuid" json:"template_item_id"`
	Description    string     `json:"description"`
	Completed      bool       `gorm:"default:false" json:"completed"`
	CompletedAt    *time.Time `json:"completed_at"`
	CompletedByID  *uuid.UUID `gorm:"type:uuid" json:"completed_by_id"`
	CompletedBy    *User      `gorm:"foreignKey:CompletedByID" json:"completed_by,omitempty"`
	OrderIndex     int        `gorm:"index" json:"order_index"`
	IsOptional     bool       `gorm:"default:false" json:"is_optional"`
}

// PaymentMethod names the channel a payment arrived through.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodUPI          PaymentMethod = "upi"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCard         PaymentMethod = "card"
	MethodCheque       PaymentMethod = "cheque"
	MethodGateway      PaymentMethod = "razorpay"
	MethodOther        PaymentMethod = "other"
)

// Valid reports whether m names a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodUPI, MethodBankTransfer, MethodCard, MethodCheque, MethodGateway, MethodOther:
		return true
	}
	return false
}

// PaymentRecord is one append-only ledger entry. Records are never
// mutated or deleted; corrections are added as further records.
type PaymentRecord struct {
	BaseModel
	OrderID      uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	Amount       decimal.Decimal `gorm:"type:numeric(10,2)" json:"amount"`
	Method       PaymentMethod   `json:"payment_method"`
	Reference    string          `json:"payment_reference"`
	ProofHandle  string          `json:"payment_proof"`
	RecordedByID *uuid.UUID      `gorm:"type:uuid" json:"recorded_by"`
	Notes        string          `json:"notes"`
}

// PaymentHistory stores the gateway transaction and invoice details for
// an order that went through the online payment path (one per order).
type PaymentHistory struct {
	BaseModel
	OrderID            uuid.UUID       `gorm:"type:uuid;uniqueIndex" json:"order_id"`
	PaymentMethod      string          `json:"payment_method"`
	TransactionID      string          `json:"transaction_id"`
	Amount             decimal.Decimal `gorm:"type:numeric(10,2)" json:"amount"`
	Currency           string          `gorm:"default:INR" json:"currency"`
	Status             string          `gorm:"default:pending" json:"status"`
	PaymentDate        time.Time       `json:"payment_date"`
	InvoiceGeneratedAt *time.Time      `json:"invoice_generated_at"`
	InvoiceNumber      string          `gorm:"uniqueIndex" json:"invoice_number"`
	Metadata           []byte          `gorm:"type:jsonb" json:"metadata"`
}

// OrderStatusHistory is the append-only audit trail of transitions.
// Every transition writes exactly one row, atomically with the status.
type OrderStatusHistory struct {
	BaseModel
	OrderID        uuid.UUID   `gorm:"type:uuid;index" json:"order_id"`
	OldStatus      OrderStatus `json:"old_status"`
	NewStatus      OrderStatus `json:"new_status"`
	ChangedByID    *uuid.UUID  `gorm:"type:uuid" json:"changed_by"`
	Reason         string      `json:"reason"`
	IsManualChange bool        `gorm:"default:false" json:"is_manual_change"`
}
