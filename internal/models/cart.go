package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the single active cart per customer.
type Cart struct {
	BaseModel
	UserID uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Items  []CartItem `json:"items,omitempty"`
}

// Total sums the loaded items at current catalog prices.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// CartItem is one product line in a cart. Price mirrors the catalog
// price at read time; the durable snapshot is taken at checkout.
type CartItem struct {
	BaseModel
	CartID   uuid.UUID       `gorm:"type:uuid;index:idx_cart_product" json:"cart_id"`
	Product  ProductRef      `gorm:"embedded" json:"product"`
	Quantity int             `gorm:"default:1" json:"quantity"`
	Price    decimal.Decimal `gorm:"type:numeric(10,2)" json:"price"`
}
