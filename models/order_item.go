package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order item statuses. Each item advances through the kitchen on its own:
// pending -> preparing -> ready -> delivered, with cancelled reachable from
// pending and preparing only.
const (
	ItemStatusPending   = "pending"
	ItemStatusPreparing = "preparing"
	ItemStatusReady     = "ready"
	ItemStatusDelivered = "delivered"
	ItemStatusCancelled = "cancelled"
)

var itemTransitions = map[string][]string{
	ItemStatusPending:   {ItemStatusPreparing, ItemStatusReady, ItemStatusCancelled},
	ItemStatusPreparing: {ItemStatusReady, ItemStatusCancelled},
	ItemStatusReady:     {ItemStatusDelivered},
	ItemStatusDelivered: {},
	ItemStatusCancelled: {},
}

// OrderItem is one line of an order. Name and UnitPrice are frozen copies
// taken from the menu at order time; Subtotal is always quantity x unit
// price, recomputed on every save path and never accepted from a client.
type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;index" json:"order_id"`
	MenuItemID uint            `gorm:"not null;index" json:"menu_item_id"`
	Name       string          `gorm:"not null" json:"name"`
	Quantity   int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Status     string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Notes      string          `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// ComputeSubtotal derives the item subtotal from quantity and unit price
func (i *OrderItem) ComputeSubtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CanTransitionItem reports whether the item state graph allows
// current -> next.
func CanTransitionItem(current, next string) bool {
	for _, s := range itemTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// IsValidItemStatus reports whether status is a known item status
func IsValidItemStatus(status string) bool {
	_, ok := itemTransitions[status]
	return ok
}

// IsDone reports whether the item needs no further kitchen work
func (i *OrderItem) IsDone() bool {
	return i.Status == ItemStatusReady || i.Status == ItemStatusDelivered
}
