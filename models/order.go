package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses. An order moves pending -> preparing -> ready -> delivered
// -> paid; cancelled is reachable from every non-paid state.
const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// Payment method recorded on the order. "split" is a sentinel meaning the
// settlement was divided across multiple payers (see PaymentSplit).
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
	PaymentMethodSplit    = "split"
)

// orderTransitions is the order-level state graph. Keys are current states,
// values the set of legal next states.
var orderTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusPreparing, OrderStatusReady, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {},
	OrderStatusCancelled: {},
}

// Order represents a single customer visit's set of requested dishes,
// tracked through preparation to payment.
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderNumber   string          `gorm:"uniqueIndex;not null" json:"order_number"`
	TableID       *uint           `gorm:"index" json:"table_id,omitempty"`
	Table         *Table          `gorm:"foreignKey:TableID" json:"table,omitempty"`
	WaiterID      uint            `gorm:"not null;index" json:"waiter_id"`
	Waiter        User            `gorm:"foreignKey:WaiterID" json:"waiter"`
	CashierID     *uint           `gorm:"index" json:"cashier_id,omitempty"` // set at settlement
	Cashier       *User           `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`
	CustomerName  string          `json:"customer_name"`
	PartySize     int             `gorm:"not null;default:1" json:"party_size"`
	Notes         string          `gorm:"type:text" json:"notes"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"` // derived, never client-set
	TipAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"tip_amount"`
	PaymentMethod string          `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// CanTransition reports whether an order may move from its current status
// to next per the state graph.
func (o *Order) CanTransition(next string) bool {
	return CanTransitionOrder(o.Status, next)
}

// CanTransitionOrder reports whether the order state graph allows
// current -> next.
func CanTransitionOrder(current, next string) bool {
	for _, s := range orderTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// IsValidOrderStatus reports whether status is a known order status
func IsValidOrderStatus(status string) bool {
	_, ok := orderTransitions[status]
	return ok
}

// IsTerminal reports whether the order has reached a terminal state
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusPaid || o.Status == OrderStatusCancelled
}
