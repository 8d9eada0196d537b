package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusCancelled = "cancelled"
)

// Payment records the settlement of one order. An order can in principle
// have several payment attempts, but only one completes it. Amount must
// reconcile with the order total at settlement time.
type Payment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	Order     Order           `gorm:"foreignKey:OrderID" json:"-"`
	CashierID uint            `gorm:"not null;index" json:"cashier_id"`
	Cashier   User            `gorm:"foreignKey:CashierID" json:"cashier"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method    string          `gorm:"type:varchar(20);not null" json:"method"` // cash, card, transfer, split
	Status    string          `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	Notes     string          `gorm:"type:text" json:"notes"`
	Splits    []PaymentSplit  `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE" json:"splits,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

// PaymentSplit is one payer's share of a split payment. Splits are created
// as one batch with their payment and the batch's amounts must sum to the
// payment amount; PayerName is free text, not a user account.
type PaymentSplit struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	PaymentID uint            `gorm:"not null;index" json:"payment_id"`
	PayerName string          `gorm:"not null" json:"payer_name"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method    string          `gorm:"type:varchar(20);not null" json:"method"` // cash, card, transfer
	Status    string          `gorm:"type:varchar(20);not null;default:'completed'" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the PaymentSplit model
func (PaymentSplit) TableName() string {
	return "payment_splits"
}

// IsValidPaymentMethod reports whether method can be used for a single
// payment or a split share. The "split" sentinel is only valid on the
// order/payment itself, never on an individual share.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer:
		return true
	}
	return false
}
