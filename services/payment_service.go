package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/utils"
)

// PaymentService settles orders: it reconciles the cashier's declared
// amount (and any split shares) against the authoritative order total,
// records the payment, moves the order to paid and frees the table - all
// inside one transaction, so a failure anywhere leaves no partial payment
// or split rows behind.
type PaymentService struct {
	db        *gorm.DB
	orders    *OrderService
	publisher NotificationPublisher
}

// NewPaymentService creates a payment service
func NewPaymentService(db *gorm.DB, orders *OrderService, publisher NotificationPublisher) *PaymentService {
	return &PaymentService{db: db, orders: orders, publisher: publisher}
}

// SplitInput is one payer's declared share of a split settlement
type SplitInput struct {
	PayerName string
	Amount    decimal.Decimal
	Method    string
}

// ProcessPaymentInput carries a settlement request
type ProcessPaymentInput struct {
	OrderID   uint
	CashierID uint
	Amount    decimal.Decimal
	Method    string
	TipAmount decimal.Decimal
	Notes     string
	Splits    []SplitInput
}

// ProcessPayment validates and records a settlement. The declared amount
// must match the order total within the reconciliation epsilon; with
// splits, the shares must additionally sum to the same total and the
// payment is recorded under the "split" method sentinel. The tip rides on
// the order and is excluded from reconciliation. Only delivered orders can
// be settled; a second cashier racing on the same order loses the guarded
// status transition and gets a conflict.
func (s *PaymentService) ProcessPayment(ctx context.Context, input ProcessPaymentInput) (*models.Payment, error) {
	if len(input.Splits) == 0 && !models.IsValidPaymentMethod(input.Method) {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid payment method %q", input.Method)}
	}
	if input.TipAmount.IsNegative() {
		return nil, &ValidationError{Message: "tip amount cannot be negative"}
	}

	var payment models.Payment
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Table").First(&order, input.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "order", ID: input.OrderID}
			}
			return fmt.Errorf("failed to load order %d: %w", input.OrderID, err)
		}
		if order.Status != models.OrderStatusDelivered {
			return &ConflictError{Message: fmt.Sprintf("order %s is %s, only delivered orders can be settled",
				order.OrderNumber, order.Status)}
		}

		var cashier models.User
		if err := tx.First(&cashier, input.CashierID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "user", ID: input.CashierID}
			}
			return fmt.Errorf("failed to load cashier: %w", err)
		}

		if !utils.WithinEpsilon(input.Amount, order.TotalAmount) {
			return &AmountMismatchError{Expected: order.TotalAmount, Received: input.Amount}
		}

		method := input.Method
		var splits []models.PaymentSplit
		if len(input.Splits) > 0 {
			splitSum := decimal.Zero
			for _, in := range input.Splits {
				if in.PayerName == "" {
					return &ValidationError{Message: "every split needs a payer name"}
				}
				if !models.IsValidPaymentMethod(in.Method) {
					return &ValidationError{Message: fmt.Sprintf("invalid split payment method %q", in.Method)}
				}
				if !in.Amount.IsPositive() {
					return &ValidationError{Message: "split amounts must be positive"}
				}
				splitSum = splitSum.Add(in.Amount)
				splits = append(splits, models.PaymentSplit{
					PayerName: in.PayerName,
					Amount:    in.Amount,
					Method:    in.Method,
					Status:    models.PaymentStatusCompleted,
				})
			}
			if !utils.WithinEpsilon(splitSum, order.TotalAmount) {
				return &SplitMismatchError{Expected: order.TotalAmount, Received: splitSum}
			}
			method = models.PaymentMethodSplit
		}

		now := time.Now()
		payment = models.Payment{
			OrderID:   order.ID,
			CashierID: cashier.ID,
			Amount:    order.TotalAmount,
			Method:    method,
			Status:    models.PaymentStatusCompleted,
			PaidAt:    &now,
			Notes:     input.Notes,
			Splits:    splits,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		updates := map[string]interface{}{
			"cashier_id":     cashier.ID,
			"payment_method": method,
			"tip_amount":     input.TipAmount,
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order %d: %w", order.ID, err)
		}

		// Guarded transition to paid stamps completion and frees the table
		if err := s.orders.advanceInTx(tx, &order, models.OrderStatusPaid); err != nil {
			return err
		}
		payment.Cashier = cashier
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, TopicCashier, EventPaymentProcessed, map[string]interface{}{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"amount":      utils.FormatMoney(payment.Amount),
		"cashierName": payment.Cashier.Name,
		"tableId":     order.TableID,
		"timestamp":   payment.PaidAt,
	})
	return &payment, nil
}

// GetSettleable returns delivered orders with items, table and waiter
// joined, for the cashier's settlement screen. Read-only.
func (s *PaymentService) GetSettleable(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Table").
		Preload("Waiter").
		Where("status = ?", models.OrderStatusDelivered).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load settleable orders: %w", err)
	}
	return orders, nil
}

// History returns completed payments (with splits and cashier) in a time
// window, newest first. Read-only.
func (s *PaymentService) History(ctx context.Context, from, to time.Time) ([]models.Payment, error) {
	if to.Before(from) {
		return nil, &ValidationError{Message: "history range end precedes its start"}
	}
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Preload("Splits").
		Preload("Cashier").
		Where("status = ? AND paid_at >= ? AND paid_at <= ?", models.PaymentStatusCompleted, from, to).
		Order("paid_at desc").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load payment history: %w", err)
	}
	return payments, nil
}
