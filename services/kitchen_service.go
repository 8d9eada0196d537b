package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/comanda-app/comanda-api/models"
)

// KitchenService drives the per-item preparation state machine and the
// fan-in rule that makes an order ready once its last item is.
type KitchenService struct {
	db        *gorm.DB
	orders    *OrderService
	publisher NotificationPublisher
}

// NewKitchenService creates a kitchen service
func NewKitchenService(db *gorm.DB, orders *OrderService, publisher NotificationPublisher) *KitchenService {
	return &KitchenService{db: db, orders: orders, publisher: publisher}
}

// AdvanceItem moves one item along its state graph. Starting the first item
// pulls the order into preparing. When the last active item reaches ready
// or delivered the order itself transitions to ready and the waiters topic
// is notified - exactly once, because the order transition is guarded on
// its stored status. An order whose items were all cancelled is not
// advanced: cancellation does not count as completion.
func (s *KitchenService) AdvanceItem(ctx context.Context, itemID uint, newStatus string) (*models.OrderItem, error) {
	if !models.IsValidItemStatus(newStatus) {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid item status %q", newStatus)}
	}

	var item models.OrderItem
	var readyOrder *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "order item", ID: itemID}
			}
			return fmt.Errorf("failed to load item %d: %w", itemID, err)
		}
		if !models.CanTransitionItem(item.Status, newStatus) {
			return &InvalidTransitionError{From: item.Status, To: newStatus}
		}

		res := tx.Model(&models.OrderItem{}).
			Where("id = ? AND status = ?", item.ID, item.Status).
			Update("status", newStatus)
		if res.Error != nil {
			return fmt.Errorf("failed to update item %d status: %w", item.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost a race with another kitchen screen; surface as an
			// invalid transition from whatever is stored now
			var current models.OrderItem
			if err := tx.First(&current, item.ID).Error; err == nil {
				return &InvalidTransitionError{From: current.Status, To: newStatus}
			}
			return &InvalidTransitionError{From: item.Status, To: newStatus}
		}
		item.Status = newStatus

		var order models.Order
		if err := tx.First(&order, item.OrderID).Error; err != nil {
			return fmt.Errorf("failed to load order %d: %w", item.OrderID, err)
		}

		// First item on the burner pulls the whole order into preparing
		if newStatus == models.ItemStatusPreparing && order.Status == models.OrderStatusPending {
			if err := s.orders.advanceInTx(tx, &order, models.OrderStatusPreparing); err != nil {
				return err
			}
		}

		ready, err := s.orderIsReady(tx, order.ID)
		if err != nil {
			return err
		}
		if ready && order.CanTransition(models.OrderStatusReady) {
			if err := s.orders.advanceInTx(tx, &order, models.OrderStatusReady); err != nil {
				// Another transition won in the meantime; the fan-in
				// condition simply no longer applies
				var ite *InvalidTransitionError
				if errors.As(err, &ite) {
					return nil
				}
				return err
			}
			readyOrder = &order
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if readyOrder != nil {
		s.orders.publishReady(ctx, readyOrder)
	}
	return &item, nil
}

// orderIsReady evaluates the fan-in condition on a consistent snapshot of
// the order's items: every non-cancelled item is ready or delivered, and at
// least one item survived cancellation.
func (s *KitchenService) orderIsReady(tx *gorm.DB, orderID uint) (bool, error) {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return false, fmt.Errorf("failed to load items of order %d: %w", orderID, err)
	}

	active := 0
	for i := range items {
		if items[i].Status == models.ItemStatusCancelled {
			continue
		}
		active++
		if !items[i].IsDone() {
			return false, nil
		}
	}
	return active > 0, nil
}

// QueueEntry is one item on the kitchen display, joined with its order
type QueueEntry struct {
	Item        models.OrderItem `json:"item"`
	OrderNumber string           `json:"order_number"`
	TableNumber *int             `json:"table_number,omitempty"`
	OrderNotes  string           `json:"order_notes,omitempty"`
}

// ListQueue returns all pending and preparing items of open orders, oldest
// first, for the kitchen display.
func (s *KitchenService) ListQueue(ctx context.Context) ([]QueueEntry, error) {
	var items []models.OrderItem
	err := s.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.status IN ?", []string{models.ItemStatusPending, models.ItemStatusPreparing}).
		Where("orders.status IN ?", []string{models.OrderStatusPending, models.OrderStatusPreparing}).
		Where("orders.deleted_at IS NULL").
		Order("order_items.created_at asc").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load kitchen queue: %w", err)
	}

	entries := make([]QueueEntry, 0, len(items))
	for _, item := range items {
		var order models.Order
		if err := s.db.WithContext(ctx).Preload("Table").First(&order, item.OrderID).Error; err != nil {
			return nil, fmt.Errorf("failed to load order %d: %w", item.OrderID, err)
		}
		entry := QueueEntry{Item: item, OrderNumber: order.OrderNumber, OrderNotes: order.Notes}
		if order.Table != nil {
			entry.TableNumber = &order.Table.Number
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
