package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/utils"
)

// OrderService owns the order aggregate: creation with frozen menu prices,
// the order-level status state machine, total derivation and deletion.
type OrderService struct {
	db        *gorm.DB
	tables    *TableService
	publisher NotificationPublisher
}

// NewOrderService creates an order service. The publisher is injected so
// event fan-out is explicit and testable, never a process-wide global.
func NewOrderService(db *gorm.DB, tables *TableService, publisher NotificationPublisher) *OrderService {
	return &OrderService{db: db, tables: tables, publisher: publisher}
}

// OrderItemInput is one requested line in a creation request
type OrderItemInput struct {
	MenuItemID uint
	Quantity   int
	Notes      string
}

// CreateOrderInput carries everything a waiter submits for a new order
type CreateOrderInput struct {
	TableID      *uint
	WaiterID     uint
	CustomerName string
	PartySize    int
	Notes        string
	Items        []OrderItemInput
}

// Create validates the submission, freezes each item's name and unit price
// from the menu, derives subtotals and the order total, occupies the table
// and announces the order to the kitchen topic. Order, items and table
// occupation commit in one transaction; the notification goes out after
// commit.
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, &ValidationError{Message: "an order needs at least one item"}
	}
	if input.PartySize <= 0 {
		input.PartySize = 1
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, &ValidationError{Message: "item quantity must be positive"}
		}
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var waiter models.User
		if err := tx.First(&waiter, input.WaiterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "user", ID: input.WaiterID}
			}
			return fmt.Errorf("failed to load waiter: %w", err)
		}

		// Freeze name and price from the menu as it stands right now
		items := make([]models.OrderItem, 0, len(input.Items))
		subtotals := make([]decimal.Decimal, 0, len(input.Items))
		for _, in := range input.Items {
			var menuItem models.MenuItem
			if err := tx.First(&menuItem, in.MenuItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &ValidationError{Message: fmt.Sprintf("menu item %d does not exist", in.MenuItemID)}
				}
				return fmt.Errorf("failed to load menu item %d: %w", in.MenuItemID, err)
			}
			if !menuItem.IsAvailable {
				return &ValidationError{Message: fmt.Sprintf("menu item %q is not available", menuItem.Name)}
			}

			item := models.OrderItem{
				MenuItemID: menuItem.ID,
				Name:       menuItem.Name,
				Quantity:   in.Quantity,
				UnitPrice:  menuItem.Price,
				Status:     models.ItemStatusPending,
				Notes:      in.Notes,
			}
			item.Subtotal = utils.MulQuantity(item.UnitPrice, item.Quantity)
			subtotals = append(subtotals, item.Subtotal)
			items = append(items, item)
		}
		total := utils.SumMoney(subtotals...)

		order = models.Order{
			TableID:      input.TableID,
			WaiterID:     waiter.ID,
			CustomerName: input.CustomerName,
			PartySize:    input.PartySize,
			Notes:        input.Notes,
			Status:       models.OrderStatusPending,
			TotalAmount:  total,
			TipAmount:    decimal.Zero,
			Items:        items,
		}
		if err := s.createWithOrderNumber(tx, &order); err != nil {
			return err
		}

		if input.TableID != nil {
			if err := s.tables.withTx(tx).Occupy(ctx, *input.TableID, order.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	loaded, err := s.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, TopicKitchen, EventNewOrder, map[string]interface{}{
		"orderId":     loaded.ID,
		"orderNumber": loaded.OrderNumber,
		"items":       loaded.Items,
		"waiterName":  loaded.Waiter.Name,
		"tableNumber": tableNumberOf(loaded),
	})
	return loaded, nil
}

// createWithOrderNumber assigns a human-readable order number derived from
// the date and a per-day sequence, then inserts the order. The number has a
// unique index, so a race between two creations surfaces as a duplicate-key
// error and we retry with the next sequence value instead of overwriting.
func (s *OrderService) createWithOrderNumber(tx *gorm.DB, order *models.Order) error {
	today := time.Now().Format("20060102")
	var count int64
	if err := tx.Model(&models.Order{}).Unscoped().
		Where("order_number LIKE ?", fmt.Sprintf("ORD-%s-%%", today)).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count today's orders: %w", err)
	}

	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		order.OrderNumber = fmt.Sprintf("ORD-%s-%04d", today, count+int64(attempt)+1)
		err := tx.Create(order).Error
		if err == nil {
			return nil
		}
		if !isDuplicateKey(err) {
			return fmt.Errorf("failed to create order: %w", err)
		}
		order.ID = 0
	}
	return fmt.Errorf("failed to allocate a unique order number after %d attempts", maxAttempts)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// AdvanceStatus moves an order along the state graph. The update is guarded
// on the current status, so two concurrent calls on the same order cannot
// both win. Entering paid stamps the completion time and frees the table;
// entering ready notifies the waiters topic; cancelling an order also
// cancels its still-active items and frees the table.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID uint, newStatus string) (*models.Order, error) {
	if !models.IsValidOrderStatus(newStatus) {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid order status %q", newStatus)}
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "order", ID: orderID}
			}
			return fmt.Errorf("failed to load order %d: %w", orderID, err)
		}
		if !order.CanTransition(newStatus) {
			return &InvalidTransitionError{From: order.Status, To: newStatus}
		}
		return s.advanceInTx(tx, &order, newStatus)
	})
	if err != nil {
		return nil, err
	}

	if newStatus == models.OrderStatusReady {
		s.publishReady(ctx, &order)
	}
	return &order, nil
}

// advanceInTx applies one already-validated transition inside an open
// transaction. The guard on the stored status serializes concurrent
// transitions; losing the race yields InvalidTransitionError.
func (s *OrderService) advanceInTx(tx *gorm.DB, order *models.Order, newStatus string) error {
	updates := map[string]interface{}{"status": newStatus}
	if newStatus == models.OrderStatusPaid {
		now := time.Now()
		updates["completed_at"] = now
		order.CompletedAt = &now
	}

	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update order %d status: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &InvalidTransitionError{From: order.Status, To: newStatus}
	}

	if newStatus == models.OrderStatusCancelled {
		if err := tx.Model(&models.OrderItem{}).
			Where("order_id = ? AND status IN ?", order.ID,
				[]string{models.ItemStatusPending, models.ItemStatusPreparing}).
			Update("status", models.ItemStatusCancelled).Error; err != nil {
			return fmt.Errorf("failed to cancel items of order %d: %w", order.ID, err)
		}
	}

	if (newStatus == models.OrderStatusPaid || newStatus == models.OrderStatusCancelled) && order.TableID != nil {
		if err := s.tables.withTx(tx).Free(contextOf(tx), *order.TableID); err != nil {
			return err
		}
	}

	order.Status = newStatus
	return nil
}

func (s *OrderService) publishReady(ctx context.Context, order *models.Order) {
	publishEvent(ctx, s.publisher, TopicWaiters, EventOrderReady, map[string]interface{}{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"tableId":     order.TableID,
	})
}

// RecomputeTotal re-derives every item subtotal from quantity and unit
// price, re-sums them into the order total and persists both. This is the
// only way the stored total ever changes; it is never taken from a client.
func (s *OrderService) RecomputeTotal(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "order", ID: orderID}
			}
			return fmt.Errorf("failed to load order %d: %w", orderID, err)
		}

		subtotals := make([]decimal.Decimal, 0, len(order.Items))
		for i := range order.Items {
			item := &order.Items[i]
			subtotal := item.ComputeSubtotal()
			if !subtotal.Equal(item.Subtotal) {
				if err := tx.Model(item).Update("subtotal", subtotal).Error; err != nil {
					return fmt.Errorf("failed to update item %d subtotal: %w", item.ID, err)
				}
				item.Subtotal = subtotal
			}
			subtotals = append(subtotals, subtotal)
		}
		total := utils.SumMoney(subtotals...)

		if err := tx.Model(&order).Update("total_amount", total).Error; err != nil {
			return fmt.Errorf("failed to update order %d total: %w", orderID, err)
		}
		order.TotalAmount = total
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Delete removes an order and its items together. Paid orders are history
// and cannot be deleted; the table, if still held, is freed.
func (s *OrderService) Delete(ctx context.Context, orderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "order", ID: orderID}
			}
			return fmt.Errorf("failed to load order %d: %w", orderID, err)
		}
		if order.Status == models.OrderStatusPaid {
			return &ConflictError{Message: fmt.Sprintf("order %s is paid and cannot be deleted", order.OrderNumber)}
		}

		if order.TableID != nil {
			if err := s.tables.withTx(tx).Free(ctx, *order.TableID); err != nil {
				return err
			}
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete items of order %d: %w", orderID, err)
		}
		if err := tx.Delete(&order).Error; err != nil {
			return fmt.Errorf("failed to delete order %d: %w", orderID, err)
		}
		return nil
	})
}

// Get loads one order with its items and relations
func (s *OrderService) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Waiter").
		Preload("Cashier").
		Preload("Table").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "order", ID: orderID}
		}
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	return &order, nil
}

// List returns orders, optionally filtered by status, newest first
func (s *OrderService) List(ctx context.Context, status string) ([]models.Order, error) {
	q := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Waiter").
		Preload("Table").
		Order("created_at desc")
	if status != "" {
		if !models.IsValidOrderStatus(status) {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid order status %q", status)}
		}
		q = q.Where("status = ?", status)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func tableNumberOf(order *models.Order) interface{} {
	if order.Table == nil {
		return nil
	}
	return order.Table.Number
}

// contextOf recovers the context bound to a gorm transaction handle
func contextOf(tx *gorm.DB) context.Context {
	if tx.Statement != nil && tx.Statement.Context != nil {
		return tx.Statement.Context
	}
	return context.Background()
}
