package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/comanda-app/comanda-api/models"
)

// TableService owns table allocation: binding an order to a physical table
// and flipping availability. Occupy and free are single guarded
// read-modify-write statements, so a table can never end up occupied with
// no current order, and two orders can never win the same table.
type TableService struct {
	db *gorm.DB
}

// NewTableService creates a table service on the given database handle
func NewTableService(db *gorm.DB) *TableService {
	return &TableService{db: db}
}

// Occupy binds an order to a table and marks it occupied. Fails with
// NotFoundError if the table does not exist and ConflictError if another
// order already holds it or the table is under maintenance.
func (s *TableService) Occupy(ctx context.Context, tableID, orderID uint) error {
	res := s.db.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND is_active = ? AND status IN ?", tableID, true,
			[]string{models.TableStatusAvailable, models.TableStatusReserved}).
		Updates(map[string]interface{}{
			"status":           models.TableStatusOccupied,
			"current_order_id": orderID,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to occupy table %d: %w", tableID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing table from one we lost the race for
		var table models.Table
		if err := s.db.WithContext(ctx).First(&table, tableID).Error; err != nil {
			return &NotFoundError{Resource: "table", ID: tableID}
		}
		return &ConflictError{Message: fmt.Sprintf("table %d is not available (status: %s)", tableID, table.Status)}
	}
	return nil
}

// Free releases a table back to available and clears its current order in
// the same write. Freeing an already-free table is a no-op, not an error.
func (s *TableService) Free(ctx context.Context, tableID uint) error {
	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "table", ID: tableID}
		}
		return fmt.Errorf("failed to load table %d: %w", tableID, err)
	}

	res := s.db.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND status = ?", tableID, models.TableStatusOccupied).
		Updates(map[string]interface{}{
			"status":           models.TableStatusAvailable,
			"current_order_id": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to free table %d: %w", tableID, res.Error)
	}
	return nil
}

// ChangeStatus handles administrative transitions (reserved, maintenance)
// outside the order flow. Moving a table out of occupied through this path
// also clears the current-order reference; moving it into occupied is not
// allowed here because occupied requires an order (use Occupy).
func (s *TableService) ChangeStatus(ctx context.Context, tableID uint, newStatus string) (*models.Table, error) {
	if !models.IsValidTableStatus(newStatus) {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid table status %q", newStatus)}
	}
	if newStatus == models.TableStatusOccupied {
		return nil, &ValidationError{Message: "a table becomes occupied by assigning an order, not directly"}
	}

	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "table", ID: tableID}
		}
		return nil, fmt.Errorf("failed to load table %d: %w", tableID, err)
	}

	res := s.db.WithContext(ctx).Model(&models.Table{}).
		Where("id = ?", tableID).
		Updates(map[string]interface{}{
			"status":           newStatus,
			"current_order_id": nil,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update table %d: %w", tableID, res.Error)
	}

	table.Status = newStatus
	table.CurrentOrderID = nil
	return &table, nil
}

// Create adds a new table
func (s *TableService) Create(ctx context.Context, number, capacity int, location string) (*models.Table, error) {
	if number <= 0 || capacity <= 0 {
		return nil, &ValidationError{Message: "table number and capacity must be positive"}
	}
	table := models.Table{
		Number:   number,
		Capacity: capacity,
		Location: location,
		Status:   models.TableStatusAvailable,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&table).Error; err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &table, nil
}

// UpdateTableInput carries the editable table attributes; nil fields are
// left unchanged
type UpdateTableInput struct {
	Number   *int
	Capacity *int
	Location *string
}

// Update edits a table's number, capacity or location
func (s *TableService) Update(ctx context.Context, tableID uint, input UpdateTableInput) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "table", ID: tableID}
		}
		return nil, fmt.Errorf("failed to load table %d: %w", tableID, err)
	}

	updates := map[string]interface{}{}
	if input.Number != nil {
		if *input.Number <= 0 {
			return nil, &ValidationError{Message: "table number must be positive"}
		}
		updates["number"] = *input.Number
		table.Number = *input.Number
	}
	if input.Capacity != nil {
		if *input.Capacity <= 0 {
			return nil, &ValidationError{Message: "table capacity must be positive"}
		}
		updates["capacity"] = *input.Capacity
		table.Capacity = *input.Capacity
	}
	if input.Location != nil {
		updates["location"] = *input.Location
		table.Location = *input.Location
	}
	if len(updates) == 0 {
		return &table, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Table{}).
		Where("id = ?", tableID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update table %d: %w", tableID, err)
	}
	return &table, nil
}

// Deactivate retires a table from service. An occupied table cannot be
// deactivated; settle or cancel its order first.
func (s *TableService) Deactivate(ctx context.Context, tableID uint) error {
	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "table", ID: tableID}
		}
		return fmt.Errorf("failed to load table %d: %w", tableID, err)
	}
	if table.Status == models.TableStatusOccupied {
		return &ConflictError{Message: fmt.Sprintf("table %d is occupied and cannot be deactivated", tableID)}
	}
	if err := s.db.WithContext(ctx).Model(&table).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("failed to deactivate table %d: %w", tableID, err)
	}
	return nil
}

// List returns all active tables ordered by table number
func (s *TableService) List(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("number asc").
		Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// Get returns one table by id
func (s *TableService) Get(ctx context.Context, tableID uint) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "table", ID: tableID}
		}
		return nil, fmt.Errorf("failed to load table %d: %w", tableID, err)
	}
	return &table, nil
}

// withTx returns a copy of the service bound to an open transaction, so
// allocation can participate in a caller's atomic flow.
func (s *TableService) withTx(tx *gorm.DB) *TableService {
	return &TableService{db: tx}
}
