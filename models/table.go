package models

import (
	"time"

	"gorm.io/gorm"
)

// Table statuses
const (
	TableStatusAvailable   = "available"
	TableStatusOccupied    = "occupied"
	TableStatusReserved    = "reserved"
	TableStatusMaintenance = "maintenance"
)

// Table represents a physical table in the restaurant. Invariant: a table
// with status occupied always has a non-nil CurrentOrderID, and freeing a
// table clears the reference in the same write.
type Table struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Number         int            `gorm:"uniqueIndex;not null" json:"number"`
	Capacity       int            `gorm:"not null;check:capacity > 0" json:"capacity"`
	Location       string         `json:"location"` // e.g. "terrace", "main hall"
	Status         string         `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	CurrentOrderID *uint          `gorm:"index" json:"current_order_id,omitempty"`
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Table model
func (Table) TableName() string {
	return "tables"
}

// IsValidTableStatus reports whether status is a known table status
func IsValidTableStatus(status string) bool {
	switch status {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved, TableStatusMaintenance:
		return true
	}
	return false
}
