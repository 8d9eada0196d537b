package models

import (
	"time"

	"gorm.io/gorm"
)

// Reservation statuses
const (
	ReservationStatusBooked    = "booked"
	ReservationStatusSeated    = "seated"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusNoShow    = "no_show"
)

// Reservation is an advance booking of a table. Booking marks the table
// reserved; seating the party hands the table over to the order flow.
type Reservation struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	TableID      uint           `gorm:"not null;index" json:"table_id"`
	Table        Table          `gorm:"foreignKey:TableID" json:"table"`
	CustomerName string         `gorm:"not null" json:"customer_name"`
	Phone        string         `json:"phone"`
	PartySize    int            `gorm:"not null;default:1" json:"party_size"`
	ReservedFor  time.Time      `gorm:"not null;index" json:"reserved_for"`
	Status       string         `gorm:"type:varchar(20);not null;default:'booked'" json:"status"`
	Notes        string         `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Reservation model
func (Reservation) TableName() string {
	return "reservations"
}
