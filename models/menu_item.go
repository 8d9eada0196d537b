package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItem represents a dish or drink on the menu. Orders copy the name and
// price at order time, so editing a menu item never rewrites order history.
type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Category    string          `gorm:"index" json:"category"` // e.g. "starters", "mains", "drinks"
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsAvailable bool            `gorm:"not null;default:true" json:"is_available"`
	ImageS3Key  *string         `json:"image_s3_key,omitempty"`       // nullable, S3 key for uploaded image
	ImageURL    *string         `gorm:"-" json:"image_url,omitempty"` // computed field, presigned URL for image
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the MenuItem model
func (MenuItem) TableName() string {
	return "menu_items"
}
