package models

import (
	"time"

	"gorm.io/gorm"
)

// Staff roles recognised by the API. Role gating happens in controllers;
// services trust the user they are handed.
const (
	RoleAdmin   = "admin"
	RoleWaiter  = "waiter"
	RoleKitchen = "kitchen"
	RoleCashier = "cashier"
)

// User represents a staff member (admin, waiter, kitchen or cashier)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      string         `gorm:"not null;default:'waiter'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsValidRole reports whether role is one of the recognised staff roles
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleWaiter, RoleKitchen, RoleCashier:
		return true
	}
	return false
}
