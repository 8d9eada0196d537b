package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/comanda-app/comanda-api/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.MenuItem{},
		&models.Table{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.PaymentSplit{},
		&models.Reservation{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()
	user := models.User{
		Auth0ID: "auth0|" + name,
		Name:    name,
		Email:   name + "@example.com",
		Role:    role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return &user
}

func createTestMenuItem(t *testing.T, db *gorm.DB, name string, price float64, available bool) *models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		Name:        name,
		Category:    "mains",
		Price:       decimal.NewFromFloat(price),
		IsAvailable: available,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("Failed to create test menu item: %v", err)
	}
	// is_available defaults to true in the schema, so a zero-valued false
	// is dropped from the insert; force the stored value explicitly
	if !available {
		if err := db.Model(&item).Update("is_available", false).Error; err != nil {
			t.Fatalf("Failed to mark test menu item unavailable: %v", err)
		}
		item.IsAvailable = false
	}
	return &item
}

func createTestTable(t *testing.T, db *gorm.DB, number, capacity int) *models.Table {
	t.Helper()
	table := models.Table{
		Number:   number,
		Capacity: capacity,
		Status:   models.TableStatusAvailable,
		IsActive: true,
	}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}
	return &table
}

// newTestStack wires the full service graph onto one in-memory database
// with a recording publisher.
func newTestStack(t *testing.T) (*gorm.DB, *OrderService, *KitchenService, *PaymentService, *TableService, *MockPublisher) {
	t.Helper()
	db := setupTestDB(t)
	publisher := NewMockPublisher()
	tables := NewTableService(db)
	orders := NewOrderService(db, tables, publisher)
	kitchen := NewKitchenService(db, orders, publisher)
	payments := NewPaymentService(db, orders, publisher)
	return db, orders, kitchen, payments, tables, publisher
}
