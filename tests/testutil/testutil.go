package testutil

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/comanda-app/comanda-api/models"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in TestMain or suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}

	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

// MigrateAll runs the full schema migration used by the application
func MigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.MenuItem{},
		&models.Table{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.PaymentSplit{},
		&models.Reservation{},
	)
}

// Staff bundles one user per role for end-to-end scenarios
type Staff struct {
	Admin   models.User
	Waiter  models.User
	Kitchen models.User
	Cashier models.User
}

// SeedStaff creates one user of each role
func SeedStaff(db *gorm.DB) (*Staff, error) {
	staff := &Staff{
		Admin:   models.User{Auth0ID: "auth0|admin", Name: "Admin", Email: "admin@test.com", Role: models.RoleAdmin},
		Waiter:  models.User{Auth0ID: "auth0|waiter", Name: "Waiter", Email: "waiter@test.com", Role: models.RoleWaiter},
		Kitchen: models.User{Auth0ID: "auth0|kitchen", Name: "Kitchen", Email: "kitchen@test.com", Role: models.RoleKitchen},
		Cashier: models.User{Auth0ID: "auth0|cashier", Name: "Cashier", Email: "cashier@test.com", Role: models.RoleCashier},
	}
	for _, user := range []*models.User{&staff.Admin, &staff.Waiter, &staff.Kitchen, &staff.Cashier} {
		if err := db.Create(user).Error; err != nil {
			return nil, err
		}
	}
	return staff, nil
}

// SeedMenu creates a small menu and returns the items by name
func SeedMenu(db *gorm.DB) (map[string]models.MenuItem, error) {
	items := []models.MenuItem{
		{Name: "Empanada de pino", Category: "starters", Price: decimal.NewFromInt(3000), IsAvailable: true},
		{Name: "Lomo a lo pobre", Category: "mains", Price: decimal.NewFromInt(8000), IsAvailable: true},
		{Name: "Pastel de choclo", Category: "mains", Price: decimal.NewFromInt(12000), IsAvailable: true},
		{Name: "Mote con huesillo", Category: "drinks", Price: decimal.NewFromInt(2500), IsAvailable: true},
	}
	menu := make(map[string]models.MenuItem, len(items))
	for i := range items {
		if err := db.Create(&items[i]).Error; err != nil {
			return nil, err
		}
		menu[items[i].Name] = items[i]
	}
	return menu, nil
}

// SeedTables creates n active tables numbered from 1
func SeedTables(db *gorm.DB, n, capacity int) ([]models.Table, error) {
	tables := make([]models.Table, 0, n)
	for i := 1; i <= n; i++ {
		table := models.Table{
			Number:   i,
			Capacity: capacity,
			Status:   models.TableStatusAvailable,
			IsActive: true,
		}
		if err := db.Create(&table).Error; err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}
