package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/comanda-app/comanda-api/config"
	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/services"
)

func setupControllerTestDB(t *testing.T) *gorm.DB {
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

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// mockAuthMiddleware simulates the Auth0 JWT middleware for testing.
// It sets the context up the same way EnsureValidToken does.
func mockAuthMiddleware(auth0ID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", auth0ID)
		c.Next()
	}
}

func seedUser(t *testing.T, db *gorm.DB, auth0ID, role string) models.User {
	t.Helper()
	user := models.User{
		Auth0ID: auth0ID,
		Name:    "Test " + role,
		Email:   auth0ID + "@example.com",
		Role:    role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

func seedMenuItem(t *testing.T, db *gorm.DB, name string, price float64) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		Name:        name,
		Category:    "mains",
		Price:       decimal.NewFromFloat(price),
		IsAvailable: true,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("Failed to seed menu item: %v", err)
	}
	return item
}

func seedTable(t *testing.T, db *gorm.DB, number, capacity int) models.Table {
	t.Helper()
	table := models.Table{
		Number:   number,
		Capacity: capacity,
		Status:   models.TableStatusAvailable,
		IsActive: true,
	}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("Failed to seed table: %v", err)
	}
	return table
}

// newControllerStack wires the services against the test database the same
// way main does, with a mock publisher in place of Redis.
func newControllerStack(db *gorm.DB) (*services.OrderService, *services.KitchenService, *services.PaymentService, *services.MockPublisher) {
	publisher := services.NewMockPublisher()
	tables := services.NewTableService(db)
	orders := services.NewOrderService(db, tables, publisher)
	kitchen := services.NewKitchenService(db, orders, publisher)
	payments := services.NewPaymentService(db, orders, publisher)
	return orders, kitchen, payments, publisher
}

func TestCreateOrderEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	config.SetDB(db)

	waiter := seedUser(t, db, "auth0|waiter1", models.RoleWaiter)
	cook := seedUser(t, db, "auth0|cook1", models.RoleKitchen)
	dish := seedMenuItem(t, db, "Lomo a lo pobre", 8000)
	table := seedTable(t, db, 5, 4)

	orders, _, _, _ := newControllerStack(db)
	ctl := NewOrderController(orders)

	tests := []struct {
		name           string
		auth0ID        string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name:    "Successfully create order as waiter",
			auth0ID: waiter.Auth0ID,
			requestBody: map[string]interface{}{
				"table_id":   table.ID,
				"party_size": 2,
				"items": []map[string]interface{}{
					{"menu_item_id": dish.ID, "quantity": 2},
				},
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				assert.True(t, response["success"].(bool))
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "pending", data["status"])
				assert.Equal(t, float64(waiter.ID), data["waiter_id"])
				assert.Contains(t, data["order_number"].(string), "ORD-")
				assert.Equal(t, "16000", data["total_amount"])

				items := data["items"].([]interface{})
				assert.Len(t, items, 1)
				line := items[0].(map[string]interface{})
				assert.Equal(t, dish.Name, line["name"])
			},
		},
		{
			name:    "Fail to create order as kitchen staff",
			auth0ID: cook.Auth0ID,
			requestBody: map[string]interface{}{
				"items": []map[string]interface{}{
					{"menu_item_id": dish.ID, "quantity": 1},
				},
			},
			expectedStatus: http.StatusForbidden,
			expectedError:  "FORBIDDEN",
		},
		{
			name:           "Fail with no items",
			auth0ID:        waiter.Auth0ID,
			requestBody:    map[string]interface{}{"items": []map[string]interface{}{}},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:    "Fail with zero quantity",
			auth0ID: waiter.Auth0ID,
			requestBody: map[string]interface{}{
				"items": []map[string]interface{}{
					{"menu_item_id": dish.ID, "quantity": 0},
				},
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:    "Fail with unknown menu item",
			auth0ID: waiter.Auth0ID,
			requestBody: map[string]interface{}{
				"items": []map[string]interface{}{
					{"menu_item_id": 9999, "quantity": 1},
				},
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:    "Fail with user not found",
			auth0ID: "auth0|nonexistent",
			requestBody: map[string]interface{}{
				"items": []map[string]interface{}{
					{"menu_item_id": dish.ID, "quantity": 1},
				},
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "USER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/orders", mockAuthMiddleware(tt.auth0ID), ctl.Create)

			body, _ := json.Marshal(tt.requestBody)
			req, _ := http.NewRequest(http.MethodPost, "/orders", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			assert.NoError(t, err)

			if tt.expectedError != "" {
				assert.False(t, response["success"].(bool))
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
			}

			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	config.SetDB(db)

	waiter := seedUser(t, db, "auth0|waiter1", models.RoleWaiter)
	dish := seedMenuItem(t, db, "Empanada", 3000)

	orders, _, _, _ := newControllerStack(db)
	ctl := NewOrderController(orders)

	createOrder := func(t *testing.T) uint {
		t.Helper()
		order, err := orders.Create(context.Background(), services.CreateOrderInput{
			WaiterID: waiter.ID,
			Items: []services.OrderItemInput{
				{MenuItemID: dish.ID, Quantity: 1},
			},
		})
		assert.NoError(t, err)
		return order.ID
	}

	patchStatus := func(orderID string, status string) *httptest.ResponseRecorder {
		router := setupTestRouter()
		router.PATCH("/orders/:id/status", mockAuthMiddleware(waiter.Auth0ID), ctl.UpdateStatus)

		body, _ := json.Marshal(map[string]string{"status": status})
		req, _ := http.NewRequest(http.MethodPatch, "/orders/"+orderID+"/status", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("legal transition succeeds", func(t *testing.T) {
		orderID := createOrder(t)
		w := patchStatus(formatID(orderID), "preparing")
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "preparing", data["status"])
	})

	t.Run("illegal transition carries from and to", func(t *testing.T) {
		orderID := createOrder(t)
		w := patchStatus(formatID(orderID), "paid")
		assert.Equal(t, http.StatusConflict, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "INVALID_TRANSITION", errorData["code"])
		assert.Equal(t, "pending", errorData["from"])
		assert.Equal(t, "paid", errorData["to"])
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		orderID := createOrder(t)
		w := patchStatus(formatID(orderID), "done")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad id parameter", func(t *testing.T) {
		w := patchStatus("abc", "preparing")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing order", func(t *testing.T) {
		w := patchStatus("99999", "preparing")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetAndListOrdersEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	config.SetDB(db)

	waiter := seedUser(t, db, "auth0|waiter1", models.RoleWaiter)
	dish := seedMenuItem(t, db, "Cazuela", 6500)

	orders, _, _, _ := newControllerStack(db)
	ctl := NewOrderController(orders)

	created, err := orders.Create(context.Background(), services.CreateOrderInput{
		WaiterID: waiter.ID,
		Items: []services.OrderItemInput{
			{MenuItemID: dish.ID, Quantity: 2},
		},
	})
	assert.NoError(t, err)

	t.Run("get by id preloads relations", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/orders/:id", mockAuthMiddleware(waiter.Auth0ID), ctl.Get)

		req, _ := http.NewRequest(http.MethodGet, "/orders/"+formatID(created.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		data := response["data"].(map[string]interface{})
		assert.Equal(t, float64(created.ID), data["id"])
		waiterData := data["waiter"].(map[string]interface{})
		assert.Equal(t, waiter.Email, waiterData["email"])
	})

	t.Run("list filters by status", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/orders", mockAuthMiddleware(waiter.Auth0ID), ctl.List)

		req, _ := http.NewRequest(http.MethodGet, "/orders?status=pending", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].([]interface{})
		assert.Len(t, data, 1)

		req, _ = http.NewRequest(http.MethodGet, "/orders?status=paid", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data = response["data"].([]interface{})
		assert.Len(t, data, 0)
	})

	t.Run("missing auth is unauthorized", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/orders", ctl.List)

		req, _ := http.NewRequest(http.MethodGet, "/orders", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func formatID(id uint) string {
	return strconv.Itoa(int(id))
}
