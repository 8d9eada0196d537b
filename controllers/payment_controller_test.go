package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/comanda-app/comanda-api/config"
	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/services"
)

// deliveredTestOrder opens an order for two dishes (total 22000) and walks
// it to delivered so the cashier endpoints have something to settle.
func deliveredTestOrder(t *testing.T, db *gorm.DB, orders *services.OrderService, waiterID uint) *models.Order {
	t.Helper()
	ctx := context.Background()

	dish := seedMenuItem(t, db, "Pastel de choclo", 11000)
	order, err := orders.Create(ctx, services.CreateOrderInput{
		WaiterID: waiterID,
		Items: []services.OrderItemInput{
			{MenuItemID: dish.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}

	for _, status := range []string{"preparing", "ready", "delivered"} {
		if _, err := orders.AdvanceStatus(ctx, order.ID, status); err != nil {
			t.Fatalf("Failed to advance order to %s: %v", status, err)
		}
	}
	return order
}

func TestProcessPaymentEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	config.SetDB(db)

	waiter := seedUser(t, db, "auth0|waiter1", models.RoleWaiter)
	cashier := seedUser(t, db, "auth0|cashier1", models.RoleCashier)

	orders, _, payments, publisher := newControllerStack(db)
	ctl := NewPaymentController(payments)

	postPayment := func(auth0ID string, body map[string]interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
		router := setupTestRouter()
		router.POST("/payments", mockAuthMiddleware(auth0ID), ctl.Process)

		raw, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, "/payments", bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		return w, response
	}

	t.Run("cashier settles a delivered order", func(t *testing.T) {
		order := deliveredTestOrder(t, db, orders, waiter.ID)
		publisher.Reset()

		w, response := postPayment(cashier.Auth0ID, map[string]interface{}{
			"order_id": order.ID,
			"amount":   22000,
			"method":   "card",
			"tip":      2000,
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "completed", data["status"])
		assert.Equal(t, "card", data["method"])
		assert.Equal(t, "22000", data["amount"])
		assert.Equal(t, float64(cashier.ID), data["cashier_id"])

		var stored models.Order
		assert.NoError(t, db.First(&stored, order.ID).Error)
		assert.Equal(t, models.OrderStatusPaid, stored.Status)

		assert.Len(t, publisher.EventsFor(services.EventPaymentProcessed), 1)
	})

	t.Run("waiter cannot settle", func(t *testing.T) {
		order := deliveredTestOrder(t, db, orders, waiter.ID)

		w, response := postPayment(waiter.Auth0ID, map[string]interface{}{
			"order_id": order.ID,
			"amount":   22000,
			"method":   "cash",
		})

		assert.Equal(t, http.StatusForbidden, w.Code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "FORBIDDEN", errorData["code"])
	})

	t.Run("amount mismatch reports both figures", func(t *testing.T) {
		order := deliveredTestOrder(t, db, orders, waiter.ID)

		w, response := postPayment(cashier.Auth0ID, map[string]interface{}{
			"order_id": order.ID,
			"amount":   21000,
			"method":   "cash",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "AMOUNT_MISMATCH", errorData["code"])
		assert.Equal(t, "22000.00", errorData["expected"])
		assert.Equal(t, "21000.00", errorData["received"])
	})

	t.Run("split settlement", func(t *testing.T) {
		order := deliveredTestOrder(t, db, orders, waiter.ID)

		w, response := postPayment(cashier.Auth0ID, map[string]interface{}{
			"order_id": order.ID,
			"amount":   22000,
			"splits": []map[string]interface{}{
				{"payer_name": "Ana", "amount": 10000, "method": "cash"},
				{"payer_name": "Luis", "amount": 12000, "method": "card"},
			},
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "split", data["method"])
		splits := data["splits"].([]interface{})
		assert.Len(t, splits, 2)
	})

	t.Run("method required without splits", func(t *testing.T) {
		order := deliveredTestOrder(t, db, orders, waiter.ID)

		w, response := postPayment(cashier.Auth0ID, map[string]interface{}{
			"order_id": order.ID,
			"amount":   22000,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "VALIDATION_ERROR", errorData["code"])
	})

	t.Run("undelivered order is a conflict", func(t *testing.T) {
		dish := seedMenuItem(t, db, "Sopaipilla", 1500)
		order, err := orders.Create(context.Background(), services.CreateOrderInput{
			WaiterID: waiter.ID,
			Items:    []services.OrderItemInput{{MenuItemID: dish.ID, Quantity: 1}},
		})
		assert.NoError(t, err)

		w, response := postPayment(cashier.Auth0ID, map[string]interface{}{
			"order_id": order.ID,
			"amount":   1500,
			"method":   "cash",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "CONFLICT", errorData["code"])
	})
}

func TestSettleableEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	config.SetDB(db)

	waiter := seedUser(t, db, "auth0|waiter1", models.RoleWaiter)
	cashier := seedUser(t, db, "auth0|cashier1", models.RoleCashier)

	orders, _, payments, _ := newControllerStack(db)
	ctl := NewPaymentController(payments)

	delivered := deliveredTestOrder(t, db, orders, waiter.ID)

	// a pending order must not show up
	dish := seedMenuItem(t, db, "Completo", 3500)
	_, err := orders.Create(context.Background(), services.CreateOrderInput{
		WaiterID: waiter.ID,
		Items:    []services.OrderItemInput{{MenuItemID: dish.ID, Quantity: 1}},
	})
	assert.NoError(t, err)

	router := setupTestRouter()
	router.GET("/payments/settleable", mockAuthMiddleware(cashier.Auth0ID), ctl.Settleable)

	req, _ := http.NewRequest(http.MethodGet, "/payments/settleable", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].([]interface{})
	assert.Len(t, data, 1)
	first := data[0].(map[string]interface{})
	assert.Equal(t, float64(delivered.ID), first["id"])
}

func TestPaymentHistoryEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	config.SetDB(db)

	waiter := seedUser(t, db, "auth0|waiter1", models.RoleWaiter)
	cashier := seedUser(t, db, "auth0|cashier1", models.RoleCashier)

	orders, _, payments, _ := newControllerStack(db)
	ctl := NewPaymentController(payments)

	order := deliveredTestOrder(t, db, orders, waiter.ID)
	_, err := payments.ProcessPayment(context.Background(), services.ProcessPaymentInput{
		OrderID:   order.ID,
		CashierID: cashier.ID,
		Amount:    order.TotalAmount,
		Method:    "cash",
	})
	assert.NoError(t, err)

	router := setupTestRouter()
	router.GET("/payments/history", mockAuthMiddleware(cashier.Auth0ID), ctl.History)

	t.Run("defaults to today", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/payments/history", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].([]interface{})
		assert.Len(t, data, 1)
	})

	t.Run("rejects malformed timestamps", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/payments/history?from=yesterday", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
