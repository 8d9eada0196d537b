package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/comanda-app/comanda-api/config"
	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/services"
)

func TestKitchenQueueEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	config.SetDB(db)

	waiter := seedUser(t, db, "auth0|waiter1", models.RoleWaiter)
	cook := seedUser(t, db, "auth0|cook1", models.RoleKitchen)
	dish := seedMenuItem(t, db, "Chorrillana", 14000)

	orders, kitchen, _, _ := newControllerStack(db)
	ctl := NewKitchenController(kitchen)

	_, err := orders.Create(context.Background(), services.CreateOrderInput{
		WaiterID: waiter.ID,
		Items: []services.OrderItemInput{
			{MenuItemID: dish.ID, Quantity: 1, Notes: "no fries"},
		},
	})
	assert.NoError(t, err)

	t.Run("kitchen staff see the queue", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/kitchen/queue", mockAuthMiddleware(cook.Auth0ID), ctl.Queue)

		req, _ := http.NewRequest(http.MethodGet, "/kitchen/queue", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		data := response["data"].([]interface{})
		assert.Len(t, data, 1)
		entry := data[0].(map[string]interface{})
		assert.Contains(t, entry["order_number"].(string), "ORD-")
		item := entry["item"].(map[string]interface{})
		assert.Equal(t, dish.Name, item["name"])
	})

	t.Run("waiters are not allowed", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/kitchen/queue", mockAuthMiddleware(waiter.Auth0ID), ctl.Queue)

		req, _ := http.NewRequest(http.MethodGet, "/kitchen/queue", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAdvanceItemEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	config.SetDB(db)

	waiter := seedUser(t, db, "auth0|waiter1", models.RoleWaiter)
	cook := seedUser(t, db, "auth0|cook1", models.RoleKitchen)
	dish := seedMenuItem(t, db, "Churrasco", 7500)

	orders, kitchen, _, _ := newControllerStack(db)
	ctl := NewKitchenController(kitchen)

	order, err := orders.Create(context.Background(), services.CreateOrderInput{
		WaiterID: waiter.ID,
		Items: []services.OrderItemInput{
			{MenuItemID: dish.ID, Quantity: 1},
		},
	})
	assert.NoError(t, err)
	itemID := order.Items[0].ID

	patchItem := func(id string, status string) *httptest.ResponseRecorder {
		router := setupTestRouter()
		router.PATCH("/kitchen/items/:id/status", mockAuthMiddleware(cook.Auth0ID), ctl.AdvanceItem)

		body, _ := json.Marshal(map[string]string{"status": status})
		req, _ := http.NewRequest(http.MethodPatch, "/kitchen/items/"+id+"/status", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("starting an item pulls the order along", func(t *testing.T) {
		w := patchItem(formatID(itemID), "preparing")
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "preparing", data["status"])

		var stored models.Order
		assert.NoError(t, db.First(&stored, order.ID).Error)
		assert.Equal(t, models.OrderStatusPreparing, stored.Status)
	})

	t.Run("illegal transition conflicts", func(t *testing.T) {
		w := patchItem(formatID(itemID), "pending")
		assert.Equal(t, http.StatusConflict, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "INVALID_TRANSITION", errorData["code"])
	})

	t.Run("missing item", func(t *testing.T) {
		w := patchItem("99999", "preparing")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
