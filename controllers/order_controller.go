package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/services"
)

// OrderController exposes the order lifecycle over HTTP
type OrderController struct {
	orders *services.OrderService
}

// NewOrderController creates an order controller
func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// OrderItemRequest is one line of a creation request
type OrderItemRequest struct {
	MenuItemID uint   `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	Notes      string `json:"notes"`
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	TableID      *uint              `json:"table_id"`
	CustomerName string             `json:"customer_name"`
	PartySize    int                `json:"party_size" binding:"omitempty,gt=0"`
	Notes        string             `json:"notes"`
	Items        []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// Create handles POST /api/v1/orders - creates a new order (waiters only)
func (ctl *OrderController) Create(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleWaiter, models.RoleAdmin) {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	items := make([]services.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.OrderItemInput{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Notes:      item.Notes,
		})
	}

	order, err := ctl.orders.Create(c.Request.Context(), services.CreateOrderInput{
		TableID:      req.TableID,
		WaiterID:     user.ID,
		CustomerName: req.CustomerName,
		PartySize:    req.PartySize,
		Notes:        req.Notes,
		Items:        items,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// List handles GET /api/v1/orders - lists orders, optionally by status
func (ctl *OrderController) List(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	orders, err := ctl.orders.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// Get handles GET /api/v1/orders/:id
func (ctl *OrderController) Get(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctl.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateStatusRequest represents the request body for a status change
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /api/v1/orders/:id/status
func (ctl *OrderController) UpdateStatus(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleWaiter, models.RoleKitchen, models.RoleAdmin) {
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	order, err := ctl.orders.AdvanceStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// Delete handles DELETE /api/v1/orders/:id - removes an unpaid order
func (ctl *OrderController) Delete(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleWaiter, models.RoleAdmin) {
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctl.orders.Delete(c.Request.Context(), orderID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order deleted",
	})
}

// parseIDParam reads a numeric path parameter. On failure it writes the
// 400 response and returns false.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid " + name + " parameter",
			},
		})
		return 0, false
	}
	return uint(id), true
}
