package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/services"
)

// KitchenController exposes the kitchen queue and per-item status updates
type KitchenController struct {
	kitchen *services.KitchenService
}

// NewKitchenController creates a kitchen controller
func NewKitchenController(kitchen *services.KitchenService) *KitchenController {
	return &KitchenController{kitchen: kitchen}
}

// Queue handles GET /api/v1/kitchen/queue - the kitchen display
func (ctl *KitchenController) Queue(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleKitchen, models.RoleAdmin) {
		return
	}

	entries, err := ctl.kitchen.ListQueue(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
	})
}

// AdvanceItem handles PATCH /api/v1/kitchen/items/:id/status
func (ctl *KitchenController) AdvanceItem(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleKitchen, models.RoleWaiter, models.RoleAdmin) {
		return
	}

	itemID, ok := parseIDParam(c, "id")
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

	item, err := ctl.kitchen.AdvanceItem(c.Request.Context(), itemID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}
