package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/services"
)

// TableController exposes floor management: table CRUD and administrative
// status changes. Occupying and freeing happen through the order flow, not
// here.
type TableController struct {
	tables *services.TableService
}

// NewTableController creates a table controller
func NewTableController(tables *services.TableService) *TableController {
	return &TableController{tables: tables}
}

// CreateTableRequest represents the request body for adding a table
type CreateTableRequest struct {
	Number   int    `json:"number" binding:"required,gt=0"`
	Capacity int    `json:"capacity" binding:"required,gt=0"`
	Location string `json:"location"`
}

// Create handles POST /api/v1/tables (admins only)
func (ctl *TableController) Create(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleAdmin) {
		return
	}

	var req CreateTableRequest
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

	table, err := ctl.tables.Create(c.Request.Context(), req.Number, req.Capacity, req.Location)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    table,
	})
}

// List handles GET /api/v1/tables - the floor plan, any staff role
func (ctl *TableController) List(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	tables, err := ctl.tables.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tables,
	})
}

// UpdateTableRequest represents the request body for editing a table
type UpdateTableRequest struct {
	Number   *int    `json:"number" binding:"omitempty,gt=0"`
	Capacity *int    `json:"capacity" binding:"omitempty,gt=0"`
	Location *string `json:"location"`
}

// Update handles PATCH /api/v1/tables/:id (admins only)
func (ctl *TableController) Update(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleAdmin) {
		return
	}

	tableID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateTableRequest
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

	table, err := ctl.tables.Update(c.Request.Context(), tableID, services.UpdateTableInput{
		Number:   req.Number,
		Capacity: req.Capacity,
		Location: req.Location,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    table,
	})
}

// UpdateStatus handles PATCH /api/v1/tables/:id/status - administrative
// transitions (reserved, maintenance, back to available)
func (ctl *TableController) UpdateStatus(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleAdmin, models.RoleWaiter) {
		return
	}

	tableID, ok := parseIDParam(c, "id")
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

	table, err := ctl.tables.ChangeStatus(c.Request.Context(), tableID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    table,
	})
}

// Deactivate handles DELETE /api/v1/tables/:id (admins only)
func (ctl *TableController) Deactivate(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleAdmin) {
		return
	}

	tableID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctl.tables.Deactivate(c.Request.Context(), tableID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Table deactivated",
	})
}
