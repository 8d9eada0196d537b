package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comanda-app/comanda-api/config"
	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/services"
	"github.com/comanda-app/comanda-api/utils"
)

// CreateMenuItemRequest represents the request body for adding a dish
type CreateMenuItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price" binding:"required,gt=0"`
}

// UpdateMenuItemRequest represents the request body for editing a dish.
// Edits never rewrite history: orders keep the name and price they froze.
type UpdateMenuItemRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0"`
	IsAvailable *bool    `json:"is_available"`
}

// CreateMenuItem handles POST /api/v1/menu (admins only)
func CreateMenuItem(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleAdmin) {
		return
	}

	var req CreateMenuItemRequest
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

	item := models.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       utils.MoneyFromFloat(req.Price),
		IsAvailable: true,
	}

	db := config.GetDB()
	if err := db.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create menu item",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    item,
	})
}

// ListMenuItems handles GET /api/v1/menu - the full menu, any staff role.
// ?available=true narrows to items the kitchen can currently make.
func ListMenuItems(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	db := config.GetDB()
	q := db.Order("category asc, name asc")
	if c.Query("available") == "true" {
		q = q.Where("is_available = ?", true)
	}

	var items []models.MenuItem
	if err := q.Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load menu",
			},
		})
		return
	}

	attachImageURLs(items)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
	})
}

// GetMenuItem handles GET /api/v1/menu/:id
func GetMenuItem(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	var item models.MenuItem
	if err := db.First(&item, itemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Menu item not found",
			},
		})
		return
	}

	attachImageURLs([]models.MenuItem{item})
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// UpdateMenuItem handles PATCH /api/v1/menu/:id (admins only)
func UpdateMenuItem(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleAdmin) {
		return
	}

	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateMenuItemRequest
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

	db := config.GetDB()
	var item models.MenuItem
	if err := db.First(&item, itemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Menu item not found",
			},
		})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Price != nil {
		updates["price"] = utils.MoneyFromFloat(*req.Price)
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}

	if len(updates) > 0 {
		if err := db.Model(&item).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to update menu item",
				},
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// DeleteMenuItem handles DELETE /api/v1/menu/:id (admins only). The row is
// soft-deleted; order items keep their frozen copy of name and price.
func DeleteMenuItem(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleAdmin) {
		return
	}

	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	var item models.MenuItem
	if err := db.First(&item, itemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Menu item not found",
			},
		})
		return
	}

	if err := db.Delete(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete menu item",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Menu item deleted",
	})
}

// attachImageURLs fills the computed ImageURL field with presigned URLs
func attachImageURLs(items []models.MenuItem) {
	imageService := services.GetImageService()
	if imageService == nil {
		return
	}
	for i := range items {
		if items[i].ImageS3Key == nil {
			continue
		}
		url, err := imageService.GetImageURL(*items[i].ImageS3Key)
		if err != nil {
			log.Printf("failed to presign image for menu item %d: %v", items[i].ID, err)
			continue
		}
		if url != "" {
			items[i].ImageURL = &url
		}
	}
}
