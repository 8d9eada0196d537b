package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comanda-app/comanda-api/config"
	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/services"
	"github.com/comanda-app/comanda-api/utils"
)

// UploadMenuItemImage handles POST /api/v1/menu/:id/image - attaches a
// photo to a menu item (admins only). The previous photo, if any, is
// removed from storage after the new key is saved.
func UploadMenuItemImage(c *gin.Context) {
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

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "An image file is required under the 'image' form field",
			},
		})
		return
	}

	imageService := services.GetImageService()
	if imageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_UNAVAILABLE",
				"message": "Image storage is not configured",
			},
		})
		return
	}

	s3Key, err := imageService.UploadImage(fileHeader)
	if err != nil {
		status := http.StatusInternalServerError
		code := "UPLOAD_FAILED"
		var fileErr *utils.FileUploadError
		if errors.As(err, &fileErr) {
			status = http.StatusBadRequest
			code = fileErr.Code
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	oldKey := item.ImageS3Key
	if err := db.Model(&item).Update("image_s3_key", s3Key).Error; err != nil {
		// Saving the reference failed; don't leave the orphan behind
		_ = imageService.DeleteImage(s3Key)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to save image reference",
			},
		})
		return
	}
	if oldKey != nil && *oldKey != s3Key {
		_ = imageService.DeleteImage(*oldKey)
	}

	item.ImageS3Key = &s3Key
	items := []models.MenuItem{item}
	attachImageURLs(items)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items[0],
	})
}
