package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comanda-app/comanda-api/config"
	"github.com/comanda-app/comanda-api/middleware"
	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/services"
)

// respondServiceError maps a typed service error onto an HTTP status and
// the response envelope's error code. Unexpected errors are logged with
// context and surfaced as a generic internal error, without leaking detail.
func respondServiceError(c *gin.Context, err error) {
	var (
		ve *services.ValidationError
		nf *services.NotFoundError
		it *services.InvalidTransitionError
		am *services.AmountMismatchError
		sm *services.SplitMismatchError
		ce *services.ConflictError
	)

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": ve.Message,
			},
		})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": nf.Error(),
			},
		})
	case errors.As(err, &it):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TRANSITION",
				"message": it.Error(),
				"from":    it.From,
				"to":      it.To,
			},
		})
	case errors.As(err, &am):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":     "AMOUNT_MISMATCH",
				"message":  am.Error(),
				"expected": am.Expected.StringFixed(2),
				"received": am.Received.StringFixed(2),
			},
		})
	case errors.As(err, &sm):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":     "SPLIT_MISMATCH",
				"message":  sm.Error(),
				"expected": sm.Expected.StringFixed(2),
				"received": sm.Received.StringFixed(2),
			},
		})
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CONFLICT",
				"message": ce.Message,
			},
		})
	default:
		log.Printf("internal error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "An unexpected error occurred",
			},
		})
	}
}

// getCurrentUser resolves the authenticated staff member from the JWT's
// Auth0 subject. On failure it writes the error response and returns false.
func getCurrentUser(c *gin.Context) (*models.User, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return nil, false
	}

	db := config.GetDB()
	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User profile not found. Please create a profile first.",
			},
		})
		return nil, false
	}

	return &user, true
}

// requireRole checks the current user against the allowed roles. On a
// mismatch it writes the 403 response and returns false.
func requireRole(c *gin.Context, user *models.User, roles ...string) bool {
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	c.JSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": "Insufficient permissions for this operation",
		},
	})
	return false
}
