package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/services"
)

// ReservationController exposes advance table bookings
type ReservationController struct {
	reservations *services.ReservationService
}

// NewReservationController creates a reservation controller
func NewReservationController(reservations *services.ReservationService) *ReservationController {
	return &ReservationController{reservations: reservations}
}

// CreateReservationRequest represents the request body for booking a table
type CreateReservationRequest struct {
	TableID      uint      `json:"table_id" binding:"required"`
	CustomerName string    `json:"customer_name" binding:"required"`
	Phone        string    `json:"phone"`
	PartySize    int       `json:"party_size" binding:"omitempty,gt=0"`
	ReservedFor  time.Time `json:"reserved_for" binding:"required"`
	Notes        string    `json:"notes"`
}

// Create handles POST /api/v1/reservations (admins and waiters)
func (ctl *ReservationController) Create(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleAdmin, models.RoleWaiter) {
		return
	}

	var req CreateReservationRequest
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

	reservation, err := ctl.reservations.Create(c.Request.Context(), services.CreateReservationInput{
		TableID:      req.TableID,
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		PartySize:    req.PartySize,
		ReservedFor:  req.ReservedFor,
		Notes:        req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    reservation,
	})
}

// List handles GET /api/v1/reservations?day= - bookings for one day
// (defaults to today)
func (ctl *ReservationController) List(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	day := time.Now()
	if raw := c.Query("day"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "day must be a YYYY-MM-DD date",
				},
			})
			return
		}
		day = parsed
	}

	reservations, err := ctl.reservations.List(c.Request.Context(), day)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    reservations,
	})
}

// UpdateStatus handles PATCH /api/v1/reservations/:id/status with one of
// seated, cancelled or no_show
func (ctl *ReservationController) UpdateStatus(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleAdmin, models.RoleWaiter) {
		return
	}

	reservationID, ok := parseIDParam(c, "id")
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

	var reservation *models.Reservation
	var err error
	switch req.Status {
	case models.ReservationStatusSeated:
		reservation, err = ctl.reservations.MarkSeated(c.Request.Context(), reservationID)
	case models.ReservationStatusCancelled:
		reservation, err = ctl.reservations.Cancel(c.Request.Context(), reservationID)
	case models.ReservationStatusNoShow:
		reservation, err = ctl.reservations.MarkNoShow(c.Request.Context(), reservationID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "status must be one of seated, cancelled, no_show",
			},
		})
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    reservation,
	})
}
