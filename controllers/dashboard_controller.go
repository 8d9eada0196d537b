package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/gin-gonic/gin"

	"github.com/comanda-app/comanda-api/config"
	"github.com/comanda-app/comanda-api/models"
	"github.com/comanda-app/comanda-api/utils"
)

// GetDashboardSummary handles GET /api/v1/dashboard/summary (admins only).
// One snapshot for the admin dashboard: open orders by status, floor
// occupancy and today's takings.
func GetDashboardSummary(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleAdmin) {
		return
	}

	db := config.GetDB()

	type statusCount struct {
		Status string
		Count  int64
	}
	var orderCounts []statusCount
	if err := db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Where("status IN ?", []string{
			models.OrderStatusPending, models.OrderStatusPreparing,
			models.OrderStatusReady, models.OrderStatusDelivered,
		}).
		Group("status").
		Scan(&orderCounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load order counts",
			},
		})
		return
	}
	ordersByStatus := map[string]int64{}
	for _, sc := range orderCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	var occupiedTables, totalTables int64
	db.Model(&models.Table{}).Where("is_active = ?", true).Count(&totalTables)
	db.Model(&models.Table{}).Where("is_active = ? AND status = ?", true, models.TableStatusOccupied).Count(&occupiedTables)

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var payments []models.Payment
	if err := db.Where("status = ? AND paid_at >= ?", models.PaymentStatusCompleted, startOfDay).
		Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load today's payments",
			},
		})
		return
	}
	takings := decimal.Zero
	for _, p := range payments {
		takings = takings.Add(p.Amount)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"orders_by_status": ordersByStatus,
			"tables": gin.H{
				"occupied": occupiedTables,
				"total":    totalTables,
			},
			"todays_takings":   utils.FormatMoney(takings),
			"payments_settled": len(payments),
		},
	})
}
